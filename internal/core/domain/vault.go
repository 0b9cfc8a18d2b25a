package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Unconfirmed VaultStatus = iota
	Funded
	Securing
	Secured
	Activating
	Active
	Unvaulting
	Unvaulted
	Canceling
	Canceled
	EmergencyVaulting
	EmergencyVaulted
	Spending
	Spent
	Spendable
)

var statusNames = map[VaultStatus]string{
	Unconfirmed:       "unconfirmed",
	Funded:            "funded",
	Securing:          "securing",
	Secured:           "secured",
	Activating:        "activating",
	Active:            "active",
	Unvaulting:        "unvaulting",
	Unvaulted:         "unvaulted",
	Canceling:         "canceling",
	Canceled:          "canceled",
	EmergencyVaulting: "emergencyvaulting",
	EmergencyVaulted:  "emergencyvaulted",
	Spending:          "spending",
	Spent:             "spent",
	Spendable:         "spendable",
}

var (
	// AllStatuses lists every status the daemon can report, in lifecycle order.
	AllStatuses = []VaultStatus{
		Unconfirmed, Funded, Securing, Secured, Activating, Active, Unvaulting,
		Unvaulted, Canceling, Canceled, EmergencyVaulting, EmergencyVaulted,
		Spending, Spent, Spendable,
	}
	// CurrentStatuses is the default filter: vaults that still hold funds or
	// are moving them.
	CurrentStatuses = []VaultStatus{
		Unconfirmed, Funded, Securing, Secured, Activating, Active, Unvaulting,
		Unvaulted, Canceling, EmergencyVaulting, Spending,
	}
	MovingStatuses   = []VaultStatus{Canceling, Spending, Unvaulting, Unvaulted}
	AckStatuses      = []VaultStatus{Securing, Funded}
	DelegateStatuses = []VaultStatus{Funded, Securing, Secured, Activating, Active}

	ActiveStatuses   = []VaultStatus{Active, Unvaulting, Unvaulted}
	InactiveStatuses = []VaultStatus{Secured, Funded, Unconfirmed}
)

type VaultStatus int

func (s VaultStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s VaultStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *VaultStatus) UnmarshalJSON(buf []byte) error {
	var str string
	if err := json.Unmarshal(buf, &str); err != nil {
		return err
	}
	status, err := ParseVaultStatus(str)
	if err != nil {
		return err
	}
	*s = status
	return nil
}

func ParseVaultStatus(str string) (VaultStatus, error) {
	str = strings.ToLower(strings.TrimSpace(str))
	for status, name := range statusNames {
		if name == str {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown vault status %q", str)
}

func ParseVaultStatuses(list []string) ([]VaultStatus, error) {
	statuses := make([]VaultStatus, 0, len(list))
	for _, str := range list {
		status, err := ParseVaultStatus(str)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// IsIn reports whether s is one of statuses.
func (s VaultStatus) IsIn(statuses []VaultStatus) bool {
	for _, status := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type Outpoint struct {
	Txid string
	VOut uint32
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.Txid, o.VOut)
}

func (o Outpoint) IsZero() bool {
	return o == Outpoint{}
}

func ParseOutpoint(str string) (Outpoint, error) {
	parts := strings.Split(strings.TrimSpace(str), ":")
	if len(parts) != 2 {
		return Outpoint{}, fmt.Errorf("invalid outpoint %q, must be in the form txid:vout", str)
	}
	if len(parts[0]) != 64 {
		return Outpoint{}, fmt.Errorf("invalid outpoint txid %q", parts[0])
	}
	vout, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Outpoint{}, fmt.Errorf("invalid outpoint index %q", parts[1])
	}
	return Outpoint{Txid: parts[0], VOut: uint32(vout)}, nil
}

// Vault is a deposit UTXO as last reported by the daemon. Vaults are only
// created from daemon snapshots.
type Vault struct {
	Outpoint
	Status          VaultStatus
	Amount          uint64
	Address         string
	DerivationIndex uint32
	Blockheight     uint32
	ReceivedAt      time.Time
	UpdatedAt       time.Time
}

func (v Vault) Clone() Vault {
	return v
}
