package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActivityAccepted ActivityOutcome = "accepted"
	ActivityFailed   ActivityOutcome = "failed"
)

type ActivityOutcome string

// Activity is a journal entry for a signed payload relayed to the daemon.
type Activity struct {
	Id        string
	Outpoint  Outpoint
	Kind      TransactionKind
	Txid      string
	Outcome   ActivityOutcome
	Error     string
	CreatedAt time.Time
}

func NewActivity(
	outpoint Outpoint, kind TransactionKind, txid string, err error,
) Activity {
	a := Activity{
		Id:        uuid.New().String(),
		Outpoint:  outpoint,
		Kind:      kind,
		Txid:      txid,
		Outcome:   ActivityAccepted,
		CreatedAt: time.Now(),
	}
	if err != nil {
		a.Outcome = ActivityFailed
		a.Error = err.Error()
	}
	return a
}
