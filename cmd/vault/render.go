package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func formatBtc(sats uint64) string {
	return btcutil.Amount(sats).Format(btcutil.AmountBTC)
}

func formatTime(t time.Time) string {
	if t.IsZero() || t.Unix() <= 0 {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

// table renders rows in left aligned columns, the first row being the
// header.
func table(rows [][]string) string {
	if len(rows) <= 0 {
		return ""
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		cells := make([]string, 0, len(row))
		for j, cell := range row {
			cells = append(cells, lipgloss.NewStyle().Width(widths[j]+2).Render(cell))
		}
		line := strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " ")
		if i == 0 {
			line = titleStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderVaults(vaults []domain.Vault) string {
	if len(vaults) <= 0 {
		return mutedStyle.Render("no vaults")
	}
	rows := [][]string{{"OUTPOINT", "STATUS", "AMOUNT", "ADDRESS", "RECEIVED"}}
	for _, vault := range vaults {
		rows = append(rows, []string{
			vault.Outpoint.String(),
			vault.Status.String(),
			formatBtc(vault.Amount),
			vault.Address,
			formatTime(vault.ReceivedAt),
		})
	}
	return table(rows)
}

func renderBalance(
	balance domain.Balance, byStatus map[domain.VaultStatus]domain.StatusBalance,
) string {
	summary := fmt.Sprintf(
		"%s %s\n%s %s",
		titleStyle.Render("active:  "), formatBtc(balance.Active),
		titleStyle.Render("inactive:"), formatBtc(balance.Inactive),
	)

	statuses := make([]domain.VaultStatus, 0, len(byStatus))
	for status := range byStatus {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

	rows := [][]string{{"STATUS", "VAULTS", "AMOUNT"}}
	for _, status := range statuses {
		b := byStatus[status]
		rows = append(rows, []string{status.String(), fmt.Sprint(b.Count), formatBtc(b.Amount)})
	}
	if len(rows) == 1 {
		return boxStyle.Render(summary)
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxStyle.Render(summary), table(rows))
}

func renderTransactions(txs *domain.VaultTransactions) string {
	rows := [][]string{{"KIND", "TXID", "BLOCKHEIGHT", "RECEIVED"}}
	for _, tx := range txs.List() {
		height := mutedStyle.Render("unconfirmed")
		if tx.IsConfirmed() {
			height = fmt.Sprint(tx.Blockheight)
		}
		rows = append(rows, []string{
			tx.Kind.String(), tx.Txid, height, formatTime(tx.ReceivedAt),
		})
	}
	return table(rows)
}

func renderSpendTransactions(txs []domain.SpendTx) string {
	if len(txs) <= 0 {
		return mutedStyle.Render("no spend transactions")
	}
	rows := [][]string{{"TXID", "INPUTS", "OUTPUTS"}}
	for _, tx := range txs {
		inputs := make([]string, 0, len(tx.DepositOutpoints))
		for _, outpoint := range tx.DepositOutpoints {
			inputs = append(inputs, outpoint.String())
		}
		rows = append(rows, []string{
			tx.Txid(), strings.Join(inputs, ","), fmt.Sprint(len(tx.Psbt.UnsignedTx.TxOut)),
		})
	}
	return table(rows)
}

func renderActivities(activities []domain.Activity) string {
	if len(activities) <= 0 {
		return mutedStyle.Render("no activity")
	}
	rows := [][]string{{"DATE", "VAULT", "KIND", "TXID", "OUTCOME"}}
	for _, a := range activities {
		vault := "-"
		if !a.Outpoint.IsZero() {
			vault = a.Outpoint.String()
		}
		outcome := successStyle.Render(string(a.Outcome))
		if a.Outcome == domain.ActivityFailed {
			outcome = warningStyle.Render(fmt.Sprintf("%s: %s", a.Outcome, a.Error))
		}
		rows = append(rows, []string{
			formatTime(a.CreatedAt), vault, a.Kind.String(), a.Txid, outcome,
		})
	}
	return table(rows)
}
