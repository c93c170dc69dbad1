package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"budgetbook/internal/tui/theme"
)

func (a App) renderLogTab(cw int) string {
	t := theme.Active
	txs := a.view.Transactions

	var b strings.Builder
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	fmt.Fprintf(&b, "  %s  %s\n\n", a.params.Anchor.Format("Monday 02 January 2006"), colored("Total flow "+money(total), t.TextMuted))

	if len(txs) == 0 {
		b.WriteString(colored("  No transactions on this day. Press a to add one.", t.TextDim))
		return b.String()
	}

	descW := max(cw-58, 10)
	b.WriteString(renderHeader([]column{
		{text: "ID", width: 6, right: true},
		{text: "Kind", width: 8},
		{text: "Category", width: 24},
		{text: "Amount", width: 11, right: true},
		{text: "Description", width: descW},
	}))
	b.WriteString("\n")

	start, end := window(len(txs), a.cursor, a.listHeight()-2)
	for i := start; i < end; i++ {
		tx := txs[i]
		desc := tx.Description
		if tx.IsAdjustment() {
			desc = colored(desc, t.TextDim)
		}
		b.WriteString(renderLine([]column{
			{text: strconv.FormatInt(tx.ID, 10), width: 6, right: true},
			{text: string(tx.Kind), width: 8},
			{text: tx.Category, width: 24},
			{text: colored(money(tx.Amount), signColor(tx.Amount)), width: 11, right: true},
			{text: desc, width: descW},
		}, i == a.cursor))
		b.WriteString("\n")
	}
	return b.String()
}
