package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block suitable for
// pasting into a journal. Structured facts live in a PROPERTIES drawer for
// easy search; narrative fields follow as subsections.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("** Trade: %s %s (%s)", t.Symbol, t.Direction, shortID(t.ID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.ID))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", t.Symbol))
	b.WriteString(fmt.Sprintf(":DIRECTION: %s\n", t.Direction))
	b.WriteString(fmt.Sprintf(":STRATEGY: %s\n", t.Strategy))
	b.WriteString(fmt.Sprintf(":LOT_SIZE: %.2f\n", t.LotSize))
	b.WriteString(fmt.Sprintf(":CONFIDENCE: %.2f\n", t.Confidence))
	b.WriteString(fmt.Sprintf(":SESSION: %s\n", t.Session()))
	// RFC3339 for copy/paste friendliness.
	b.WriteString(fmt.Sprintf(":OPEN_TIME: %s\n", t.Timestamp.UTC().Format(time.RFC3339)))
	if t.Closed() {
		b.WriteString(fmt.Sprintf(":CLOSE_TIME: %s\n", t.ExitTime.UTC().Format(time.RFC3339)))
		b.WriteString(fmt.Sprintf(":PNL: %.2f\n", t.PnL))
		b.WriteString(fmt.Sprintf(":PNL_R: %.2f\n", t.PnLR))
		b.WriteString(fmt.Sprintf(":HOLD_MINUTES: %d\n", t.HoldDuration))
		if t.Grade != "" {
			b.WriteString(fmt.Sprintf(":GRADE: %s\n", t.Grade))
		}
	}
	if len(t.Tags) > 0 {
		b.WriteString(fmt.Sprintf(":TAGS: %s\n", strings.Join(t.Tags, " ")))
	}
	b.WriteString(":END:\n")

	if t.Reasoning != "" {
		b.WriteString("\n*** Thesis\n")
		b.WriteString(fmt.Sprintf("- %s\n", t.Reasoning))
	}
	if t.ExitReasoning != "" {
		b.WriteString("\n*** Exit\n")
		b.WriteString(fmt.Sprintf("- %s\n", t.ExitReasoning))
	}
	if t.Lessons != "" {
		b.WriteString("\n*** Review\n")
		b.WriteString(fmt.Sprintf("- %s\n", t.Lessons))
	}

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
