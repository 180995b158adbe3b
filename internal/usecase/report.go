package usecase

import (
	"fmt"
	"strings"

	"MarketSim/internal/domain/models"
)

const codeFence = "```"

// QuoteLine renders "MICX: $268.45 📈".
func QuoteLine(q models.Quote) string {
	return fmt.Sprintf("%s: $%.2f %s", q.Symbol, q.Price, q.Trend.Direction.Emoji())
}

// IndexLine renders "CQA: 119.46".
func IndexLine(v models.IndexValue) string {
	return fmt.Sprintf("%s: %.2f", v.Name, v.Value)
}

func quoteLines(quotes []models.Quote) string {
	lines := make([]string, len(quotes))
	for i, q := range quotes {
		lines[i] = QuoteLine(q)
	}
	return strings.Join(lines, "\n")
}

func indexLines(values []models.IndexValue) string {
	lines := make([]string, len(values))
	for i, v := range values {
		lines[i] = IndexLine(v)
	}
	return strings.Join(lines, "\n")
}

// FormatReport builds the scheduled market report for day.
func FormatReport(day string, quotes []models.Quote, indexes []models.IndexValue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 **Daily Market Report for %s**\n", day)
	b.WriteString(codeFence + "\n")
	b.WriteString(quoteLines(quotes))
	b.WriteString("\n\nIndexes:\n")
	b.WriteString(indexLines(indexes))
	b.WriteString("\n" + codeFence)
	return b.String()
}

func FormatStocks(quotes []models.Quote) string {
	return "📈 **Current Stock Prices**:\n" + quoteLines(quotes)
}

func FormatIndexes(values []models.IndexValue) string {
	return "📊 **Current Index Values**:\n" + indexLines(values)
}

// FormatEventTriggered announces a manual event followed by all current prices.
func FormatEventTriggered(narrative string, quotes []models.Quote) string {
	return fmt.Sprintf("🧨 **Manual Event Triggered**: %s\n%s\n%s\n%s", narrative, codeFence, quoteLines(quotes), codeFence)
}
