package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolioreport/internal/domain"
	"portfolioreport/internal/util"

	"github.com/shopspring/decimal"
)

const (
	reportSeparator = "────────────"

	markerUp   = "🟢"
	markerDown = "🔴"
)

// markdownEscaper escapes the characters Telegram's Markdown mode treats as
// entity delimiters, for text the report does not control.
var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// ReportService renders Telegram Markdown. Output depends only on its
// arguments, so identical results and timestamps give identical bytes.
type ReportService interface {
	Render(report domain.PortfolioReport, at time.Time) string
	RenderInputFailure(err error) string
}

type reportServiceHandler struct{}

func NewReportService() ReportService {
	return reportServiceHandler{}
}

func (h reportServiceHandler) Render(report domain.PortfolioReport, at time.Time) string {
	sb := strings.Builder{}
	sb.WriteString(renderHeader(at))
	for _, result := range report.Results {
		sb.WriteString(RenderPosition(result))
	}
	sb.WriteString(renderTotals(report.Totals))
	return sb.String()
}

func (h reportServiceHandler) RenderInputFailure(err error) string {
	if errors.Is(err, ErrEmptyPortfolio) {
		return "Error: No data found in portfolio sheet."
	}
	return fmt.Sprintf("Error reading portfolio sheet: %s", escapeMarkdown(err.Error()))
}

func renderHeader(at time.Time) string {
	return fmt.Sprintf("📊 *Portfolio Update (%s)*\n\n", util.FormatReportTimestamp(at))
}

// RenderPosition renders exactly one section for a row, whether it
// succeeded or not.
func RenderPosition(result domain.PositionResult) string {
	if result.Failed() || result.Quote == nil || result.Row == nil {
		reason := result.Error
		if reason == "" {
			reason = "no quote"
		}
		return fmt.Sprintf("❌ *%s*: Error fetching data: %s\n\n", result.Ticker, escapeMarkdown(reason))
	}

	q := result.Quote
	row := result.Row
	pl := result.ProfitLoss.Decimal

	lines := []string{
		fmt.Sprintf("💸 *%s*", result.Ticker),
		fmt.Sprintf("- Price: `%s` (%s)", formatMoney(q.CurrentPrice), formatSignedPercent(q.DayChangePct)),
		fmt.Sprintf("- High: `%s` | 📉 Low: `%s`", formatMoney(q.DayHigh), formatMoney(q.DayLow)),
		fmt.Sprintf("- Qty: `%s @ %s`", row.Quantity.String(), formatMoney(row.BuyPrice)),
		fmt.Sprintf("- *P/L:* %s %s", marker(pl), formatSignedMoney(pl)),
		"",
		"🧠 *AI View*",
		escapeMarkdown(result.Insight),
		"",
		reportSeparator,
		"",
	}
	return strings.Join(lines, "\n") + "\n"
}

func renderTotals(totals domain.PortfolioTotals) string {
	dayChange := totals.DayChange()
	lines := []string{
		"📈 *Portfolio Summary*",
		fmt.Sprintf("- Investment: `%s`", formatMoney(totals.Investment)),
		fmt.Sprintf("- Current Worth: `%s`", formatMoney(totals.CurrentWorth)),
		fmt.Sprintf("- Prior Worth: `%s`", formatMoney(totals.PriorWorth)),
		fmt.Sprintf("- *Total P/L:* %s %s%s", marker(totals.ProfitLoss), formatSignedMoney(totals.ProfitLoss), percentOf(totals.ProfitLoss, totals.Investment)),
		fmt.Sprintf("- *Day Change:* %s %s%s", marker(dayChange), formatSignedMoney(dayChange), percentOf(dayChange, totals.PriorWorth)),
	}
	return strings.Join(lines, "\n") + "\n"
}

func marker(d decimal.Decimal) string {
	if d.IsNegative() {
		return markerDown
	}
	return markerUp
}

func formatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// formatSignedMoney always carries a sign; zero counts as a gain.
func formatSignedMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return formatMoney(d)
	}
	return "+" + formatMoney(d)
}

func formatSignedPercent(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.StringFixed(2) + "%"
	}
	return "+" + d.StringFixed(2) + "%"
}

func percentOf(part, whole decimal.Decimal) string {
	if whole.IsZero() {
		return ""
	}
	return fmt.Sprintf(" (%s)", formatSignedPercent(part.Div(whole).Mul(decimal.NewFromInt(100))))
}
