package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/dustin/go-humanize"

	"CryptoSentinel/internal/model"
)

var recommendationIcon = map[model.Recommendation]string{
	model.StrongBuy:  "🟢",
	model.Buy:        "🟩",
	model.Hold:       "⚪",
	model.Sell:       "🟧",
	model.StrongSell: "🔴",
}

func icon(r model.Recommendation) string {
	if s, ok := recommendationIcon[r]; ok {
		return s
	}
	return "❔"
}

// FormatUSD renders a dollar amount with thousands separators.
func FormatUSD(v float64) string {
	switch {
	case v <= 0:
		return "n/a"
	case v < 1:
		return "$" + humanize.FtoaWithDigits(v, 6)
	default:
		return "$" + humanize.CommafWithDigits(v, 2)
	}
}

// FormatCap renders a market cap in SI units, e.g. "$1.3 T".
func FormatCap(v float64) string {
	if v <= 0 {
		return "n/a"
	}
	return "$" + humanize.SIWithDigits(v, 1, "")
}

func displaySymbol(c model.CoinResult) string {
	if c.Symbol != "" {
		return c.Symbol
	}
	return c.ID
}

// FormatRunReport formats a run into a Telegram message: market context,
// portfolio verdict and the ranking from lowest to highest risk.
func FormatRunReport(run *model.Run) string {
	var b strings.Builder
	rep := run.Report

	b.WriteString(fmt.Sprintf("📊 <b>CryptoSentinel report</b> | %s\n\n", run.GeneratedAt.Format("2006-01-02")))

	if g := rep.Global; g != nil {
		b.WriteString(fmt.Sprintf("Fear &amp; Greed: %d (%s)\n", g.FearGreed, html.EscapeString(g.FearGreedLabel)))
		b.WriteString(fmt.Sprintf("BTC dominance: %.1f%% | Total cap: %s\n\n", g.BTCDominance, FormatCap(g.TotalMarketCap)))
	}

	p := rep.Portfolio
	b.WriteString(fmt.Sprintf("🧭 <b>Portfolio:</b> %s %s (risk %.1f, %s weighting)\n\n",
		icon(p.Recommendation), p.Recommendation, p.Risk, p.Weighting))

	b.WriteString("📈 <b>Ranking (lowest risk first):</b>\n")
	for i, e := range p.Ranking {
		c := rep.Coins[e.ID]
		b.WriteString(fmt.Sprintf("  %d. %s %s %.1f %s | %s\n",
			i+1, icon(e.Recommendation), html.EscapeString(displaySymbol(c)), e.Risk, e.Recommendation,
			FormatUSD(c.Price)))
	}

	if len(rep.Skipped) > 0 {
		b.WriteString("\n⚠️ <b>Skipped:</b>\n")
		for _, s := range rep.Skipped {
			b.WriteString(fmt.Sprintf("  %s: %s\n", html.EscapeString(s.ID), html.EscapeString(s.Reason)))
		}
	}
	return b.String()
}

// FormatCoinDetail formats the per-factor breakdown of one coin.
func FormatCoinDetail(c model.CoinResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b> | risk %.1f | %s\n\n",
		icon(c.Recommendation), html.EscapeString(displaySymbol(c)), c.Risk, c.Recommendation))
	b.WriteString(fmt.Sprintf("Price: %s | Cap: %s\n\n", FormatUSD(c.Price), FormatCap(c.MarketCap)))

	b.WriteString("📈 <b>Factors:</b>\n")
	for _, f := range c.Factors {
		b.WriteString(fmt.Sprintf("  %s(%s): %.0f (×%.2f) = %.1f\n",
			f.Name, html.EscapeString(f.Commentary), f.RawScore, f.Weight, f.Weighted))
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("  Composite: %.1f\n", c.Risk))

	if len(c.Indicators.Warnings) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %s\n", html.EscapeString(strings.Join(c.Indicators.Warnings, "; "))))
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "Commands:\n• /report  latest portfolio report\n• /coin &lt;id&gt;  factor breakdown\n• /run  collect and analyze now"
}
