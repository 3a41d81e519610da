package notifier

import (
	"bytes"
	"html/template"

	"CryptoSentinel/internal/model"
)

var summaryTemplate = template.Must(template.New("summary").Funcs(template.FuncMap{
	"usd":  FormatUSD,
	"cap":  FormatCap,
	"inc":  func(i int) int { return i + 1 },
	"icon": icon,
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>CryptoSentinel summary {{.Date}}</title></head>
<body style="font-family: sans-serif">
<h2>Crypto risk summary, {{.Date}}</h2>
<p><b>Overall: {{icon .Portfolio.Recommendation}} {{.Portfolio.Recommendation}}</b>
 (portfolio risk {{printf "%.1f" .Portfolio.Risk}}, {{.Portfolio.Weighting}} weighting)</p>
{{- with .Global}}
<p>Fear &amp; Greed {{.FearGreed}} ({{.FearGreedLabel}}), BTC dominance {{printf "%.1f" .BTCDominance}}%, total cap {{cap .TotalMarketCap}}</p>
{{- end}}
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>#</th><th>Coin</th><th>Risk</th><th>Recommendation</th><th>Price</th><th>Market cap</th></tr>
{{- range $i, $row := .Rows}}
<tr><td>{{inc $i}}</td><td>{{$row.Symbol}}</td><td>{{printf "%.1f" $row.Risk}}</td><td>{{$row.Recommendation}}</td><td>{{usd $row.Price}}</td><td>{{cap $row.MarketCap}}</td></tr>
{{- end}}
</table>
{{- if .Skipped}}
<p>Skipped:</p>
<ul>
{{- range .Skipped}}
<li>{{.ID}}: {{.Reason}}</li>
{{- end}}
</ul>
{{- end}}
<p style="color: #888">Run {{.RunID}}. Not financial advice.</p>
</body>
</html>
`))

type summaryRow struct {
	Symbol         string
	Risk           float64
	Recommendation model.Recommendation
	Price          float64
	MarketCap      float64
}

// RenderHTMLSummary renders the email summary: overall verdict and the coins
// ranked from lowest to highest risk.
func RenderHTMLSummary(run *model.Run) ([]byte, error) {
	rep := run.Report
	rows := make([]summaryRow, 0, len(rep.Portfolio.Ranking))
	for _, e := range rep.Portfolio.Ranking {
		c := rep.Coins[e.ID]
		rows = append(rows, summaryRow{
			Symbol:         displaySymbol(c),
			Risk:           e.Risk,
			Recommendation: e.Recommendation,
			Price:          c.Price,
			MarketCap:      c.MarketCap,
		})
	}

	var buf bytes.Buffer
	err := summaryTemplate.Execute(&buf, struct {
		Date      string
		RunID     string
		Portfolio model.PortfolioSummary
		Global    *model.GlobalMetrics
		Rows      []summaryRow
		Skipped   []model.SkippedCoin
	}{
		Date:      run.GeneratedAt.Format("2006-01-02"),
		RunID:     run.ID,
		Portfolio: rep.Portfolio,
		Global:    rep.Global,
		Rows:      rows,
		Skipped:   rep.Skipped,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
