package notifier

import (
	"fmt"
	"html"
	"strings"

	"MarketScreener/internal/model"
	"MarketScreener/internal/recorder"
	"MarketScreener/internal/screener"
)

// FormatDigest formats the top results of a screening run into a Telegram message.
func FormatDigest(run *screener.Run, top int) string {
	var b strings.Builder

	title := run.Preset
	if title == "" {
		title = "custom filter"
	}
	b.WriteString(fmt.Sprintf("📊 <b>Screen: %s</b> | %s\n", html.EscapeString(title), run.StartedAt.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Scanned %d · matched %d · skipped %d\n\n", run.Scanned, run.TotalCount, len(run.Skipped)))

	if len(run.Results) == 0 {
		b.WriteString("No symbols matched.\n")
		return b.String()
	}
	results := run.Results
	if top > 0 && len(results) > top {
		results = results[:top]
	}
	for i, r := range results {
		ind := r.Indicators
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> %s  score %d\n", i+1, html.EscapeString(r.Symbol), formatPrice(r.Price), r.Score))
		b.WriteString(fmt.Sprintf("   RSI %s · ADR %s%% · MA200 %s\n",
			formatValue(ind.RSI14, 0), formatValue(ind.ADR20, 1), formatDistance(ind.DistanceMA200)))
	}
	return b.String()
}

// FormatLatestRun formats a stored run for the /top command.
func FormatLatestRun(rec *recorder.RunRecord, top int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Latest run</b> %s | %s\n", html.EscapeString(rec.Preset), rec.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Scanned %d · matched %d\n\n", rec.Scanned, rec.Matched))
	for i, r := range rec.Results {
		if top > 0 && i >= top {
			break
		}
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> %s  score %d  RSI %s\n",
			r.Rank, html.EscapeString(r.Symbol), formatPrice(r.Price), r.Score, formatValue(r.RSI14, 0)))
	}
	if len(rec.Results) == 0 {
		b.WriteString("No symbols matched.\n")
	}
	return b.String()
}

// FormatLookup formats a single-stock report.
func FormatLookup(r *screener.Report) string {
	var b strings.Builder
	ind := r.Indicators

	b.WriteString(fmt.Sprintf("🔎 <b>%s</b> %s\n", html.EscapeString(r.Symbol), html.EscapeString(r.Name)))
	if r.Sector != "" {
		b.WriteString(html.EscapeString(r.Sector) + "\n")
	}
	b.WriteString(fmt.Sprintf("\nPrice: %s (%s%%)\n", formatPrice(r.Price), formatSigned(r.Change1D)))
	b.WriteString(fmt.Sprintf("MA50: %s · MA200: %s (%s)\n", formatValue(ind.MA50, 2), formatValue(ind.MA200, 2), formatDistance(ind.DistanceMA200)))
	b.WriteString(fmt.Sprintf("RSI14: %s · ADR20: %s%%\n", formatValue(ind.RSI14, 1), formatValue(ind.ADR20, 2)))
	b.WriteString(fmt.Sprintf("52w: %s – %s\n", formatValue(ind.Week52Low, 2), formatValue(ind.Week52High, 2)))
	if ind.PerfectOrderBullish {
		b.WriteString("Perfect order ✅\n")
	}

	b.WriteString(fmt.Sprintf("\n📈 <b>Score %d/100</b>\n", r.Score))
	for _, f := range r.Factors {
		b.WriteString(fmt.Sprintf("  %s: %d/%d\n", f.Name, f.Points, f.MaxPoints))
	}

	d := r.Decision
	b.WriteString(fmt.Sprintf("\n💡 <b>%s</b> (confidence %d%%)\n", d.Action, d.Confidence))
	for _, reason := range d.Reasons {
		b.WriteString("  • " + html.EscapeString(reason) + "\n")
	}
	if p := r.PriceLevels; p != nil {
		b.WriteString(fmt.Sprintf("\nEntry %.2f / %.2f · stop %.2f\n", p.EntryOptimal, p.EntryAccept, p.StopLoss))
		targets := make([]string, len(p.ProfitTargets))
		for i, t := range p.ProfitTargets {
			targets[i] = fmt.Sprintf("%.2f", t)
		}
		b.WriteString("Targets " + strings.Join(targets, " / ") + "\n")
	}
	return b.String()
}

// FormatPresets lists the available presets for /screen.
func FormatPresets(presets []screener.Preset) string {
	var b strings.Builder
	b.WriteString("<b>Presets</b>\n")
	for _, p := range presets {
		b.WriteString(fmt.Sprintf("  <code>%s</code> %s\n", p.ID, html.EscapeString(p.Description)))
	}
	return b.String()
}

// HelpText is the reply to /help and unknown commands.
const HelpText = `<b>Commands</b>
/top - latest daily screen
/lookup SYMBOL - analyze one stock
/screen PRESET - run a preset now
/presets - list presets
/help - this message`

func formatPrice(p float64) string { return fmt.Sprintf("$%.2f", p) }

func formatValue(v model.Value, prec int) string {
	f, ok := v.Get()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, f)
}

func formatSigned(v model.Value) string {
	f, ok := v.Get()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f", f)
}

func formatDistance(v model.Value) string {
	f, ok := v.Get()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", f)
}
