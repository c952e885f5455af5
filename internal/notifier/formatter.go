package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"GridSentinel/internal/model"
)

const timeLayout = "2006-01-02 15:04 MST"

// FormatCycleReport formats the outcome of one trading cycle into a Telegram message.
func FormatCycleReport(r *model.CycleReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>GridSentinel</b> | %s %s | %s\n\n",
		r.Symbol, r.Timeframe, r.StartedAt.Format(timeLayout)))

	if r.Err != nil {
		b.WriteString(fmt.Sprintf("⚠️ <b>Cycle failed:</b> %s\n", html.EscapeString(r.Err.Error())))
		if r.Evaluated == 0 {
			return b.String()
		}
		b.WriteString("\n")
	}

	// Search
	b.WriteString("🔎 <b>Parameter search:</b>\n")
	b.WriteString(fmt.Sprintf("  Evaluated: %d (viable %d)\n", r.Evaluated, r.Viable))
	if r.Viable > 0 {
		b.WriteString(fmt.Sprintf("  Best: %s\n", r.Best.Params))
		b.WriteString(fmt.Sprintf("  Backtest return: %+.2f%%\n", r.Best.CumulativeReturn*100))
	}
	if r.Err != nil {
		return b.String()
	}

	// Indicators
	b.WriteString("\n📈 <b>Latest bar:</b>\n")
	b.WriteString(fmt.Sprintf("  Close: %s\n", formatPrice(r.LatestClose)))
	b.WriteString(fmt.Sprintf("  MA(%d): %s\n", r.Best.Params.MAPeriod, formatPrice(r.LatestMA)))
	b.WriteString(fmt.Sprintf("  RSI(%d): %.2f (Wilder %.2f)\n", r.Best.Params.RSIPeriod, r.LatestRSI, r.WilderRSI))

	// Action
	b.WriteString(fmt.Sprintf("\n💰 <b>Signal:</b> %s\n", r.Signal))
	if o := r.Order; o != nil {
		mode := "live"
		if o.DryRun {
			mode = "paper"
		}
		b.WriteString(fmt.Sprintf("   %s %s %s @ %s (%s, %s)\n",
			o.Side, o.Quantity, o.Symbol, formatPrice(o.Price), o.Status, mode))
	}
	return b.String()
}

// FormatStatus formats the last cycle for the /status command.
func FormatStatus(r *model.CycleReport, next time.Time) string {
	if r == nil {
		return "⏳ No cycle has completed yet."
	}
	var b strings.Builder
	b.WriteString("📦 <b>Status</b>\n\n")
	b.WriteString(fmt.Sprintf("Market: %s %s\n", r.Symbol, r.Timeframe))
	b.WriteString(fmt.Sprintf("Last cycle: %s (%s)\n", r.StartedAt.Format(timeLayout), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond)))
	if r.Err != nil {
		b.WriteString(fmt.Sprintf("Result: failed, %s\n", html.EscapeString(r.Err.Error())))
	} else {
		b.WriteString(fmt.Sprintf("Result: %s at %s\n", r.Signal, formatPrice(r.LatestClose)))
	}
	if !next.IsZero() {
		b.WriteString(fmt.Sprintf("Next cycle: %s\n", next.Format(timeLayout)))
	}
	return b.String()
}

// FormatParams formats the best parameters of the last cycle for the /params command.
func FormatParams(r *model.CycleReport) string {
	if r == nil || r.Viable == 0 {
		return "⏳ No parameters selected yet."
	}
	p := r.Best.Params
	var b strings.Builder
	b.WriteString("⚙️ <b>Best parameters</b>\n\n")
	b.WriteString(fmt.Sprintf("RSI period: %d\n", p.RSIPeriod))
	b.WriteString(fmt.Sprintf("MA period: %d\n", p.MAPeriod))
	b.WriteString(fmt.Sprintf("Oversold: %.0f\n", p.RSIOversold))
	b.WriteString(fmt.Sprintf("Overbought: %.0f\n", p.RSIOverbought))
	b.WriteString(fmt.Sprintf("Backtest return: %+.2f%%\n", r.Best.CumulativeReturn*100))
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "/status - last cycle\n/params - best parameters\n/run - run a cycle now"
}

func formatPrice(p float64) string {
	if p == 0 {
		return "-"
	}
	return fmt.Sprintf("%.6g", p)
}
