package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"SwingSentinel/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// FormatPrice renders a price with two decimals and thousands separators.
func FormatPrice(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

func describe(sig *model.Signal) (emoji, action, description string) {
	if sig.Direction == model.DirectionUp {
		return "🟢", "BULLISH BREAKOUT",
			fmt.Sprintf("Price broke above swing HIGH (%s)", FormatPrice(sig.TriggerLevel))
	}
	return "🔴", "BEARISH BREAKDOWN",
		fmt.Sprintf("Price broke below swing LOW (%s)", FormatPrice(sig.TriggerLevel))
}

func levelText(d decimal.Decimal, date string, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%s (%s)", FormatPrice(d), date)
}

// FormatSignalAlert formats a signal into a Telegram HTML message.
func FormatSignalAlert(symbol string, sig *model.Signal) string {
	emoji, action, description := describe(sig)
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> | %s\n\n", emoji, html.EscapeString(symbol), sig.Direction.Action(), action))
	b.WriteString(fmt.Sprintf("Price: <b>%s</b>\n", FormatPrice(sig.Price)))
	b.WriteString(fmt.Sprintf("Trigger: %s\n", FormatPrice(sig.TriggerLevel)))
	b.WriteString(fmt.Sprintf("Swing high: %s\n", levelText(sig.Levels.High, sig.Levels.HighDate, sig.Levels.HasHigh)))
	b.WriteString(fmt.Sprintf("Swing low: %s\n", levelText(sig.Levels.Low, sig.Levels.LowDate, sig.Levels.HasLow)))
	b.WriteString(fmt.Sprintf("Time: %s\n\n", sig.Timestamp.Format(timeLayout)))
	b.WriteString(description)
	return b.String()
}

// FormatSignalEmail returns the subject, plain text and HTML bodies of an alert email.
func FormatSignalEmail(symbol string, sig *model.Signal) (subject, text, htmlBody string) {
	emoji, action, description := describe(sig)
	color := "#dc3545"
	if sig.Direction == model.DirectionUp {
		color = "#28a745"
	}
	act := sig.Direction.Action()
	subject = fmt.Sprintf("🚨 %s %s Signal Alert!", symbol, act)

	rows := [][2]string{
		{"Current Price", FormatPrice(sig.Price)},
		{"Trigger Level", FormatPrice(sig.TriggerLevel)},
		{"Swing High", levelText(sig.Levels.High, sig.Levels.HighDate, sig.Levels.HasHigh)},
		{"Swing Low", levelText(sig.Levels.Low, sig.Levels.LowDate, sig.Levels.HasLow)},
		{"Signal Time", sig.Timestamp.Format(timeLayout)},
	}

	var t strings.Builder
	t.WriteString(fmt.Sprintf("%s %s Signal Alert!\n\n%s\n\n", symbol, act, action))
	for _, r := range rows {
		t.WriteString(fmt.Sprintf("%s: %s\n", r[0], r[1]))
	}
	t.WriteString("\n" + description + "\n\n---\nAutomated alert from SwingSentinel.\nAlways do your own analysis before trading.\n")

	var h strings.Builder
	h.WriteString(`<html><body style="font-family: Arial, sans-serif; padding: 20px;">`)
	h.WriteString(fmt.Sprintf(`<div style="max-width: 600px; margin: 0 auto; border: 2px solid %s; border-radius: 10px; padding: 20px;">`, color))
	h.WriteString(fmt.Sprintf(`<h1 style="color: %s; text-align: center;">%s %s %s Signal %s</h1>`, color, emoji, html.EscapeString(symbol), act, emoji))
	h.WriteString(fmt.Sprintf(`<div style="background-color: %s; color: white; padding: 15px; text-align: center;"><h2 style="margin: 0;">%s</h2></div>`, color, action))
	h.WriteString(`<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">`)
	for _, r := range rows {
		h.WriteString(fmt.Sprintf(`<tr><td style="padding: 10px; border: 1px solid #dee2e6;"><strong>%s</strong></td><td style="padding: 10px; border: 1px solid #dee2e6;">%s</td></tr>`, r[0], r[1]))
	}
	h.WriteString(`</table>`)
	h.WriteString(fmt.Sprintf(`<p style="color: #666; text-align: center;">%s</p>`, description))
	h.WriteString(`<p style="color: #999; font-size: 12px; text-align: center;">Automated alert from SwingSentinel.<br>Always do your own analysis before trading.</p>`)
	h.WriteString(`</div></body></html>`)

	return subject, t.String(), h.String()
}

// FormatStatus formats the market status for a chat reply.
func FormatStatus(symbol string, st model.MarketStatus, lastScan time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s status</b>\n\n", html.EscapeString(symbol)))
	b.WriteString(fmt.Sprintf("Status: %s\n", st.Status))
	if st.Status == model.StatusNoData {
		b.WriteString("Levels not loaded yet.\n")
	} else {
		b.WriteString(fmt.Sprintf("Price: %s\n", FormatPrice(st.CurrentPrice)))
		if st.HighDate != "" {
			b.WriteString(fmt.Sprintf("Swing high: %s (%s) Δ %s\n",
				FormatPrice(st.High), st.HighDate, FormatPrice(st.DistanceToHigh)))
		}
		if st.LowDate != "" {
			b.WriteString(fmt.Sprintf("Swing low: %s (%s) Δ %s\n",
				FormatPrice(st.Low), st.LowDate, FormatPrice(st.DistanceToLow)))
		}
		b.WriteString(fmt.Sprintf("Signal active: %s\n", st.SignalActive))
	}
	if !lastScan.IsZero() {
		b.WriteString(fmt.Sprintf("Last scan: %s\n", lastScan.Format(timeLayout)))
	}
	return b.String()
}

// FormatSignalList formats recent signals, oldest first.
func FormatSignalList(symbol string, signals []model.Signal) string {
	if len(signals) == 0 {
		return fmt.Sprintf("No signals for %s yet.", html.EscapeString(symbol))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📜 <b>%s signals</b> (%d)\n\n", html.EscapeString(symbol), len(signals)))
	for _, s := range signals {
		emoji, _, _ := describe(&s)
		b.WriteString(fmt.Sprintf("%s %s %s @ %s (trigger %s)\n",
			emoji, s.Timestamp.Format("01-02 15:04"), s.Direction.Action(),
			FormatPrice(s.Price), FormatPrice(s.TriggerLevel)))
	}
	return b.String()
}
