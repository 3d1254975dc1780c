package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yanqian/astro-daily/internal/domain/chat"
	"github.com/yanqian/astro-daily/internal/domain/profile"
	"github.com/yanqian/astro-daily/internal/domain/reading"
	"github.com/yanqian/astro-daily/internal/domain/zodiac"
)

// DefaultWidth is the bar chart width used when the terminal width is unknown.
const DefaultWidth = 40

const barRune = "█"

// Reading renders the daily reading card followed by its elemental balance chart.
func Reading(res reading.Result, width int) string {
	r := res.Reading
	sign := lipgloss.NewStyle().Foreground(lipgloss.Color(zodiac.SignColor(r.Zodiac))).Bold(true)

	lines := []string{
		titleStyle.Render("Your Daily Reading") + "  " + mutedStyle.Render(r.Date),
		"",
		"Year animal  " + sign.Render(r.Zodiac) + mutedStyle.Render(" ("+zodiac.Traits(r.Zodiac)+")"),
	}
	if r.HourZodiac != "" {
		lines = append(lines, "Hour animal  "+textStyle.Render(r.HourZodiac))
	}
	dominant := lipgloss.NewStyle().Foreground(lipgloss.Color(zodiac.ElementColor(r.DominantElement)))
	lines = append(lines,
		fmt.Sprintf("Dominant     %s %s", dominant.Render(r.DominantElement), mutedStyle.Render(formatPercent(r.ElementPercent))),
		"",
		textStyle.Width(width+12).Render(r.Reading),
		"",
		titleStyle.Render("Elemental Balance"),
		Chart(r.Chart(), width),
	)
	if res.Advisory != "" {
		lines = append(lines, "", advisoryStyle.Render(res.Advisory))
	}
	if res.LastUpdate != "" {
		lines = append(lines, mutedStyle.Render("Last updated "+localStamp(res.LastUpdate)))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// Chart renders one coloured bar per element.
func Chart(segments []zodiac.Segment, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	rows := make([]string, 0, len(segments))
	for _, seg := range segments {
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(seg.Color)).
			Render(strings.Repeat(barRune, barLength(seg.Percent, width)))
		rows = append(rows, fmt.Sprintf("%-6s %s %s", seg.Element, bar, mutedStyle.Render(formatPercent(seg.Percent))))
	}
	return strings.Join(rows, "\n")
}

// Message renders one chat entry.
func Message(m chat.Message) string {
	label := astroLabel
	body := textStyle.Render(m.Text)
	switch {
	case m.IsUser:
		label = userLabel
	case m.IsError:
		label = errorLabel
		body = errorStyle.Render(m.Text)
	}
	out := fmt.Sprintf("%s %s %s\n%s", label, mutedStyle.Render("·"), mutedStyle.Render(m.Timestamp.Local().Format("15:04")), body)
	if m.Debug != "" {
		out += "\n" + mutedStyle.Render("Debug Info:\n"+m.Debug)
	}
	return out
}

// Profile renders the stored birth profile.
func Profile(p profile.UserProfile) string {
	lines := []string{
		titleStyle.Render("Birth Profile"),
		fmt.Sprintf("Born         %04d-%02d-%02d", p.BirthYear, p.BirthMonth, p.BirthDay),
	}
	if p.BirthTime != nil {
		lines = append(lines, fmt.Sprintf("Time         %02d:%02d", p.BirthTime.Hour, p.BirthTime.Minute))
	}
	if p.Gender != "" {
		lines = append(lines, "Gender       "+string(p.Gender))
	}
	if p.BirthPlace != "" {
		lines = append(lines, "Place        "+p.BirthPlace)
	}
	if p.RelationshipStatus != "" {
		lines = append(lines, "Status       "+string(p.RelationshipStatus))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// Zodiac renders a sign lookup.
func Zodiac(year int, hour *int) string {
	sign := zodiac.Sign(year)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(zodiac.SignColor(sign))).Bold(true)
	lines := []string{
		fmt.Sprintf("%d  %s %s", year, style.Render(sign), mutedStyle.Render("("+zodiac.Traits(sign)+")")),
		"Element      " + string(zodiac.YearElement(year)),
	}
	if hour != nil {
		if hs := zodiac.HourSign(*hour); hs != "" {
			lines = append(lines, fmt.Sprintf("Hour %02d      %s %s", *hour, hs, mutedStyle.Render("("+zodiac.Traits(hs)+")")))
		}
	}
	return strings.Join(lines, "\n")
}

func barLength(percent float64, width int) int {
	if percent <= 0 {
		return 0
	}
	if percent >= 100 {
		return width
	}
	n := int(math.Round(percent * float64(width) / 100))
	if n == 0 {
		n = 1
	}
	return n
}

func formatPercent(p float64) string {
	if p == math.Trunc(p) {
		return fmt.Sprintf("%d%%", int(p))
	}
	return fmt.Sprintf("%.1f%%", p)
}

func localStamp(ts string) string {
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return parsed.Local().Format("2006-01-02 15:04")
}
