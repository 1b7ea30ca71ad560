package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"leomaster/models"
)

const reportWidth = 55

// WriteInsightReport formats the insight report for a terminal. Numbers
// use tag's separators; styling is dropped when w is not a terminal.
func WriteInsightReport(w io.Writer, report *models.InsightReport, tag language.Tag) error {
	p := message.NewPrinter(tag)
	r := lipgloss.NewRenderer(w)

	titleStyle := r.NewStyle().Bold(true).Width(reportWidth).Align(lipgloss.Center).
		Border(lipgloss.DoubleBorder())
	headerStyle := r.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle := r.NewStyle().Foreground(lipgloss.Color("245")).Width(24)
	thin := strings.Repeat("─", reportWidth)

	var b strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&b, "  %s: %s\n", labelStyle.Render(label), value)
	}
	section := func(title string) {
		fmt.Fprintf(&b, "\n %s\n%s\n", headerStyle.Render(title), thin)
	}

	b.WriteString(titleStyle.Render("MASTERCLASS GALLERY INSIGHTS"))
	b.WriteString("\n")

	section("OVERVIEW")
	row("Masterclasses", p.Sprintf("%d", report.TotalMasterclasses))
	row("With free seats", p.Sprintf("%d", report.Available))
	row("Sold out", p.Sprintf("%d", report.SoldOut))
	row("On a weekend", p.Sprintf("%d", report.OnWeekend))
	row("Average price", p.Sprintf("%.2f", report.AveragePrice))
	row("Minimum price", p.Sprintf("%.2f", report.MinPrice))
	row("Maximum price", p.Sprintf("%.2f", report.MaxPrice))

	if mc := report.MostExpensive; mc != nil {
		section("MOST EXPENSIVE")
		row("Title", mc.Title)
		row("Price", p.Sprintf("%.2f", mc.OnlinePrice.Float()))
		row("Location", mc.Location)
		row("Master", mc.Master)
	}

	if len(report.ByLocation) > 0 {
		section("MASTERCLASSES PER LOCATION")
		type locCount struct {
			loc   string
			count int
		}
		locs := make([]locCount, 0, len(report.ByLocation))
		for loc, cnt := range report.ByLocation {
			locs = append(locs, locCount{loc, cnt})
		}
		sort.Slice(locs, func(i, j int) bool {
			if locs[i].count != locs[j].count {
				return locs[i].count > locs[j].count
			}
			return locs[i].loc < locs[j].loc
		})
		for _, lc := range locs {
			fmt.Fprintf(&b, "  %-25s %3d  %s\n", truncate(lc.loc, 24)+":", lc.count, strings.Repeat("▓", lc.count))
		}
	}

	if len(report.MostComplex) > 0 {
		section(fmt.Sprintf("TOP %d MOST COMPLEX", len(report.MostComplex)))
		for i, mc := range report.MostComplex {
			fmt.Fprintf(&b, "  %d. %-35s %d/%d\n", i+1, truncate(mc.Title, 35), mc.Complexity, mc.MaxComplexity)
		}
	}

	fmt.Fprintf(&b, "\n%s\n\n", strings.Repeat("═", reportWidth))

	_, err := io.WriteString(w, b.String())
	return err
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
