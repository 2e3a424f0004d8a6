// Package report renders run summaries and archive queries for the console.
// Styling degrades to plain text when stdout is not a terminal, so cron logs
// stay readable.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/levelo-marseille/levelo-etl/model"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00BFFF"))
	labelStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6C757D"))
	criticalStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD93D"))
	goodStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCF7F"))
	excellentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
)

// displayStyle picks the accent for a display classification.
func displayStyle(label string) lipgloss.Style {
	switch label {
	case model.DisplayCritical:
		return criticalStyle
	case model.DisplayWarning:
		return warningStyle
	case model.DisplayGood:
		return goodStyle
	case model.DisplayExcellent:
		return excellentStyle
	default:
		return mutedStyle
	}
}

// displayOrder fixes how classification counts are listed.
var displayOrder = []string{
	model.DisplayCritical,
	model.DisplayWarning,
	model.DisplayGood,
	model.DisplayExcellent,
}

// RenderSummary renders the statistics block printed after a collection run.
func RenderSummary(s *model.RunSummary) string {
	var lines []string

	lines = append(lines, titleStyle.Render("Le Vélo Marseille: collection summary"))
	lines = append(lines, fmt.Sprintf("%s %d processed, %d skipped",
		labelStyle.Render("Stations:"), s.Processed, len(s.Skipped)))
	if n := s.SkippedBy(model.SkipMissingInfo); n > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %d without station information", n)))
	}
	if n := s.SkippedBy(model.SkipEmptyID); n > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %d with an empty identifier", n)))
	}
	lines = append(lines, fmt.Sprintf("%s %d/%d",
		labelStyle.Render("Bikes available:"), s.TotalBikes, s.TotalCapacity))

	for _, label := range displayOrder {
		lines = append(lines, fmt.Sprintf("  %s %d",
			displayStyle(label).Render(label+":"), s.ByDisplay[label]))
	}

	if s.ExportErr != nil {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("Snapshot export failed (non-fatal): %v", s.ExportErr)))
	} else if s.ExportPath != "" {
		lines = append(lines, mutedStyle.Render("Snapshot: "+s.ExportPath))
	}
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("Completed in %s", s.Duration.Round(time.Millisecond))))

	return strings.Join(lines, "\n")
}

// RenderStats renders the latest-run fleet overview.
func RenderStats(stats model.QueryStat) string {
	var lines []string

	lines = append(lines, titleStyle.Render("Le Vélo Marseille: latest run"))
	lines = append(lines, fmt.Sprintf("%s %v", labelStyle.Render("Stations:"), stats["stations"]))
	lines = append(lines, fmt.Sprintf("%s %v/%v",
		labelStyle.Render("Bikes available:"), stats["bikes"], stats["capacity"]))
	lines = append(lines, fmt.Sprintf("%s %v",
		labelStyle.Render("Average availability:"), stats["avg_rate"]))

	for _, label := range displayOrder {
		lines = append(lines, fmt.Sprintf("  %s %v",
			displayStyle(label).Render(label+":"), stats[label]))
	}

	return strings.Join(lines, "\n")
}

// RenderCritical renders the latest run's critical station list.
func RenderCritical(records []model.StationRecord) string {
	if len(records) == 0 {
		return goodStyle.Render("No critical stations in the latest run")
	}

	var lines []string
	lines = append(lines, titleStyle.Render(fmt.Sprintf("Critical stations (%d)", len(records))))
	for i, r := range records {
		lines = append(lines, fmt.Sprintf("%2d. %s: %d/%d bikes (%.1f%%), %s",
			i+1, r.Name, r.BikesAvailable, r.Capacity, r.AvailabilityRate, r.Zone))
	}

	return strings.Join(lines, "\n")
}

// RenderZones renders the per-zone breakdown table. Rows stay unstyled so the
// column widths line up.
func RenderZones(zones []model.QueryStat) string {
	var lines []string

	lines = append(lines, titleStyle.Render("Zone breakdown"))
	lines = append(lines, labelStyle.Render(
		fmt.Sprintf("%-20s %10s %10s %10s %10s", "Zone", "Stations", "Bikes", "Capacity", "Avg rate")))
	for _, z := range zones {
		lines = append(lines, fmt.Sprintf("%-20s %10v %10v %10v %9v%%",
			z["zone"], z["stations"], z["bikes"], z["capacity"], z["avg_rate"]))
	}

	return strings.Join(lines, "\n")
}
