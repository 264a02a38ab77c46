// Package tui renders update plans and results for the console.
package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const markdownWidth = 100

var (
	// Style colors
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	success   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warning   = lipgloss.AdaptiveColor{Light: "#FFA500", Dark: "#FFB347"}
	errorClr  = lipgloss.AdaptiveColor{Light: "#FF5555", Dark: "#FF6666"}
	dim       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	successStyle = lipgloss.NewStyle().Foreground(success)
	warningStyle = lipgloss.NewStyle().Foreground(warning)
	errorStyle   = lipgloss.NewStyle().Foreground(errorClr).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(dim)
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// UpdatePlan is the SDK update about to be applied.
type UpdatePlan struct {
	Channel        string
	CurrentVersion string
	LatestVersion  string
	CurrentRuntime string
	LatestRuntime  string
	SecurityIssues []string
}

// RenderUpdatePlan renders the update plan with colors.
func RenderUpdatePlan(plan UpdatePlan) string {
	if !isTerminal() {
		return renderUpdatePlanPlain(plan)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("📦 .NET %s", plan.Channel)) + "\n")
	b.WriteString("   ")
	b.WriteString(dimStyle.Render("SDK:     "))
	b.WriteString(boldStyle.Render(plan.CurrentVersion))
	b.WriteString(" → ")
	b.WriteString(successStyle.Render(plan.LatestVersion))
	b.WriteString("\n")

	if plan.CurrentRuntime != plan.LatestRuntime {
		b.WriteString("   ")
		b.WriteString(dimStyle.Render("Runtime: "))
		b.WriteString(boldStyle.Render(plan.CurrentRuntime))
		b.WriteString(" → ")
		b.WriteString(successStyle.Render(plan.LatestRuntime))
		b.WriteString("\n")
	}

	if len(plan.SecurityIssues) > 0 {
		b.WriteString("   ")
		b.WriteString(dimStyle.Render("Fixes:   "))
		b.WriteString(warningStyle.Render(strings.Join(plan.SecurityIssues, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

func renderUpdatePlanPlain(plan UpdatePlan) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Updating .NET SDK: %s -> %s", plan.CurrentVersion, plan.LatestVersion))
	if plan.CurrentRuntime != plan.LatestRuntime {
		b.WriteString(fmt.Sprintf(" (runtime %s -> %s)", plan.CurrentRuntime, plan.LatestRuntime))
	}
	b.WriteString("\n")
	if len(plan.SecurityIssues) > 0 {
		b.WriteString(fmt.Sprintf("Security fixes: %s\n", strings.Join(plan.SecurityIssues, ", ")))
	}
	return b.String()
}

// ResultSummary is the outcome of a run to display.
type ResultSummary struct {
	Status         string
	Version        string
	PullRequestURL string
	Superseded     []int
}

const (
	StatusUpdated  = "Updated"
	StatusUpToDate = "Up-to-date"
	StatusExists   = "Exists"
	StatusSkipped  = "Skipped"
)

// RenderResult renders the outcome of a run with colors.
func RenderResult(r ResultSummary) string {
	if !isTerminal() {
		return renderResultPlain(r)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("📋 Summary") + "\n")
	b.WriteString("   ")
	b.WriteString(formatStatusStyled(r.Status))
	b.WriteString(fmt.Sprintf(" %-24s ", r.Version))
	if r.PullRequestURL != "" {
		b.WriteString(dimStyle.Render(r.PullRequestURL))
	}
	b.WriteString("\n")
	if len(r.Superseded) > 0 {
		b.WriteString("   ")
		b.WriteString(dimStyle.Render("Closed: " + formatNumbers(r.Superseded)))
		b.WriteString("\n")
	}
	return b.String()
}

func formatStatusStyled(status string) string {
	switch status {
	case StatusUpdated:
		return successStyle.Render("✓ Updated    ")
	case StatusUpToDate:
		return successStyle.Render("✓ Up-to-date ")
	case StatusExists:
		return warningStyle.Render("○ Exists     ")
	case StatusSkipped:
		return warningStyle.Render("⊘ Skipped    ")
	default:
		return fmt.Sprintf("  %-12s", status)
	}
}

func renderResultPlain(r ResultSummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %-12s %s", getStatusIcon(r.Status), r.Status, r.Version))
	if r.PullRequestURL != "" {
		b.WriteString(" " + r.PullRequestURL)
	}
	b.WriteString("\n")
	if len(r.Superseded) > 0 {
		b.WriteString(fmt.Sprintf("Closed: %s\n", formatNumbers(r.Superseded)))
	}
	return b.String()
}

func getStatusIcon(status string) string {
	switch status {
	case StatusUpdated, StatusUpToDate:
		return "✓"
	case StatusExists:
		return "○"
	case StatusSkipped:
		return "⊘"
	default:
		return " "
	}
}

func formatNumbers(numbers []int) string {
	parts := make([]string, 0, len(numbers))
	for _, n := range numbers {
		parts = append(parts, fmt.Sprintf("#%d", n))
	}
	return strings.Join(parts, ", ")
}

// ErrorInfo contains information about an error to display.
type ErrorInfo struct {
	Title   string
	Message string
	Hint    string
}

// RenderError renders an error message with colors.
func RenderError(info ErrorInfo) string {
	if !isTerminal() {
		return renderErrorPlain(info)
	}

	var b strings.Builder
	b.WriteString(errorStyle.Render("❌ "+info.Title) + "\n")
	b.WriteString("   ")
	b.WriteString(errorStyle.Render("✗ " + info.Message))
	b.WriteString("\n")

	if info.Hint != "" {
		b.WriteString("   ")
		b.WriteString(dimStyle.Render("💡 "+info.Hint) + "\n")
	}
	return b.String()
}

func renderErrorPlain(info ErrorInfo) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Error: %s\n", info.Title))
	b.WriteString(fmt.Sprintf("  %s\n", info.Message))
	if info.Hint != "" {
		b.WriteString(fmt.Sprintf("  Hint: %s\n", info.Hint))
	}
	return b.String()
}

// RenderMarkdown renders markdown for a terminal, or returns it unchanged otherwise.
func RenderMarkdown(markdown string) string {
	if !isTerminal() {
		return markdown
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(markdownWidth),
	)
	if err != nil {
		return markdown
	}

	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

// isTerminal checks if stdout or stderr is a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) || term.IsTerminal(int(os.Stderr.Fd()))
}
