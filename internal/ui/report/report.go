// Package report renders grading results and schedule state for the
// terminal.
package report

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathverify/internal/grading"
	"github.com/abhisek/mathverify/internal/mastery"
	"github.com/abhisek/mathverify/internal/spacedrep"
	"github.com/abhisek/mathverify/internal/ui/components"
	"github.com/abhisek/mathverify/internal/ui/theme"
)

// DefaultWidth is the render width used when the terminal size is unknown.
const DefaultWidth = 60

// VerdictStyle returns the style for a verdict badge.
func VerdictStyle(v grading.Verdict) lipgloss.Style {
	switch v {
	case grading.VerdictCorrect:
		return theme.Correct
	case grading.VerdictPartial:
		return theme.Partial
	case grading.VerdictError:
		return theme.Retry
	default:
		return theme.Incorrect
	}
}

// verdictLabel names a verdict for learners. An error verdict is a request
// to retry, never a judgement on the answer.
func verdictLabel(v grading.Verdict) string {
	switch v {
	case grading.VerdictCorrect:
		return "CORRECT"
	case grading.VerdictPartial:
		return "PARTIALLY CORRECT"
	case grading.VerdictError:
		return "PLEASE RETRY"
	default:
		return "INCORRECT"
	}
}

// Result renders a graded exercise.
func Result(res *grading.Result, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	var b strings.Builder

	b.WriteString(VerdictStyle(res.Verdict).Render(verdictLabel(res.Verdict)))
	b.WriteString("\n")

	if res.Verdict != grading.VerdictError && res.Total > 0 {
		bar := components.NewProgressBar("Score", res.CorrectCount/float64(res.Total), width-6)
		bar.Caption = fmt.Sprintf("%s / %d", formatCount(res.CorrectCount), res.Total)
		b.WriteString(bar.View())
		b.WriteString("\n")
	}

	for _, it := range res.PerItem {
		b.WriteString("\n")
		b.WriteString(itemLine(res.Verdict, it))
	}
	if len(res.PerItem) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.Body.Render(res.Feedback))
	return theme.Card.Width(width).Render(b.String())
}

func itemLine(verdict grading.Verdict, it grading.ItemOutcome) string {
	var mark string
	switch {
	case it.Outcome.OK:
		mark = theme.Correct.Render("✓")
	case it.Outcome.Systemic():
		mark = theme.Retry.Render("?")
	case it.Credit > 0:
		mark = theme.Partial.Render("~")
	default:
		mark = theme.Incorrect.Render("✗")
	}

	kind := string(it.Kind)
	if kind == "" {
		kind = "unverifiable"
	}
	line := fmt.Sprintf("%s %s  %s", mark, it.ItemID, theme.Hint.Render(kind))

	switch {
	case it.Outcome.Systemic():
		line += "  " + theme.Hint.Render(it.Outcome.ErrorTag)
	case verdict != grading.VerdictError && !it.Outcome.OK && it.Credit > 0:
		line += "  " + theme.Partial.Render(fmt.Sprintf("+%s", formatCount(it.Credit)))
	}
	if it.Note != "" {
		line += "\n    " + theme.Hint.Render(it.Note)
	}
	return line
}

// Gate renders the outcome of a mastery gate call.
func Gate(r mastery.Result) string {
	label := theme.Label.Render("Schedule")
	switch r.Status {
	case mastery.StatusUpdated:
		msg := "updated"
		if r.Record != nil {
			msg = fmt.Sprintf("updated, next review %s (in %d days)",
				r.Record.NextReviewAt.Local().Format("2006-01-02"), r.Record.IntervalDays)
		}
		return label + theme.Correct.Render(msg)
	case mastery.StatusSkipped:
		return label + theme.Hint.Render("unchanged: "+r.Reason)
	default:
		return label + theme.Incorrect.Render("not updated: "+r.Reason)
	}
}

// Reviews renders schedule rows as a table.
func Reviews(reviews []*spacedrep.ReviewState, now time.Time) string {
	if len(reviews) == 0 {
		return theme.Hint.Render("No schedules recorded yet.")
	}
	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("%-12s  %-20s  %-5s  %-10s  %s",
		"User", "Subject", "Stage", "Next", "Status")))
	for _, rs := range reviews {
		status := rs.Status(now)
		style := theme.Body
		switch status {
		case spacedrep.ReviewDue:
			style = theme.Partial
		case spacedrep.ReviewOverdue:
			style = theme.Incorrect
		case spacedrep.ReviewGraduated:
			style = theme.Correct
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%-12s  %-20s  %-5d  %-10s  ",
			truncate(rs.UserID, 12), truncate(rs.SubjectID, 20), rs.Stage,
			rs.NextReviewAt.Local().Format("2006-01-02")))
		b.WriteString(style.Render(string(status)))
	}
	return b.String()
}

func formatCount(v float64) string {
	if v == float64(int(v)) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
