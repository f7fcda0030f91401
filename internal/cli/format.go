package cli

import (
	"fmt"
	"strings"
	"time"

	"lifeplan/internal/core"
)

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

// parseTime accepts RFC 3339 or a local date with optional minutes.
func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q, use YYYY-MM-DD or RFC 3339", value)
}

func optionalTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseTime(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func check(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func formatGoal(g core.Goal) string {
	return fmt.Sprintf("%s %-36s %3d%% %-14s %s", check(g.Completed), g.ID, g.Progress, g.Domain, g.Title)
}

func formatProject(p core.Project) string {
	goal := "independent"
	if !p.Independent() {
		goal = "goal:" + deref(p.GoalTitle)
	}
	return fmt.Sprintf("%s %-36s %3d%% %-11s %s (%s)", check(p.Completed), p.ID, p.Progress, p.Status, p.Title, goal)
}

func formatTask(t core.Task) string {
	return fmt.Sprintf("%s %-36s %s", check(t.Done()), t.ID, t.Title)
}

func formatTimeBlock(b core.TimeBlock) string {
	repeat := ""
	if r := b.Recurrence; r != nil {
		repeat = fmt.Sprintf(" every %d %s", max(r.Interval, 1), r.Frequency)
	}
	return fmt.Sprintf("%-36s %s -> %s %s%s", b.ID, b.Start.Format("2006-01-02 15:04"), b.End.Format("15:04"), b.Title, repeat)
}

func formatTodo(t core.Todo) string {
	due := ""
	if t.DueDate != nil {
		due = " due " + t.DueDate.Format("2006-01-02")
	}
	return fmt.Sprintf("%s %-36s %-6s %s%s", check(t.Completed), t.ID, t.Priority, t.Title, due)
}
