package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/phrazzld/taskboard/internal/domain"
)

// Badge colours mirror the dashboard stylesheet.
var (
	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	badgeColors = map[string]lipgloss.Color{
		"bg-priority-low":          lipgloss.Color("#22C55E"),
		"bg-priority-medium":       lipgloss.Color("#F59E0B"),
		"bg-priority-high":         lipgloss.Color("#EF4444"),
		"bg-status-done":           lipgloss.Color("#16A34A"),
		"bg-status-in-progress":    lipgloss.Color("#3B82F6"),
		"bg-status-to-do":          lipgloss.Color("#6B7280"),
		"bg-status-pending-review": lipgloss.Color("#A855F7"),
		"bg-muted":                 lipgloss.Color("#6B7280"),
	}

	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Width(16)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 1)
)

// badge renders value on the colour the dashboard uses for class.
func badge(class, value string) string {
	color, ok := badgeColors[class]
	if !ok {
		color = badgeColors["bg-muted"]
	}
	return badgeStyle.Background(color).Render(value)
}

func priorityBadge(p domain.Priority) string {
	return badge(domain.PriorityBadgeClass(p), string(p))
}

func statusBadge(s domain.Status) string {
	return badge(domain.StatusBadgeClass(s), string(s))
}

// renderTaskCard renders the summary shown by `tasks list`.
func renderTaskCard(t *domain.Task) string {
	lines := []string{
		priorityBadge(t.Priority) + " " + statusBadge(t.Status),
		titleStyle.Render(t.Description),
		mutedStyle.Render(t.Client + " · due " + domain.FormatDeadline(t.Deadline)),
		mutedStyle.Render(t.ID.String()),
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// renderTaskList renders cards for tasks, or the empty state.
func renderTaskList(tasks []*domain.Task) string {
	if len(tasks) == 0 {
		return mutedStyle.Render("No tasks found. Create a new task to get started!")
	}
	cards := make([]string, 0, len(tasks))
	for _, t := range tasks {
		cards = append(cards, renderTaskCard(t))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...) + "\n" +
		mutedStyle.Render(fmt.Sprintf("%d task(s)", len(tasks)))
}

// renderTaskDetail renders every populated field of t.
func renderTaskDetail(t *domain.Task) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(t.Description))
	b.WriteString("\n")
	b.WriteString(priorityBadge(t.Priority) + " " + statusBadge(t.Status))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value))
		b.WriteString("\n")
	}
	field("ID", t.ID.String())
	field("Client", t.Client)
	field("Deadline", domain.FormatDeadline(t.Deadline))
	field("Requested", domain.FormatDeadline(t.DateRequested))
	field("Task creator", t.TaskCreator)
	field("Page link", t.PageLink)
	field("Login details", t.LoginDetails)
	field("Notes", t.Notes)
	field("Discussion", t.ClientDiscussion)
	return strings.TrimRight(b.String(), "\n")
}
