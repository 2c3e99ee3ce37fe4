package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/stretchr/testify/assert"
)

func renderSample() *domain.Task {
	return &domain.Task{
		ID:            uuid.MustParse("0b3c2e6c-1d8e-4a57-9a0f-2f4e5d6c7b8a"),
		Client:        "Acme",
		Description:   "Fix checkout page",
		Priority:      domain.PriorityMedium,
		Status:        domain.StatusPendingReview,
		Deadline:      time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		DateRequested: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Notes:         "Check on mobile",
	}
}

func TestBadge_UnknownClassFallsBack(t *testing.T) {
	assert.Contains(t, badge("bg-unknown", "Someday"), "Someday")
	assert.Contains(t, priorityBadge(domain.Priority("Urgent")), "Urgent")
}

func TestRenderTaskCard(t *testing.T) {
	out := renderTaskCard(renderSample())

	assert.Contains(t, out, "Medium")
	assert.Contains(t, out, "Pending Review")
	assert.Contains(t, out, "Fix checkout page")
	assert.Contains(t, out, "Acme · due Oct 19, 2026")
	assert.Contains(t, out, "0b3c2e6c-1d8e-4a57-9a0f-2f4e5d6c7b8a")
}

func TestRenderTaskList_Empty(t *testing.T) {
	assert.Contains(t, renderTaskList(nil), "No tasks found. Create a new task to get started!")
}

func TestRenderTaskDetail_SkipsEmptyFields(t *testing.T) {
	out := renderTaskDetail(renderSample())

	assert.Contains(t, out, "Check on mobile")
	assert.Contains(t, out, "Oct 1, 2026")
	assert.NotContains(t, out, "Page link")
	assert.NotContains(t, out, "Discussion")
}
