package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() TaskInput {
	return TaskInput{
		TaskCreator: "Dana",
		Client:      "Acme Corp",
		Description: "Fix checkout page layout",
		PageLink:    "https://acme.example.com/checkout",
		Priority:    PriorityHigh,
		Deadline:    time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC),
		Status:      StatusInProgress,
		Notes:       "Mobile only",
	}
}

func TestNewTask(t *testing.T) {
	userID := uuid.New()

	t.Run("valid input", func(t *testing.T) {
		task, err := NewTask(userID, validInput())

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, userID, task.UserID)
		assert.Equal(t, PriorityHigh, task.Priority)
		assert.Equal(t, StatusInProgress, task.Status)
		assert.False(t, task.CreatedAt.IsZero())
		assert.Equal(t, task.CreatedAt, task.UpdatedAt)
		assert.False(t, task.DateRequested.IsZero())
	})

	t.Run("applies defaults", func(t *testing.T) {
		in := validInput()
		in.Priority = ""
		in.Status = ""

		task, err := NewTask(userID, in)

		require.NoError(t, err)
		assert.Equal(t, PriorityMedium, task.Priority)
		assert.Equal(t, StatusToDo, task.Status)
	})

	t.Run("trims text fields", func(t *testing.T) {
		in := validInput()
		in.Client = "  Acme Corp  "

		task, err := NewTask(userID, in)

		require.NoError(t, err)
		assert.Equal(t, "Acme Corp", task.Client)
	})
}

func TestTaskValidate(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name      string
		mutate    func(in *TaskInput)
		field     string
		sentinel  error
		userIDArg uuid.UUID
	}{
		{"missing owner", func(in *TaskInput) {}, "user_id", ErrInvalidID, uuid.Nil},
		{"blank description", func(in *TaskInput) { in.Description = "   " }, "description", ErrValidation, userID},
		{"blank client", func(in *TaskInput) { in.Client = "" }, "client", ErrValidation, userID},
		{"bad priority", func(in *TaskInput) { in.Priority = "Urgent" }, "priority", ErrInvalidPriority, userID},
		{"bad status", func(in *TaskInput) { in.Status = "Blocked" }, "status", ErrInvalidStatus, userID},
		{"missing deadline", func(in *TaskInput) { in.Deadline = time.Time{} }, "deadline", ErrValidation, userID},
		{"relative page link", func(in *TaskInput) { in.PageLink = "/checkout" }, "page_link", ErrValidation, userID},
		{"non-web page link", func(in *TaskInput) { in.PageLink = "ftp://acme.example.com" }, "page_link", ErrValidation, userID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			task, err := NewTask(tt.userIDArg, in)

			require.Error(t, err)
			assert.Nil(t, task)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
			assert.True(t, errors.Is(err, tt.sentinel))
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("High")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	p, err = ParsePriority(" low ")
	require.NoError(t, err)
	assert.Equal(t, PriorityLow, p)

	_, err = ParsePriority("critical")
	assert.ErrorIs(t, err, ErrInvalidPriority)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("Pending Review")
	require.NoError(t, err)
	assert.Equal(t, StatusPendingReview, s)

	s, err = ParseStatus("in progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)

	_, err = ParseStatus("blocked")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("deadline", "2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("deadline", "  ")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ParseDate("deadline", "19/10/2026")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "deadline", vErr.Field)
	assert.ErrorIs(t, err, ErrValidation)
}
