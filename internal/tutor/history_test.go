package tutor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"history-tutor/internal/models"
)

func TestHistoryRenderWindow(t *testing.T) {
	h := NewHistory()
	for i := 1; i <= 5; i++ {
		h.Append(models.RoleUser, fmt.Sprintf("question %d", i), models.ModeRegularAnswer)
		h.Append(models.RoleAssistant, fmt.Sprintf("answer %d", i), models.ModeRegularAnswer)
	}

	got := h.Render(HistoryWindow)
	lines := strings.Split(got, "\n")
	assert.Len(t, lines, HistoryWindow)
	// most recent last, oldest turns dropped
	assert.Equal(t, "User: question 3", lines[0])
	assert.Equal(t, "Assistant: answer 5", lines[5])
}

func TestHistoryRenderRolePrefixes(t *testing.T) {
	h := NewHistory()
	h.Append(models.RoleUser, "hello", models.ModeRegularAnswer)
	h.Append(models.RoleAssistant, "hi there", models.ModeSummary)

	assert.Equal(t, "User: hello\nAssistant: hi there", h.Render(0))
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory()
	assert.Empty(t, h.Render(6))
	assert.Zero(t, h.Len())
}
