package tutor

import (
	"strings"
	"sync"

	"history-tutor/internal/models"
)

// HistoryWindow is how many recent turns are rendered into the prompt.
const HistoryWindow = 6

// History is an append-only conversation log owned by the caller. The
// pipeline only ever sees the rendered string.
type History struct {
	mu    sync.Mutex
	turns []models.ConversationTurn
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Append(role models.Role, content string, mode models.Mode) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, models.ConversationTurn{Role: role, Content: content, Mode: mode})
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Render returns the last n turns as "User:/Assistant:" lines, most recent
// last. n <= 0 uses the default window.
func (h *History) Render(n int) string {
	if n <= 0 {
		n = HistoryWindow
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	start := len(h.turns) - n
	if start < 0 {
		start = 0
	}
	var lines []string
	for _, t := range h.turns[start:] {
		prefix := "User"
		if t.Role == models.RoleAssistant {
			prefix = "Assistant"
		}
		lines = append(lines, prefix+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}
