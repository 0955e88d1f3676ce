package mailbox

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/theme"
)

// snippetLength caps the body preview shown next to the subject.
const snippetLength = 40

// MessageItem wraps a model.Message so it can be used in a bubbles/list.
type MessageItem struct {
	Message model.Message
	Listing model.ListingType
}

// FilterValue returns the string used for fuzzy filtering.
func (i MessageItem) FilterValue() string {
	return i.Message.Subject + " " + i.Message.Counterpart(i.Listing).Username
}

// Title returns the message subject for the list.
func (i MessageItem) Title() string { return i.Message.Subject }

// Description returns the counterpart and a snippet of the body.
func (i MessageItem) Description() string {
	return i.Message.Counterpart(i.Listing).Username + " | " + Snippet(i.Message.Message, snippetLength)
}

// ItemDelegate implements list.ItemDelegate for rendering message rows.
type ItemDelegate struct {
	dateFormat string
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single message row: counterpart, subject, snippet and
// time.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(MessageItem)
	if !ok {
		return
	}

	isSelected := index == m.Index()

	prefix := "from"
	if mi.Listing == model.ListingOutbox {
		prefix = "to"
	}
	who := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorMagenta).
		Render(fmt.Sprintf("%-4s %-12s", prefix, truncate(mi.Message.Counterpart(mi.Listing).Username, 12)))

	snippet := theme.DimmedStyle.Render(Snippet(mi.Message.Message, snippetLength))
	when := theme.DimmedStyle.Render(FormatTime(mi.Message.CreatedAt, d.dateFormat))

	line := fmt.Sprintf("%s %s  %s  %s", who, mi.Message.Subject, snippet, when)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// Snippet flattens body onto one line and shortens it to n runes.
func Snippet(body string, n int) string {
	flat := strings.Join(strings.Fields(body), " ")
	return truncate(flat, n)
}

// FormatTime renders a message timestamp, or nothing for the zero time.
func FormatTime(t model.Timestamp, layout string) string {
	if t.IsZero() {
		return ""
	}
	if layout == "" {
		layout = "2 Jan 06, 15:04"
	}
	return t.Local().Format(layout)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}
