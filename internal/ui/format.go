package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/bz888/oblaka/internal/chat"
)

func formatTranscript(s chat.State, notice string) string {
	var b strings.Builder

	if s.Welcome() {
		b.WriteString("[::b]Welcome to Oblaka[::-]\n")
		b.WriteString("Ask anything, or send one of these with /example <n>:\n\n")
		for i, q := range chat.ExampleQuestions {
			fmt.Fprintf(&b, "  [yellow]%d.[-] %s\n", i+1, tview.Escape(q))
		}
		b.WriteString("\n")
	}

	for _, e := range s.Transcript {
		b.WriteString(formatEntry(e))
	}

	if s.Loading {
		b.WriteString("[yellow]AI is thinking...[-]\n\n")
	}
	if notice != "" {
		fmt.Fprintf(&b, "[gray]%s[-]\n", tview.Escape(notice))
	}
	return b.String()
}

func formatEntry(e chat.Entry) string {
	color := "green"
	switch e.Role {
	case chat.RoleUser:
		color = "blue"
	case chat.RoleError:
		color = "red"
	}
	return fmt.Sprintf("[%s::b]%s:[-::-] [gray]%s[-]\n%s\n\n",
		color, chat.Label(e.Role), tview.Escape(chat.Meta(e)), tview.Escape(e.Text))
}

func formatStatus(st chat.Status) string {
	color := "yellow"
	switch st.Indicator {
	case chat.IndicatorConnected:
		color = "green"
	case chat.IndicatorError:
		color = "red"
	}
	return fmt.Sprintf("[%s]●[-] %s", color, tview.Escape(st.Text))
}

func formatFooter(s chat.State) string {
	return fmt.Sprintf("%d chars | messages: %d | tokens: %d | temp: %.1f | sound: %s | autoscroll: %s",
		s.CharCount(), s.MessageCount, s.TokenCount, s.Temperature(),
		onOff(s.Prefs.SoundEnabled), onOff(s.Prefs.AutoScroll))
}

func modelLabels(models []chat.ModelOption) []string {
	labels := make([]string, 0, len(models))
	for _, m := range models {
		if m.Disabled && m.ID != "" {
			labels = append(labels, m.Name+" (unavailable)")
			continue
		}
		labels = append(labels, m.Name)
	}
	return labels
}

func selectedIndex(models []chat.ModelOption, id string) int {
	for i, m := range models {
		if m.ID == id && id != "" {
			return i
		}
	}
	return 0
}
