package chat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const exportTitle = "Oblaka AI chat export"

// Meta renders the annotation line shown under an entry.
func Meta(e Entry) string {
	meta := e.Time.Format("15:04")
	switch e.Role {
	case RoleAssistant:
		if e.Model != "" {
			meta += " • " + e.Model
			if e.Tokens > 0 {
				meta += fmt.Sprintf(" • %d tokens", e.Tokens)
			}
		}
	case RoleError:
		meta += " • Error"
	}
	return meta
}

// Label is the speaker label; errors are attributed to the assistant.
func Label(r Role) string {
	if r == RoleUser {
		return "User"
	}
	return "AI"
}

// Export renders the transcript as plain text, one block per entry in
// transcript order.
func Export(entries []Entry) string {
	var b strings.Builder
	b.WriteString(exportTitle + "\n")
	b.WriteString(strings.Repeat("=", 30) + "\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%s (%s):\n%s\n\n", Label(e.Role), Meta(e), e.Text)
	}
	return b.String()
}

// ExportFileName returns chat_export_<date>.txt for now.
func ExportFileName(now time.Time) string {
	return "chat_export_" + now.Format("2006-01-02") + ".txt"
}

// WriteExport writes the export into dir and returns the file path.
func WriteExport(dir string, entries []Entry, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, ExportFileName(now))
	if err := os.WriteFile(path, []byte(Export(entries)), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
