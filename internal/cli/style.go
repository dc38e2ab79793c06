// Package cli holds terminal output helpers shared by the command binaries.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#6F826A"))

	HitStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981"))

	MissStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#D9534F"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// Verdict renders HIT or MISS in its colour.
func Verdict(hit bool) string {
	if hit {
		return HitStyle.Render("HIT")
	}
	return MissStyle.Render("MISS")
}

// Errors renders validation messages as a bulleted list.
func Errors(msgs []string) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(ErrorStyle.Render("• " + m))
		b.WriteByte('\n')
	}
	return b.String()
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
