package logging

import (
	"log/slog"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors
var (
	Primary = lipgloss.Color("#7C3AED")
	Success = lipgloss.Color("#10B981")
	Warning = lipgloss.Color("#F59E0B")
	Danger  = lipgloss.Color("#EF4444")
	Info    = lipgloss.Color("#3B82F6")
	Muted   = lipgloss.Color("#6B7280")
)

var (
	debugStyle = lipgloss.NewStyle().Foreground(Muted)
	infoStyle  = lipgloss.NewStyle().Foreground(Info).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(Warning).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(Danger).Bold(true)

	timeStyle = lipgloss.NewStyle().Foreground(Muted)
	keyStyle  = lipgloss.NewStyle().Foreground(Primary)
)

func levelLabel(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

func levelStyle(level slog.Level) lipgloss.Style {
	switch {
	case level < slog.LevelInfo:
		return debugStyle
	case level < slog.LevelWarn:
		return infoStyle
	case level < slog.LevelError:
		return warnStyle
	default:
		return errorStyle
	}
}
