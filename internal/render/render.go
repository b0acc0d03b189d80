// Package render turns engine events and log entries into styled terminal
// lines. It holds no session state; the engine stays free of any
// presentation concerns and this package stays free of any protocol ones.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/codedock/docksearch/internal/domain"
)

const outputPreviewLimit = 160

var (
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	debugStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9e9e9e"))
	toolStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4db6ac")).Bold(true)
	thinkingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9e9e9e")).Italic(true)
	answerStyle   = lipgloss.NewStyle().Bold(true)
)

func levelStyle(level string) lipgloss.Style {
	switch level {
	case domain.LevelWarning:
		return warningStyle
	case domain.LevelError:
		return errorStyle
	case domain.LevelSuccess:
		return successStyle
	case domain.LevelDebug, domain.LevelTrace:
		return debugStyle
	case domain.LevelToolCall, domain.LevelToolCallDecision, domain.LevelToolOutput:
		return toolStyle
	case domain.LevelAgentThinking:
		return thinkingStyle
	default:
		return infoStyle
	}
}

// LogLine renders one log entry as a single terminal line.
func LogLine(entry domain.LogEntry) string {
	style := levelStyle(entry.Level)
	prefix := style.Render("[" + entry.Level + "]")

	if entry.Tool != nil {
		return prefix + " " + toolLine(entry.Tool)
	}
	return prefix + " " + entry.Message
}

func toolLine(rec *domain.ToolCallRecord) string {
	var b strings.Builder
	b.WriteString(toolStyle.Render(rec.ToolName))
	if len(rec.Parameters) > 0 {
		b.WriteString(" ")
		b.WriteString(debugStyle.Render(formatParameters(rec.Parameters)))
	}
	if rec.HasOutput {
		b.WriteString(" → ")
		b.WriteString(truncate(rec.Output, outputPreviewLimit))
	}
	return b.String()
}

func formatParameters(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, 0, len(params))
	for k, v := range params {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return "(" + truncate(strings.Join(parts, ", "), outputPreviewLimit) + ")"
}

// ProgressLine renders the current progress percentage and status.
func ProgressLine(percent int, status string) string {
	bar := progressBar(percent, 24)
	line := fmt.Sprintf("%s %3d%%", bar, percent)
	if status != "" {
		line += "  " + debugStyle.Render(status)
	}
	return line
}

func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return successStyle.Render(strings.Repeat("█", filled)) +
		debugStyle.Render(strings.Repeat("░", width-filled))
}

// ResultSummary renders the final answer and the relevant file list.
func ResultSummary(result domain.SearchResult) string {
	var b strings.Builder
	b.WriteString(answerStyle.Render("Answer"))
	b.WriteString("\n\n")
	b.WriteString(result.Answer)
	b.WriteString("\n")

	if len(result.RelevantFiles) > 0 {
		b.WriteString("\n")
		b.WriteString(answerStyle.Render("Relevant files"))
		b.WriteString("\n")
		for _, path := range result.RelevantFiles {
			b.WriteString("  " + toolStyle.Render(path) + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(debugStyle.Render(fmt.Sprintf("completed in %.2fs", result.ExecutionTimeSeconds)))
	return b.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return s[:cut] + "…"
}
