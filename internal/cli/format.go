package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/iudanet/journalsync/internal/models"
)

var (
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // orange
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headerStyle   = lipgloss.NewStyle().Bold(true)
	conflictArrow = warnStyle.Render("⇄")
)

// statusText pads before styling so columns stay aligned.
func statusText(st models.Status) string {
	padded := fmt.Sprintf("%-8s", st)
	switch st {
	case models.StatusSynced:
		return okStyle.Render(padded)
	case models.StatusPending:
		return dimStyle.Render(padded)
	case models.StatusConflict:
		return warnStyle.Render(padded)
	case models.StatusError:
		return errorStyle.Render(padded)
	default:
		return padded
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
