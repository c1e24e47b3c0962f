// Package output provides styled terminal output helpers (success, error,
// warning, item formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/CrazyNoDota/nomadway-sub000/internal/models"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	priceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	typeStyles   = map[models.SubjectType]lipgloss.Style{
		models.SubjectAttraction: lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.SubjectTour:       lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		models.SubjectRoute:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeLoginRequired  = "login_required"
	ErrCodeSessionExpired = "session_expired"
	ErrCodeValidation     = "validation_failed"
	ErrCodeNetwork        = "network_unavailable"
	ErrCodeStorage        = "storage_error"
	ErrCodeInternal       = "internal_error"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	result := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	}
	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// FormatSubjectType formats a subject type with color
func FormatSubjectType(t models.SubjectType) string {
	style, ok := typeStyles[t]
	if !ok {
		return string(t)
	}
	return style.Render(fmt.Sprintf("[%s]", t))
}

// FormatPrice renders a price range, collapsing equal min/max
func FormatPrice(p models.PriceRange) string {
	if p.Min == p.Max {
		return priceStyle.Render(fmt.Sprintf("%.0f", p.Max))
	}
	return priceStyle.Render(fmt.Sprintf("%.0f-%.0f", p.Min, p.Max))
}

// FormatCartItem formats a cart entry as a single line
func FormatCartItem(it models.CartItem) string {
	var parts []string
	parts = append(parts, titleStyle.Render(it.Key.String()))
	parts = append(parts, FormatSubjectType(it.SubjectType))
	parts = append(parts, displayTitle(it.Title, it.SubjectID))
	parts = append(parts, fmt.Sprintf("x%d", it.Quantity))
	parts = append(parts, FormatPrice(it.Price))
	if it.SelectedDate != nil {
		parts = append(parts, subtleStyle.Render(it.SelectedDate.Format("2006-01-02")))
	}
	if it.Region != "" {
		parts = append(parts, subtleStyle.Render(it.Region))
	}
	if !it.AddedAt.IsZero() {
		parts = append(parts, subtleStyle.Render(FormatTimeAgo(it.AddedAt)))
	}
	return strings.Join(parts, "  ")
}

// FormatFavorite formats a favorites entry as a single line
func FormatFavorite(it models.FavoriteItem) string {
	var parts []string
	parts = append(parts, titleStyle.Render(it.Key.String()))
	parts = append(parts, FormatSubjectType(it.SubjectType))
	parts = append(parts, displayTitle(it.Title, it.SubjectID))
	if it.Category != "" {
		parts = append(parts, subtleStyle.Render(it.Category))
	}
	if it.Region != "" {
		parts = append(parts, subtleStyle.Render(it.Region))
	}
	if it.Notes != "" {
		parts = append(parts, subtleStyle.Render(it.Notes))
	}
	if !it.AddedAt.IsZero() {
		parts = append(parts, subtleStyle.Render(FormatTimeAgo(it.AddedAt)))
	}
	return strings.Join(parts, "  ")
}

// FormatSuggestion formats an advisory tip
func FormatSuggestion(s models.Suggestion) string {
	return fmt.Sprintf("%s %s\n   %s", s.Icon, titleStyle.Render(s.Title), s.Message)
}

// FormatUser renders the signed-in identity
func FormatUser(u *models.User) string {
	if u == nil {
		return subtleStyle.Render("not signed in")
	}
	name := u.Name
	if name == "" {
		name = u.Email
	}
	return fmt.Sprintf("%s %s", titleStyle.Render(name), subtleStyle.Render("<"+u.Email+">"))
}

// SectionHeader returns a formatted section header for CLI output
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

func displayTitle(title, subjectID string) string {
	if title != "" {
		return title
	}
	return subjectID
}
