package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/gubarz/mdpane/internal/config"
)

// StyleManager encapsulates all TUI styles
type StyleManager struct {
	// Pane styles
	Pane        lipgloss.Style
	FocusedPane lipgloss.Style
	Title       lipgloss.Style

	// Status line styles
	Status    lipgloss.Style
	StatusErr lipgloss.Style
	Help      lipgloss.Style
}

// DefaultStyles returns a StyleManager with default styles
func DefaultStyles() *StyleManager {
	s := &StyleManager{}
	s.apply(lipgloss.Color("240"), lipgloss.Color("212"), lipgloss.Color("241"))
	return s
}

// LoadFromConfig updates styles based on configuration
func (s *StyleManager) LoadFromConfig() {
	s.apply(
		lipgloss.Color(config.GetColorBorder()),
		lipgloss.Color(config.GetColorStatus()),
		lipgloss.Color(config.GetColorDim()),
	)
}

func (s *StyleManager) apply(border, status, dim lipgloss.Color) {
	s.Pane = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border)
	s.FocusedPane = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(status)
	s.Title = lipgloss.NewStyle().Bold(true).Foreground(status)
	s.Status = lipgloss.NewStyle().Foreground(status)
	s.StatusErr = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	s.Help = lipgloss.NewStyle().Foreground(dim)
}

// PaneStyle returns the border style for a pane
func (s *StyleManager) PaneStyle(focused bool) lipgloss.Style {
	if focused {
		return s.FocusedPane
	}
	return s.Pane
}

// Global style manager instance
var styles = DefaultStyles()

// RefreshStyles updates the global styles from config
func RefreshStyles() {
	styles.LoadFromConfig()
}
