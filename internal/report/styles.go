package report

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).PaddingLeft(4)
	summaryStyle = lipgloss.NewStyle().MarginTop(1)
)
