package main

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)
