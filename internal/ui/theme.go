// Package ui renders the context banner shown before a guarded command.
package ui

import (
	"github.com/Dicklesworthstone/kcwrap/internal/classify"
	"github.com/charmbracelet/lipgloss"
)

// Theme maps environment categories to colors.
type Theme struct {
	Name string

	Prod    lipgloss.Color // red: production, look twice
	Test    lipgloss.Color // yellow
	Dev     lipgloss.Color // green
	Unknown lipgloss.Color // blue: neutral default
	Muted   lipgloss.Color
	Accent  lipgloss.Color
}

// FlavorName represents a Catppuccin flavor.
type FlavorName string

const (
	FlavorMocha FlavorName = "mocha"
	FlavorLatte FlavorName = "latte"
)

// Mocha returns the Catppuccin Mocha palette (dark terminals).
func Mocha() *Theme {
	return &Theme{
		Name:    "Catppuccin Mocha",
		Prod:    lipgloss.Color("#f38ba8"),
		Test:    lipgloss.Color("#f9e2af"),
		Dev:     lipgloss.Color("#a6e3a1"),
		Unknown: lipgloss.Color("#89b4fa"),
		Muted:   lipgloss.Color("#6c7086"),
		Accent:  lipgloss.Color("#cba6f7"),
	}
}

// Latte returns the Catppuccin Latte palette (light terminals).
func Latte() *Theme {
	return &Theme{
		Name:    "Catppuccin Latte",
		Prod:    lipgloss.Color("#d20f39"),
		Test:    lipgloss.Color("#df8e1d"),
		Dev:     lipgloss.Color("#40a02b"),
		Unknown: lipgloss.Color("#1e66f5"),
		Muted:   lipgloss.Color("#9ca0b0"),
		Accent:  lipgloss.Color("#8839ef"),
	}
}

// ThemeFor returns the palette for a flavor name, defaulting to Mocha.
func ThemeFor(flavor FlavorName) *Theme {
	if flavor == FlavorLatte {
		return Latte()
	}
	return Mocha()
}

// CategoryColor returns the color for cat.
func (t *Theme) CategoryColor(cat classify.Category) lipgloss.Color {
	switch cat {
	case classify.CategoryProd:
		return t.Prod
	case classify.CategoryTest:
		return t.Test
	case classify.CategoryDev:
		return t.Dev
	default:
		return t.Unknown
	}
}
