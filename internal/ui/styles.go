// Package ui styles CLI output.
package ui

import (
	"fmt"
	"strings"
)

// ANSI256 color codes.
const (
	colorAccent  = 74  // blue
	colorCmd     = 250 // light gray
	colorMuted   = 245 // medium gray
	colorCreated = 114 // green
	colorUpdated = 179 // amber
	colorDeleted = 167 // red
)

var noColor bool

func render(color int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderEvent colors an event name by the kind of change it reports:
// green for *_created, amber for *_updated, red for *_deleted.
func RenderEvent(name string) string {
	switch {
	case strings.HasSuffix(name, "_created"):
		return render(colorCreated, name)
	case strings.HasSuffix(name, "_updated"):
		return render(colorUpdated, name)
	case strings.HasSuffix(name, "_deleted"):
		return render(colorDeleted, name)
	}
	return RenderMuted(name)
}

// RenderStatus renders a realtime connection state.
func RenderStatus(online bool) string {
	if online {
		return render(colorCreated, "● live")
	}
	return render(colorDeleted, "○ offline")
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// Setup disables color unless ShouldUseColor allows it.
func Setup() {
	if !ShouldUseColor() {
		ForceNoColor()
	}
}
