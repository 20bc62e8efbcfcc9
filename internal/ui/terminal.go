package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ShouldUseColor reports whether stdout should get ANSI colors.
func ShouldUseColor() bool {
	return colorAllowed(os.Getenv, term.IsTerminal(int(os.Stdout.Fd())))
}

// colorAllowed applies NO_COLOR (https://no-color.org), CLICOLOR_FORCE,
// CLICOLOR and TERM=dumb in that order before falling back to isTTY.
func colorAllowed(getenv func(string) string, isTTY bool) bool {
	switch {
	case getenv("NO_COLOR") != "":
		return false
	case strings.TrimSpace(getenv("CLICOLOR_FORCE")) == "1":
		return true
	case strings.TrimSpace(getenv("CLICOLOR")) == "0":
		return false
	case getenv("TERM") == "dumb":
		return false
	}
	return isTTY
}
