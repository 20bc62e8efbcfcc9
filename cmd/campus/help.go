package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/campus/internal/ui"
)

// colorizedHelpFunc renders Cobra's usage text and, on a color terminal,
// highlights section headers, command names and flag annotations.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}

		out := cmd.OutOrStdout()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		fmt.Fprint(out, colorizeHelp(buf.String()))
	}
}

func colorizeHelp(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		body := strings.TrimLeft(line, " ")
		indent := line[:len(line)-len(body)]
		switch {
		case body == "":
		case indent == "" && strings.HasSuffix(body, ":"):
			lines[i] = ui.RenderAccent(body)
		case strings.HasPrefix(body, "-"):
			lines[i] = indent + colorizeFlag(body)
		case indent == "  ":
			name, rest, _ := strings.Cut(body, " ")
			lines[i] = indent + ui.RenderCommand(name) + " " + rest
		}
	}
	return strings.Join(lines, "\n")
}

// colorizeFlag mutes the value type and default in a line such as
// `--url string   campus server URL (default "http://localhost:3001")`.
func colorizeFlag(line string) string {
	names, usage, ok := strings.Cut(line, "   ")
	if !ok {
		return line
	}
	if i := strings.LastIndexByte(names, ' '); i >= 0 && !strings.HasPrefix(names[i+1:], "-") {
		names = names[:i+1] + ui.RenderMuted(names[i+1:])
	}
	if i := strings.Index(usage, "(default "); i >= 0 {
		usage = usage[:i] + ui.RenderMuted(usage[i:])
	}
	return names + "   " + usage
}
