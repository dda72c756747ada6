package output

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Colors for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// UseColor returns true if colored output should be used.
// Respects NO_COLOR env, TERM=dumb, and terminal detection.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal() || IsCI()
}

func colorize(text, color string, enabled bool) string {
	if !enabled {
		return text
	}
	return color + text + colorReset
}

// Heading prints a banner line announcing a platform build.
//
//	=== Building for ubuntu22.04 ===
func Heading(w io.Writer, text string, color bool) {
	fmt.Fprintf(w, "\n%s\n", colorize("=== "+text+" ===", colorBold+colorCyan, color))
}

// StatusLine prints a single outcome line prefixed with a status icon.
func StatusLine(w io.Writer, status, message string, color bool) {
	fmt.Fprintf(w, "%s %s\n", StatusIcon(status, color), message)
}

// Warn prints a highlighted warning line.
func Warn(w io.Writer, message string, color bool) {
	fmt.Fprintf(w, "%s %s\n", colorize("!", colorYellow, color), message)
}

// StatusLabel returns the summary label for a platform outcome.
func StatusLabel(success, color bool) string {
	if success {
		return colorize("SUCCESS", colorGreen, color)
	}
	return colorize("FAILED", colorRed, color)
}

// List renders names as a comma-separated list.
func List(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
