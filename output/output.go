// Package output prints styled terminal messages for the pubcontent CLI.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	out         io.Writer = os.Stdout
	verboseMode bool
)

// SetOutput redirects all messages to w.
func SetOutput(w io.Writer) {
	out = w
}

// SetVerbose enables Verbose messages.
func SetVerbose(v bool) {
	verboseMode = v
}

// Success prints a completed-operation message in green.
func Success(msg string) {
	fmt.Fprintln(out, successStyle.Render("✔ "+msg))
}

// Error prints a failure in red.
func Error(msg string) {
	fmt.Fprintln(out, errorStyle.Render("✘ "+msg))
}

// Info prints a status line in cyan.
func Info(msg string) {
	fmt.Fprintln(out, infoStyle.Render(msg))
}

// Step prints an indented detail line in gray.
func Step(msg string) {
	fmt.Fprintln(out, stepStyle.Render("   "+msg))
}

// Verbose prints msg only in verbose mode.
func Verbose(msg string) {
	if verboseMode {
		fmt.Fprintln(out, stepStyle.Render("   "+msg))
	}
}
