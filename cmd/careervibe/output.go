package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kalambet/careervibe/internal/cards"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+fmt.Sprintf(format, args...)))
}

func printError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+fmt.Sprintf(format, args...)))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+fmt.Sprintf(format, args...)))
}

func printStatus(label string, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s %s\n", colorize(colorBold, label+":"), fmt.Sprintf(format, args...))
}

// printReply renders an assistant message: content, then numbered buttons
// and card references.
func printReply(w io.Writer, content string, buttons []string, refs []cards.Ref) {
	fmt.Fprintln(w, colorize(colorCyan, content))
	for _, r := range refs {
		fmt.Fprintf(w, "  • %s (%s, %s) [%s]\n", r.Profession, r.Level, r.Company, r.Slug)
	}
	for i, b := range buttons {
		fmt.Fprintf(w, "  %s %s\n", colorize(colorBold, fmt.Sprintf("[%d]", i+1)), b)
	}
}
