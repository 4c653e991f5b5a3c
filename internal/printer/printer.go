// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

// Package printer writes colored CLI output for corkctl. Color follows
// fatih/color's terminal detection and honours NO_COLOR.
package printer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
	faint  = color.New(color.Faint)
)

// Printer writes to an output and an error stream.
type Printer struct {
	out    io.Writer
	errOut io.Writer
}

// New creates a printer. Nil writers default to stdout and stderr.
func New(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{out: out, errOut: errOut}
}

// Out is the output stream, for callers that stream raw data.
func (p *Printer) Out() io.Writer { return p.out }

// Success prints msg in green with a check mark.
func (p *Printer) Success(format string, a ...any) {
	_, _ = green.Fprintf(p.out, "✓ %s", fmt.Sprintf(format, a...))
}

// Info prints in the default color.
func (p *Printer) Info(format string, a ...any) {
	_, _ = fmt.Fprintf(p.out, format, a...)
}

// Warning prints msg in yellow to the error stream.
func (p *Printer) Warning(format string, a ...any) {
	_, _ = yellow.Fprintf(p.errOut, "! %s", fmt.Sprintf(format, a...))
}

// Step prints a progress line in cyan.
func (p *Printer) Step(format string, a ...any) {
	_, _ = cyan.Fprintf(p.out, "→ %s", fmt.Sprintf(format, a...))
}

// Heading prints a bold line followed by a newline.
func (p *Printer) Heading(format string, a ...any) {
	_, _ = bold.Fprintln(p.out, fmt.Sprintf(format, a...))
}

// Println prints a plain line.
func (p *Printer) Println(a ...any) {
	_, _ = fmt.Fprintln(p.out, a...)
}

// Printf prints plain formatted text.
func (p *Printer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(p.out, format, a...)
}

// Muted renders s faint, for ids and timestamps.
func Muted(s string) string { return faint.Sprint(s) }

// Emphasis renders s bold.
func Emphasis(s string) string { return bold.Sprint(s) }

// Good renders s green.
func Good(s string) string { return green.Sprint(s) }

// Caution renders s yellow.
func Caution(s string) string { return yellow.Sprint(s) }

// Bad renders s red.
func Bad(s string) string { return red.Sprint(s) }

// Error prints a titled error with an explanation and suggestions to the
// error stream and returns a plain error carrying the title. Commands
// return it with SilenceErrors set so it is not printed twice.
func (p *Printer) Error(title, explanation string, suggestions []string) error {
	return p.ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext is Error plus key/value details, printed sorted by key.
func (p *Printer) ErrorWithContext(title, explanation string, details map[string]string, suggestions []string) error {
	_, _ = red.Fprintf(p.errOut, "%s\n", title)
	if explanation != "" {
		_, _ = fmt.Fprintf(p.errOut, "\n%s\n", explanation)
	}

	if len(details) > 0 {
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		_, _ = fmt.Fprintln(p.errOut)
		for _, k := range keys {
			_, _ = fmt.Fprintf(p.errOut, "  %s: %s\n", k, details[k])
		}
	}

	switch len(suggestions) {
	case 0:
	case 1:
		_, _ = fmt.Fprintf(p.errOut, "\n%s\n", suggestions[0])
	default:
		_, _ = fmt.Fprintf(p.errOut, "\nEither:\n")
		for i, s := range suggestions {
			_, _ = fmt.Fprintf(p.errOut, "  %d. %s\n", i+1, s)
		}
	}
	return &ReportedError{Title: strings.TrimSpace(title)}
}

// ReportedError is returned by Error and ErrorWithContext. The message has
// already been shown to the user, so callers only need the exit status.
type ReportedError struct {
	Title string
}

func (e *ReportedError) Error() string { return e.Title }
