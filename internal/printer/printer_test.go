// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package printer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func newTestPrinter(t *testing.T) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var out, errOut bytes.Buffer
	return New(&out, &errOut), &out, &errOut
}

func TestStreams(t *testing.T) {
	p, out, errOut := newTestPrinter(t)

	p.Success("created %s\n", "board")
	p.Step("moving\n")
	p.Warning("slow\n")
	p.Heading("Sprint")

	if got := out.String(); got != "✓ created board\n→ moving\nSprint\n" {
		t.Errorf("out = %q", got)
	}
	if got := errOut.String(); got != "! slow\n" {
		t.Errorf("err = %q", got)
	}
}

func TestErrorWithContext(t *testing.T) {
	p, out, errOut := newTestPrinter(t)

	err := p.ErrorWithContext("Move rejected", "The card moved elsewhere.",
		map[string]string{"expected": "todo", "actual": "done"},
		[]string{"Run corkctl board show", "Retry the move"})
	if err == nil || err.Error() != "Move rejected" {
		t.Fatalf("err = %v", err)
	}
	var reported *ReportedError
	if !errors.As(err, &reported) {
		t.Errorf("err is %T, want *ReportedError", err)
	}
	if out.Len() != 0 {
		t.Errorf("error output leaked to stdout: %q", out.String())
	}

	got := errOut.String()
	for _, want := range []string{"Move rejected\n", "The card moved elsewhere.", "  actual: done\n  expected: todo\n", "Either:\n  1. Run corkctl board show\n  2. Retry the move\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
}

func TestSingleSuggestion(t *testing.T) {
	p, _, errOut := newTestPrinter(t)
	_ = p.Error("Server unreachable", "", []string{"Start the server"})
	if strings.Contains(errOut.String(), "Either") {
		t.Errorf("single suggestion rendered as list: %q", errOut.String())
	}
}
