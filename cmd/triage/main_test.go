package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

func TestRunText(t *testing.T) {
	var out bytes.Buffer
	if err := run(&out, []string{"Squeaky hinge on the door"}, options{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "low    0.20  low     Squeaky hinge on the door  [squeaky hinge]\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestRunLinesJSONWithMinPriority(t *testing.T) {
	in := strings.NewReader("gas leak in unit 3\n\ncosmetic scuff\nminor repair, urgent, asap now, immediately\n")
	var out bytes.Buffer
	if err := runLines(&out, in, options{json: true, minPriority: domain.PriorityMedium}); err != nil {
		t.Fatalf("runLines: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), out.String())
	}
	var first, second result
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if first.Priority != domain.PriorityHigh {
		t.Errorf("first priority = %s", first.Priority)
	}
	if second.Priority != domain.PriorityMedium || second.Analysis.UrgencyClassification != domain.PriorityLow {
		t.Errorf("second = %+v", second)
	}
}
