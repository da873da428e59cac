// Command triage classifies maintenance messages locally, one per argument
// or one per stdin line.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/spec-kit/maintenance-service/internal/analysis"
	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/domain"
)

func main() {
	flags := pflag.NewFlagSet("triage", pflag.ExitOnError)
	asJSON := flags.Bool("json", false, "print one JSON object per message")
	minPriority := flags.String("min-priority", "", "only print messages at or above this priority (high, medium, low)")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: triage [--json] [--min-priority P] [message ...]")
		fmt.Fprintln(os.Stderr, "Reads messages from stdin, one per line, when none are given.")
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	opts := options{json: *asJSON}
	if *minPriority != "" {
		p, ok := domain.ParsePriority(*minPriority)
		if !ok {
			fmt.Fprintf(os.Stderr, "triage: invalid --min-priority %q\n", *minPriority)
			os.Exit(2)
		}
		opts.minPriority = p
	}

	var err error
	if args := flags.Args(); len(args) > 0 {
		err = run(os.Stdout, args, opts)
	} else {
		err = runLines(os.Stdout, os.Stdin, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "triage: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	json        bool
	minPriority domain.Priority
}

type result struct {
	Message  string               `json:"message"`
	Priority domain.Priority      `json:"priority"`
	Analysis dto.AnalysisResponse `json:"analyzedFactors"`
}

func runLines(w io.Writer, r io.Reader, opts options) error {
	var messages []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			messages = append(messages, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return run(w, messages, opts)
}

func run(w io.Writer, messages []string, opts options) error {
	enc := json.NewEncoder(w)
	for _, msg := range messages {
		a := analysis.Analyze(msg)
		priority := domain.ReconcilePriority(a)
		if opts.minPriority != "" && rank(priority) < rank(opts.minPriority) {
			continue
		}
		if opts.json {
			if err := enc.Encode(result{Message: msg, Priority: priority, Analysis: dto.NewAnalysisResponse(a)}); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%-6s %.2f  %-6s  %s  [%s]\n",
			priority, a.PriorityScore, a.UrgencyClassification, msg, strings.Join(a.Keywords, ", ")); err != nil {
			return err
		}
	}
	return nil
}

func rank(p domain.Priority) int {
	switch p {
	case domain.PriorityHigh:
		return 3
	case domain.PriorityMedium:
		return 2
	default:
		return 1
	}
}
