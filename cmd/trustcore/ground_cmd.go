package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/verity-labs/trustcore/pkg/config"
	"github.com/verity-labs/trustcore/pkg/contracts"
	"github.com/verity-labs/trustcore/pkg/grounding"
)

// runGroundCmd implements `trustcore ground`.
//
// Checks a single claim against an evidence corpus loaded from a JSON
// file (an array of corpus items).
//
// Exit codes:
//
//	0 = claim verified or partially grounded
//	1 = claim ungrounded
//	2 = runtime error
func runGroundCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("ground", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		claim      string
		corpusPath string
		agent      string
		jsonOutput bool
	)
	cmd.StringVar(&claim, "claim", "", "Claim text to check (REQUIRED)")
	cmd.StringVar(&corpusPath, "corpus", "", "Path to JSON corpus file (REQUIRED)")
	cmd.StringVar(&agent, "agent", "memory", "Agent type the claim is checked for")
	cmd.BoolVar(&jsonOutput, "json", false, "Output full result as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if claim == "" || corpusPath == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --claim and --corpus are required")
		return 2
	}

	cfg := config.Load()
	log := newLogger(cfg, stderr)

	corpus, err := loadCorpus(corpusPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	log.Debug("corpus loaded", "path", corpusPath, "items", corpus.Len())

	engine := grounding.NewEngine(contracts.AgentType(agent), corpus)
	result, err := engine.Ground(context.Background(), claim)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return 2
		}
	} else {
		_, _ = fmt.Fprintf(stdout, "%s (confidence %.2f, %d evidence items)\n",
			result.Status, result.Confidence, len(result.Evidence))
		for _, s := range result.Suggestions {
			_, _ = fmt.Fprintf(stdout, "  suggestion: %s\n", s)
		}
	}

	if result.Status == contracts.GroundingUngrounded {
		return 1
	}
	return 0
}

func loadCorpus(path string) (*grounding.MemoryCorpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var items []grounding.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	corpus := grounding.NewMemoryCorpus()
	for _, item := range items {
		corpus.Add(item)
	}
	return corpus, nil
}
