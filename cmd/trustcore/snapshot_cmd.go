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
	"github.com/verity-labs/trustcore/pkg/crypto"
	"github.com/verity-labs/trustcore/pkg/snapshot"
)

// runSnapshotCmd dispatches `trustcore snapshot <export|verify|import>`.
func runSnapshotCmd(args []string, stdout, stderr io.Writer) int {
	switch args[0] {
	case "export":
		return runSnapshotExport(args[1:], stdout, stderr)
	case "verify":
		return runSnapshotVerify(args[1:], stdout, stderr)
	case "import":
		return runSnapshotImport(args[1:], stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown snapshot command: %s\n", args[0])
		return 2
	}
}

func runSnapshotExport(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("snapshot export", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		kind      string
		agent     string
		statePath string
		outPath   string
		summary   string
		from      uint64
		to        uint64
	)
	cmd.StringVar(&kind, "kind", "", "Snapshot kind: session|workspace|ledger_segment (REQUIRED)")
	cmd.StringVar(&agent, "agent", "memory", "Source agent type")
	cmd.StringVar(&statePath, "state", "", "State JSON file (session and workspace kinds)")
	cmd.StringVar(&outPath, "out", "", "Output file (default stdout)")
	cmd.StringVar(&summary, "summary", "", "Context summary")
	cmd.Uint64Var(&from, "from", 0, "First chain position (ledger_segment kind)")
	cmd.Uint64Var(&to, "to", 0, "Last chain position (ledger_segment kind)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	var payload contracts.SnapshotPayload
	switch contracts.SnapshotKind(kind) {
	case contracts.SnapshotSession:
		var state contracts.SessionState
		if err := readJSONFile(statePath, &state); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		payload = contracts.SessionPayload(state)
	case contracts.SnapshotWorkspace:
		var state contracts.WorkspaceState
		if err := readJSONFile(statePath, &state); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		payload = contracts.WorkspacePayload(state)
	case contracts.SnapshotLedgerSegment:
		cfg := config.Load()
		ledger, closeLedger, err := openLedger(cfg, stderr)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		defer closeLedger()
		segment, err := ledger.Segment(context.Background(), contracts.AgentType(agent), from, to)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		payload = contracts.LedgerSegmentPayload(segment)
	default:
		_, _ = fmt.Fprintf(stderr, "Error: unknown snapshot kind %q\n", kind)
		return 2
	}

	codec := snapshot.NewCodec(crypto.NewSHA256())
	snap, err := codec.Export(contracts.AgentType(agent), summary, payload)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	out := stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func runSnapshotVerify(args []string, stdout, stderr io.Writer) int {
	snap, code := readSnapshotFlag(args, "snapshot verify", stderr)
	if code != 0 {
		return code
	}
	codec := snapshot.NewCodec(crypto.NewSHA256())
	if err := codec.Verify(snap); err != nil {
		_, _ = fmt.Fprintf(stderr, "Snapshot verification FAILED: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "Snapshot OK, checksum %s\n", snap.Checksum)
	return 0
}

func runSnapshotImport(args []string, stdout, stderr io.Writer) int {
	snap, code := readSnapshotFlag(args, "snapshot import", stderr)
	if code != 0 {
		return code
	}
	codec := snapshot.NewCodec(crypto.NewSHA256())
	payload, err := codec.Import(snap)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Snapshot import FAILED: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
	return 0
}

func readSnapshotFlag(args []string, name string, stderr io.Writer) (contracts.ContextSnapshot, int) {
	cmd := flag.NewFlagSet(name, flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var inPath string
	cmd.StringVar(&inPath, "in", "", "Snapshot JSON file (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return contracts.ContextSnapshot{}, 2
	}
	if inPath == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --in is required")
		return contracts.ContextSnapshot{}, 2
	}
	var snap contracts.ContextSnapshot
	if err := readJSONFile(inPath, &snap); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return contracts.ContextSnapshot{}, 2
	}
	return snap, 0
}

func readJSONFile(path string, v any) error {
	if path == "" {
		return fmt.Errorf("--state is required for this kind")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
