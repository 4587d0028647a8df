package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/verity-labs/trustcore/pkg/config"
)

// Dispatcher
func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "ground":
		return runGroundCmd(args[2:], stdout, stderr)
	case "receipts":
		if len(args) < 3 {
			_, _ = fmt.Fprintln(stderr, "Usage: trustcore receipts <append|show|list|verify|status>")
			return 2
		}
		return runReceiptsCmd(args[2:], stdout, stderr)
	case "snapshot":
		if len(args) < 3 {
			_, _ = fmt.Fprintln(stderr, "Usage: trustcore snapshot <export|verify|import>")
			return 2
		}
		return runSnapshotCmd(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprint(w, `trustcore - verifiable agent action substrate

Usage:
  trustcore ground    --claim <text> --corpus <file>      Check a claim against an evidence corpus
  trustcore receipts  append --agent <a> --type <t> [...]  Record an action receipt
  trustcore receipts  show --id <receipt-id>               Show one receipt
  trustcore receipts  list [--agent a] [--type t] [...]    List receipts, oldest first
  trustcore receipts  verify                               Re-verify the whole receipt chain
  trustcore receipts  status                               Report ledger health as JSON
  trustcore snapshot  export --kind <k> [...] --out <f>    Export a context snapshot
  trustcore snapshot  verify --in <file>                   Verify a snapshot checksum
  trustcore snapshot  import --in <file>                   Verify, validate and decode a snapshot

Exit codes: 0 = ok, 1 = check failed, 2 = runtime error
`)
}

// newLogger builds the process logger at the configured level.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
