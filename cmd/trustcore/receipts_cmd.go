package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/verity-labs/trustcore/pkg/audit"
	"github.com/verity-labs/trustcore/pkg/config"
	"github.com/verity-labs/trustcore/pkg/contracts"
	"github.com/verity-labs/trustcore/pkg/crypto"
	"github.com/verity-labs/trustcore/pkg/receipts"
)

// runReceiptsCmd dispatches `trustcore receipts <append|show|list|verify>`.
func runReceiptsCmd(args []string, stdout, stderr io.Writer) int {
	switch args[0] {
	case "append":
		return runReceiptsAppend(args[1:], stdout, stderr)
	case "show":
		return runReceiptsShow(args[1:], stdout, stderr)
	case "list":
		return runReceiptsList(args[1:], stdout, stderr)
	case "verify":
		return runReceiptsVerify(args[1:], stdout, stderr)
	case "status":
		return runReceiptsStatus(args[1:], stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown receipts command: %s\n", args[0])
		return 2
	}
}

// openLedger wires store, signer and audit logger from configuration.
func openLedger(cfg *config.Config, stderr io.Writer) (*receipts.Ledger, func(), error) {
	var (
		store   receipts.Store
		cleanup = func() {}
	)
	switch cfg.StoreKind {
	case "memory":
		store = receipts.NewMemoryStore()
	case "sqlite":
		s, err := receipts.OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		store, cleanup = s, func() { _ = s.Close() }
	case "postgres":
		s, err := receipts.OpenPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		store, cleanup = s, func() { _ = s.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.StoreKind)
	}

	var (
		signer crypto.Signer
		err    error
	)
	if cfg.SignerSeed != "" {
		seed, decErr := hex.DecodeString(cfg.SignerSeed)
		if decErr != nil {
			cleanup()
			return nil, nil, fmt.Errorf("decode signer seed: %w", decErr)
		}
		signer, err = crypto.NewEd25519SignerFromSeed(seed, cfg.SignerKeyID)
	} else {
		signer, err = crypto.NewEd25519Signer(cfg.SignerKeyID)
	}
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create signer: %w", err)
	}

	var auditLog audit.Logger
	if cfg.AuditPath != "" {
		f, err := os.OpenFile(cfg.AuditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open audit log: %w", err)
		}
		auditLog = audit.NewLoggerWithWriter(f)
		prev := cleanup
		cleanup = func() { _ = f.Close(); prev() }
	} else {
		auditLog = audit.NewLoggerWithWriter(stderr)
	}

	ledger := receipts.NewLedger(store, signer, crypto.NewSHA256()).WithAudit(auditLog)

	if cfg.ProfileDir != "" {
		if profile, err := config.LoadProfile(cfg.ProfileDir, "default"); err == nil {
			ledger.WithValidation(profile.Ledger.ExtraForbiddenParamKeys, profile.Ledger.RequireContextRef)
		}
	}
	return ledger, cleanup, nil
}

func runReceiptsAppend(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("receipts append", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		agent      string
		actionType string
		contextRef string
		outcome    string
		errorCode  string
		params     stringList
		evidence   stringList
	)
	cmd.StringVar(&agent, "agent", "", "Agent type (REQUIRED)")
	cmd.StringVar(&actionType, "type", "", "Action type (REQUIRED)")
	cmd.StringVar(&contextRef, "context", "", "Context reference")
	cmd.StringVar(&outcome, "outcome", "success", "Outcome status: success|failure|partial")
	cmd.StringVar(&errorCode, "error-code", "", "Error code (failure outcomes)")
	cmd.Var(&params, "param", "Action parameter as key=value (repeatable)")
	cmd.Var(&evidence, "evidence", "Evidence ID (repeatable)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if agent == "" || actionType == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --agent and --type are required")
		return 2
	}

	var out contracts.ActionOutcome
	switch contracts.OutcomeStatus(outcome) {
	case contracts.OutcomeSuccess:
		out = contracts.Success()
	case contracts.OutcomeFailure:
		out = contracts.Failure(errorCode, "recorded via cli")
	case contracts.OutcomePartial:
		out = contracts.Partial(map[string]any{}, nil)
	default:
		_, _ = fmt.Fprintf(stderr, "Error: unknown outcome %q\n", outcome)
		return 2
	}

	action := contracts.NewActionRecord(contracts.AgentType(agent), actionType, out).InContext(contextRef)
	for _, kv := range params {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			_, _ = fmt.Fprintf(stderr, "Error: --param must be key=value, got %q\n", kv)
			return 2
		}
		action = action.WithParam(key, value)
	}
	for _, id := range evidence {
		action = action.WithEvidence(id)
	}

	cfg := config.Load()
	ledger, closeLedger, err := openLedger(cfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer closeLedger()

	id, err := ledger.Append(context.Background(), action)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	_, _ = fmt.Fprintln(stdout, id)
	return 0
}

func runReceiptsShow(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("receipts show", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var id string
	cmd.StringVar(&id, "id", "", "Receipt ID (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if id == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --id is required")
		return 2
	}

	cfg := config.Load()
	ledger, closeLedger, err := openLedger(cfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer closeLedger()

	r, err := ledger.Get(context.Background(), id)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(r)
	return 0
}

func runReceiptsList(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("receipts list", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		agent      string
		actionType string
		contextRef string
		outcome    string
		after      string
		before     string
		limit      int
		offset     int
	)
	cmd.StringVar(&agent, "agent", "", "Filter by agent type")
	cmd.StringVar(&actionType, "type", "", "Filter by action type")
	cmd.StringVar(&contextRef, "context", "", "Filter by context reference")
	cmd.StringVar(&outcome, "outcome", "", "Filter by outcome status")
	cmd.StringVar(&after, "after", "", "Only actions after this RFC3339 time")
	cmd.StringVar(&before, "before", "", "Only actions before this RFC3339 time")
	cmd.IntVar(&limit, "limit", 0, "Maximum receipts to return")
	cmd.IntVar(&offset, "offset", 0, "Receipts to skip")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	filter := contracts.ReceiptFilter{
		Agent:      contracts.AgentType(agent),
		ActionType: actionType,
		ContextRef: contextRef,
		Outcome:    contracts.OutcomeStatus(outcome),
		Limit:      limit,
		Offset:     offset,
	}
	if after != "" {
		ts, err := time.Parse(time.RFC3339, after)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: invalid --after: %v\n", err)
			return 2
		}
		filter.After = &ts
	}
	if before != "" {
		ts, err := time.Parse(time.RFC3339, before)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: invalid --before: %v\n", err)
			return 2
		}
		filter.Before = &ts
	}

	cfg := config.Load()
	ledger, closeLedger, err := openLedger(cfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer closeLedger()

	rs, err := ledger.List(context.Background(), filter)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	for _, r := range rs {
		_, _ = fmt.Fprintf(stdout, "%6d  %-28s  %-10s  %-10s  %s\n",
			r.ChainPosition, r.ID, r.Action.Agent, r.Action.Outcome.Status, r.Action.ActionType)
	}
	return 0
}

func runReceiptsVerify(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("receipts verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	cfg := config.Load()
	ledger, closeLedger, err := openLedger(cfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer closeLedger()

	head, err := ledger.VerifyChain(context.Background())
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Chain verification FAILED: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "Chain OK, head %s\n", head)
	return 0
}

func runReceiptsStatus(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("receipts status", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	cfg := config.Load()
	ledger, closeLedger, err := openLedger(cfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer closeLedger()

	ctx := context.Background()
	health := contracts.HealthStatus{
		Healthy:   true,
		Status:    contracts.StatusReady,
		CheckedAt: time.Now().UTC(),
	}

	head, err := ledger.VerifyChain(ctx)
	switch {
	case err != nil:
		health.Healthy = false
		health.Status = contracts.StatusError
		health.LastError = err.Error()
	case head == contracts.GenesisHash:
		health.Warnings = append(health.Warnings, "ledger is empty")
	default:
		// UptimeSeconds counts from the oldest receipt in the chain.
		if first, listErr := ledger.List(ctx, contracts.ReceiptFilter{Limit: 1}); listErr == nil && len(first) == 1 {
			health.UptimeSeconds = time.Since(first[0].CreatedAt).Seconds()
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(health)
	if !health.Healthy {
		return 1
	}
	return 0
}

// stringList collects repeatable flags.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
