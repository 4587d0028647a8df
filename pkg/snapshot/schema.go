package snapshot

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/verity-labs/trustcore/pkg/contracts"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var payloadSchemas = mustCompileSchemas()

func mustCompileSchemas() map[contracts.SnapshotKind]*jsonschema.Schema {
	files := map[contracts.SnapshotKind]string{
		contracts.SnapshotSession:       "schemas/session.json",
		contracts.SnapshotWorkspace:     "schemas/workspace.json",
		contracts.SnapshotLedgerSegment: "schemas/ledger_segment.json",
	}
	schemas := make(map[contracts.SnapshotKind]*jsonschema.Schema, len(files))
	for kind, file := range files {
		raw, err := schemaFS.ReadFile(file)
		if err != nil {
			panic(fmt.Sprintf("snapshot: read schema %s: %v", file, err))
		}
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		url := fmt.Sprintf("https://trustcore.schemas.local/snapshot/%s.schema.json", kind)
		if err := c.AddResource(url, strings.NewReader(string(raw))); err != nil {
			panic(fmt.Sprintf("snapshot: load schema %s: %v", file, err))
		}
		compiled, err := c.Compile(url)
		if err != nil {
			panic(fmt.Sprintf("snapshot: compile schema %s: %v", file, err))
		}
		schemas[kind] = compiled
	}
	return schemas
}

// validatePayloadJSON checks raw payload bytes against the schema for the
// claimed kind before they are decoded into typed state.
func validatePayloadJSON(kind contracts.SnapshotKind, raw []byte) error {
	schema, ok := payloadSchemas[kind]
	if !ok {
		return fmt.Errorf("no schema for snapshot kind %q", kind)
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("payload does not match %s schema: %w", kind, err)
	}
	return nil
}
