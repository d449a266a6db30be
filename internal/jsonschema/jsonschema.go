// SPDX-License-Identifier: Apache-2.0

// Package jsonschema validates schema snapshots against
// schema/snapshot.schema.json before C2/C3 ever decode them.
package jsonschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	snapshotschema "github.com/scia-dev/scia/schema"
)

const schemaResourceName = "snapshot.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := snapshotschema.FS.ReadFile(schemaResourceName)
		if err != nil {
			compileErr = fmt.Errorf("read embedded snapshot schema: %w", err)
			return
		}

		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("parse embedded snapshot schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaResourceName, doc); err != nil {
			compileErr = fmt.Errorf("add embedded snapshot schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaResourceName)
	})
	return compiled, compileErr
}

// ValidateSnapshot validates raw JSON bytes against the snapshot schema,
// returning a descriptive error if it does not conform.
func ValidateSnapshot(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	sch, err := schema()
	if err != nil {
		return fmt.Errorf("compile snapshot schema: %w", err)
	}

	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("snapshot does not conform to schema: %w", err)
	}
	return nil
}
