// SPDX-License-Identifier: Apache-2.0

// Package snapshotschema embeds snapshot.schema.json into the compiled
// binary so validation works regardless of the process's working
// directory.
package snapshotschema

import "embed"

//go:embed snapshot.schema.json
var FS embed.FS
