// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema.
//
// Both entry points follow the same three steps: compile the schema, compile
// the user document and unify it with a schema definition, then validate and
// decode. ParseAndDecode fills a Go struct; DecodeMap returns a generic map
// for callers that merge the result into another configuration layer.
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	values, err := cueutil.DecodeMap(schema, data, "#Config",
//	    cueutil.WithFilename("config.cue"))
//
// Validation failures are reported as *ValidationError with one line per
// offending field, each prefixed with its JSON-style path.
package cueutil
