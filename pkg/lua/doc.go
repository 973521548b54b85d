// SPDX-License-Identifier: MPL-2.0

// Package lua reads and writes the Lua table-literal files stored inside DCS
// World mission archives.
//
// The files are not executable Lua. Each one holds a single statement of the form
//
//	mission = 
//	{
//	    ["date"] = 
//	    {
//	        ["Year"] = 2016,
//	    }, -- end of ["date"]
//	} -- end of mission
//
// Decode parses such a file into a Value and the Qualifier naming it. Encode
// renders a Value back into the same layout with deterministic key ordering
// (natural sort), which keeps the output stable across saves and makes it
// suitable for diffing under source control.
//
// Numbers keep their exact textual precision: integer literals that fit in an
// int64 decode to Int values, everything else decodes to an arbitrary precision
// decimal (github.com/cockroachdb/apd/v3) and is never routed through float64.
package lua
