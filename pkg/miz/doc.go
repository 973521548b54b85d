// SPDX-License-Identifier: MPL-2.0

// Package miz opens DCS World mission archives (.miz files) and round-trips
// their Lua members through the lua codec without losing any other content.
//
// A Container owns a private scratch directory for its whole lifetime:
//
//	c, err := miz.Open("op.miz")
//	...
//	defer c.Close(err != nil)
//	err = c.Unzip()
//	err = c.Decode()
//	c.Mission().Value.Table().Set(...)
//	err = c.Zip("op.miz")
//
// Members are extracted one at a time and their names are checked so crafted
// archives cannot write outside the scratch directory. Zip writes exactly the
// member list captured by Unzip, in the same order, so textures, sounds and
// any member that was not decoded pass through byte for byte.
//
// A Container is not safe for concurrent use. Distinct containers share no
// state and may be used from different goroutines.
package miz
