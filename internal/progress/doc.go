// SPDX-License-Identifier: MPL-2.0

// Package progress provides sinks for step-wise progress reporting.
//
// Long-running operations announce a task with Start, advance it with
// SetValue and SetLabel, and finish it with Done. The CLI reports through a
// Logger; library callers that do not care pass Nop.
package progress
