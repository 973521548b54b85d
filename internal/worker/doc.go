// SPDX-License-Identifier: MPL-2.0

// Package worker runs independent jobs on a bounded number of goroutines.
//
// Each job owns its own resources, so the pool shares no state between jobs
// beyond collecting their results. Two jobs for the same key (an archive
// path) are refused up front instead of racing on the same files.
package worker
