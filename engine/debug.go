//go:build debug

package engine

// debugBuild gates live-update, memory-tracking and backend debug logging,
// which the runtime only supports in its debug libraries.
const debugBuild = true
