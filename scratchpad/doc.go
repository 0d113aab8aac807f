// Package scratchpad houses the in-memory implementation of
// core.ScratchpadStore, the staging area for resources the guest creates and
// edits before final submission.
//
// Entries are keyed by location ("<ResourceType>/<id>") and live until they
// are deleted or the store is cleared; nothing is evicted or persisted.
package scratchpad
