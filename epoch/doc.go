// Package epoch tags numeric node handles with allocation generations.
//
// A layout engine is free to recycle the numeric id of a removed node for
// the next allocation. A host that kept the old number would then silently
// address the new node. Table pairs every live handle with an Epoch drawn
// from a process-wide counter:
//
//	e := table.Issue(h)              // allocation
//	table.IsCurrent(h, e)            // validity check before trusting h
//	table.ReleaseIfCurrent(h, e)     // free; no-op if h was reused
//
// ReleaseIfCurrent is a compare-and-remove: a late release from a stale
// holder cannot remove the entry of a newer allocation. Clear empties the
// table but the counter keeps counting, so epochs issued before a Clear
// never match entries created after it.
//
// Observers receive Issued, Superseded, Released and Cleared events.
package epoch
