// Package view projects a [dag.PermanentGraph] onto the dense list of rows a
// log table displays.
//
// # Views
//
// A [View] maps rows 0..CountVisibleNodes()-1 to node indices, newest first.
// Two variants exist:
//
//   - [FilterView] shows the commits of the selected branches that match a
//     [Predicate]. Edges that pass through filtered-out commits are reported
//     as [EdgeDotted].
//   - [CollapsedView] shows every commit of the selected branches but can
//     fold long linear runs of history into a single [EdgeCollapsed] edge.
//
// Both views read branch visibility from a [branches.CurrentBranches]. Any
// change to branch selection, filter or collapse state rebuilds the row
// mapping from scratch; there is no incremental patching.
//
// # Actions
//
// UI input arrives as an [Action]. [View.PerformAction] returns the row the
// UI should scroll to, or -1 when the action caused no jump.
//
// # Concurrency
//
// Views are mutable and single-owner. Use package session to share one
// between goroutines.
package view
