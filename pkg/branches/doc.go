// Package branches answers the two branch questions a log view asks of a
// [dag.PermanentGraph]: which commits are visible for a set of selected
// branch heads ([CurrentBranches]), and which branch heads contain a commit
// ([ContainingBranches]).
//
// Both types own scratch [dag.Flags] and are meant to be used by one
// goroutine at a time. The graph itself may be shared. [BatchContaining]
// runs many containment queries in parallel by giving every worker its own
// getter.
package branches
