// Package graph defines the serialization format for commit logs and the
// rows produced from them.
//
// # Log Files
//
// A [Log] is an ordered list of commit records (newest first) plus the refs
// that name branch heads. Logs are read and written as JSON or TOML; the
// format is picked from the file extension:
//
//	{
//	  "commits": [
//	    {"hash": "9fceb02", "parents": ["3b18e51"], "subject": "fix parser"},
//	    {"hash": "3b18e51", "parents": []}
//	  ],
//	  "refs": [{"name": "main", "hash": "9fceb02"}]
//	}
//
// The same log as TOML:
//
//	[[commits]]
//	hash = "9fceb02"
//	parents = ["3b18e51"]
//	subject = "fix parser"
//
//	[[commits]]
//	hash = "3b18e51"
//
//	[[refs]]
//	name = "main"
//	hash = "9fceb02"
//
// # Rows
//
// [Row] is the display record for one visible row of a view: the commit, its
// edges in row space, and the head it belongs to. It is what the CLI prints
// and what the HTTP API returns.
//
// # Round Trips
//
// Reading a log and writing it back in the same format produces an
// equivalent document. Field order and whitespace may differ.
package graph
