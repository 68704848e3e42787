// Package api serves a loaded commit log over HTTP.
//
// The server holds one [graph.Log] and lets clients open any number of
// sessions on it. Each session keeps its own branch selection, filter and
// collapse state behind a session.Handle, so concurrent requests against the
// same session are applied one at a time.
//
// # Routes
//
//	GET    /healthz
//	GET    /log                          commit and ref counts, content hash
//	GET    /refs                         refs of the log
//	POST   /sessions                     open a session
//	GET    /sessions/{id}                selection and row count
//	DELETE /sessions/{id}
//	GET    /sessions/{id}/rows           ?offset=&limit=
//	GET    /sessions/{id}/rows/{row}
//	PUT    /sessions/{id}/branches       {"branches": ["main"]} or null for all
//	PUT    /sessions/{id}/filter         {"prefix": "3b1"}; "!3b1" hides them
//	POST   /sessions/{id}/actions        {"action": "click-edge", "row": 3, "target": 9}
//	GET    /sessions/{id}/containing     ?ref=
//	POST   /sessions/{id}/containing     {"refs": ["3b1", "v1.2"]}
//	GET    /sessions/{id}/focus          ?ref=&max_lookback=&max_layout_jump=
//	GET    /sessions/{id}/dot            Graphviz source of the visible rows
//
// Errors are JSON bodies {"code": "...", "message": "..."} with the status
// chosen from the error code; see [StatusFor].
package api
