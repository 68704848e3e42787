package graph

// =============================================================================
// Row - Visible Row Serialization
// =============================================================================

// Row is the display record for one visible row.
type Row struct {
	Row     int      `json:"row"`
	Hash    string   `json:"hash"`
	Subject string   `json:"subject,omitempty"`
	Author  string   `json:"author,omitempty"`
	Time    int64    `json:"time,omitempty"`
	Refs    []string `json:"refs,omitempty"`
	Head    string   `json:"head,omitempty"` // hash of the head that claimed this commit
	Layout  int      `json:"layout"`
	Up      []Link   `json:"up,omitempty"`
	Down    []Link   `json:"down,omitempty"`
}

// Link is an edge of a row. Row is -1 for a parent outside the loaded log.
type Link struct {
	Row  int    `json:"row"`
	Hash string `json:"hash"`
	Kind string `json:"kind"`
}

// ShortHash abbreviates a hash for display.
func ShortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
