package dag

// Hashes interns commit hash strings into dense hash indices.
//
// Indices are assigned in order of first Put, starting at 0. A graph interns
// its commits first and then any parent hash outside the loaded window, so
// hash indices of loaded commits are not necessarily equal to node indices
// (duplicates and foreign parents shift them).
type Hashes struct {
	index map[string]int
	list  []string
}

// NewHashes returns an empty interner sized for n hashes.
func NewHashes(n int) *Hashes {
	return &Hashes{
		index: make(map[string]int, n),
		list:  make([]string, 0, n),
	}
}

// Put returns the index of hash, assigning the next index on first sight.
func (h *Hashes) Put(hash string) int {
	if i, ok := h.index[hash]; ok {
		return i
	}
	i := len(h.list)
	h.index[hash] = i
	h.list = append(h.list, hash)
	return i
}

// Index returns the index of hash and whether it is known.
func (h *Hashes) Index(hash string) (int, bool) {
	i, ok := h.index[hash]
	return i, ok
}

// Hash returns the hash string for index i.
func (h *Hashes) Hash(i int) string { return h.list[i] }

// Len returns the number of interned hashes.
func (h *Hashes) Len() int { return len(h.list) }
