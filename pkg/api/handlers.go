package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/logtower/pkg/buildinfo"
	"github.com/matzehuels/logtower/pkg/errors"
	"github.com/matzehuels/logtower/pkg/graph"
	"github.com/matzehuels/logtower/pkg/ordering"
	"github.com/matzehuels/logtower/pkg/render/dot"
	"github.com/matzehuels/logtower/pkg/session"
	"github.com/matzehuels/logtower/pkg/view"
)

// =============================================================================
// Request and response bodies
// =============================================================================

// CreateSessionRequest opens a session. Every field is optional.
type CreateSessionRequest struct {
	View        string   `json:"view,omitempty"`
	MinFragment int      `json:"min_fragment,omitempty"`
	Branches    []string `json:"branches,omitempty"`
	Filter      string   `json:"filter,omitempty"`
	Priority    []string `json:"priority,omitempty"`
}

// SessionResponse describes a session.
type SessionResponse struct {
	ID       string   `json:"id"`
	View     string   `json:"view"`
	Branches []string `json:"branches"`
	Filter   string   `json:"filter,omitempty"`
	Priority []string `json:"priority,omitempty"`
	Count    int      `json:"count"`
}

// RowsResponse is one page of rows.
type RowsResponse struct {
	Count  int         `json:"count"`
	Offset int         `json:"offset"`
	Rows   []graph.Row `json:"rows"`
}

// BranchesRequest selects branches. Null shows every branch.
type BranchesRequest struct {
	Branches []string `json:"branches"`
}

// FilterRequest sets the hash-prefix filter.
type FilterRequest struct {
	Prefix string `json:"prefix"`
}

// ActionRequest is a UI action.
type ActionRequest struct {
	Action string `json:"action"`
	Row    int    `json:"row"`
	Target int    `json:"target,omitempty"`
}

// ActionResponse reports where to jump and the new row count.
type ActionResponse struct {
	Row   int `json:"row"`
	Count int `json:"count"`
}

// ContainingResponse lists the branches containing a commit.
type ContainingResponse struct {
	Ref      string   `json:"ref"`
	Branches []string `json:"branches"`
}

// ContainingRequest asks for the containing branches of several commits.
type ContainingRequest struct {
	Refs []string `json:"refs"`
}

// FocusResponse is a focus order.
type FocusResponse struct {
	Ref    string   `json:"ref"`
	Cached bool     `json:"cached"`
	Order  []string `json:"order"`
}

// LogResponse summarizes the served log.
type LogResponse struct {
	Hash    string `json:"hash"`
	Commits int    `json:"commits"`
	Refs    int    `json:"refs"`
}

func describe(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:       s.ID,
		View:     string(s.Mode()),
		Branches: s.SelectedBranches(),
		Filter:   s.Filter(),
		Priority: s.Priority(),
		Count:    s.Count(),
	}
}

// =============================================================================
// Log handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
	})
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LogResponse{Hash: s.logHash, Commits: len(s.log.Commits), Refs: len(s.log.Refs)})
}

func (s *Server) handleRefs(w http.ResponseWriter, r *http.Request) {
	refs := s.log.Refs
	if refs == nil {
		refs = []graph.Ref{}
	}
	writeJSON(w, http.StatusOK, refs)
}

// =============================================================================
// Session handlers
// =============================================================================

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	opts := s.defaults
	if req.View != "" {
		opts.View = req.View
	}
	if req.MinFragment > 0 {
		opts.MinFragment = req.MinFragment
	}
	if req.Branches != nil {
		opts.Branches = req.Branches
	}
	if req.Filter != "" {
		opts.Filter = req.Filter
	}
	if req.Priority != nil {
		opts.Priority = req.Priority
	}

	sess, err := s.runner.Open(s.log, opts)
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeInvalidRequest, err, "open session")
		}
		s.writeError(w, r, err)
		return
	}
	// Once stored, sess belongs to the handle goroutine.
	resp := describe(sess)
	h := session.NewHandle(sess)
	if err := s.store.Put(r.Context(), h); err != nil {
		h.Close()
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// withSession runs fn on the session named by the {id} URL parameter.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*session.Session) (any, error)) {
	h, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var out any
	err = h.Do(r.Context(), func(sess *session.Session) error {
		var err error
		out, err = fn(sess)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		return describe(sess), nil
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Get(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit", 100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		rows, err := sess.Rows(offset, limit)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []graph.Row{}
		}
		return RowsResponse{Count: sess.Count(), Offset: offset, Rows: rows}, nil
	})
}

func (s *Server) handleRow(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidRequest, "row must be an integer"))
		return
	}
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		return sess.Row(row)
	})
}

func (s *Server) handleSetBranches(w http.ResponseWriter, r *http.Request) {
	var req BranchesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		if err := sess.SetVisibleBranches(r.Context(), req.Branches); err != nil {
			return nil, err
		}
		return describe(sess), nil
	})
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		if err := sess.SetFilter(r.Context(), req.Prefix); err != nil {
			return nil, err
		}
		return describe(sess), nil
	})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	kind, err := view.ParseActionKind(req.Action)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		row, err := sess.PerformAction(r.Context(), view.Action{Kind: kind, Row: req.Row, Target: req.Target})
		if err != nil {
			return nil, err
		}
		return ActionResponse{Row: row, Count: sess.Count()}, nil
	})
}

func (s *Server) handleContaining(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidRequest, "ref is required"))
		return
	}
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		names, err := sess.Containing(ref)
		if err != nil {
			return nil, err
		}
		if names == nil {
			names = []string{}
		}
		return ContainingResponse{Ref: ref, Branches: names}, nil
	})
}

func (s *Server) handleContainingBatch(w http.ResponseWriter, r *http.Request) {
	var req ContainingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Refs) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidRequest, "refs is required"))
		return
	}
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		all, err := sess.ContainingAll(r.Context(), req.Refs)
		if err != nil {
			return nil, err
		}
		out := make([]ContainingResponse, len(all))
		for i, names := range all {
			if names == nil {
				names = []string{}
			}
			out[i] = ContainingResponse{Ref: req.Refs[i], Branches: names}
		}
		return out, nil
	})
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	opts := s.defaults
	opts.Focus = r.URL.Query().Get("ref")
	if opts.Focus == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidRequest, "ref is required"))
		return
	}
	var err error
	if opts.MaxLookback, err = thresholdParam(r, "max_lookback", opts.MaxLookback); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.MaxLayoutJump, err = thresholdParam(r, "max_layout_jump", opts.MaxLayoutJump); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		order, hit, err := s.runner.OrderWithCacheInfo(r.Context(), sess, s.logHash, opts)
		if err != nil {
			return nil, err
		}
		return FocusResponse{Ref: opts.Focus, Cached: hit, Order: order}, nil
	})
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	detailed := r.URL.Query().Get("detailed") == "true"
	h, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var src string
	err = h.Do(r.Context(), func(sess *session.Session) error {
		rows, err := sess.Rows(0, 0)
		if err != nil {
			return err
		}
		src = dot.ToDOT(rows, dot.Options{Detailed: detailed})
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = w.Write([]byte(src))
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(errors.ErrCodeInvalidRequest, "%s must be a non-negative integer", name)
	}
	return n, nil
}

// thresholdParam reads a focus threshold: -1 (none), 0 (default) or positive.
func thresholdParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < ordering.None {
		return 0, errors.New(errors.ErrCodeInvalidRequest, "%s must be -1, 0 or a positive integer", name)
	}
	return n, nil
}
