package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/logtower/pkg/buildinfo"
	"github.com/matzehuels/logtower/pkg/errors"
	"github.com/matzehuels/logtower/pkg/graph"
)

// testLog is main (m3 m2 m1) with feature (f2 f1) forked at m1.
func testLog() *graph.Log {
	return &graph.Log{
		Commits: []graph.Commit{
			{Hash: "f2", Parents: []string{"f1"}},
			{Hash: "m3", Parents: []string{"m2"}},
			{Hash: "f1", Parents: []string{"m1"}},
			{Hash: "m2", Parents: []string{"m1"}},
			{Hash: "m1", Parents: []string{"m0"}},
		},
		Refs: []graph.Ref{{Name: "main", Hash: "m3"}, {Name: "feature", Hash: "f2"}},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(Config{Log: testLog(), Logger: log.New(io.Discard)})
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createSession(t *testing.T, s *Server, req any) SessionResponse {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/sessions", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[SessionResponse](t, rec)
}

func TestNewRequiresLog(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealthAndLog(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "logtower/"+buildinfo.Version, rec.Header().Get("Server"))
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	rec = do(t, s, http.MethodGet, "/log", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[LogResponse](t, rec)
	assert.Equal(t, 5, info.Commits)
	assert.Equal(t, 2, info.Refs)
	assert.Len(t, info.Hash, 64)

	rec = do(t, s, http.MethodGet, "/refs", nil)
	refs := decode[[]graph.Ref](t, rec)
	assert.Len(t, refs, 2)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)

	sess := createSession(t, s, nil)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "collapsed", sess.View)
	assert.Equal(t, 5, sess.Count)

	rec := do(t, s, http.MethodGet, "/sessions/"+sess.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/sessions/"+sess.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/sessions/"+sess.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrCodeSessionNotFound, decode[ErrorBody](t, rec).Code)
}

func TestCreateSessionInvalid(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/sessions", CreateSessionRequest{View: "tree"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/sessions", CreateSessionRequest{Branches: []string{"gone"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrCodeNotFound, decode[ErrorBody](t, rec).Code)

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"bogus": 1}`))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateSessionMatchesGet(t *testing.T) {
	s := newTestServer(t)

	created := createSession(t, s, CreateSessionRequest{
		View:     "filter",
		Filter:   "!f",
		Branches: []string{"main"},
		Priority: []string{"main"},
	})
	assert.Equal(t, 3, created.Count)
	assert.Equal(t, []string{"main"}, created.Priority)

	rec := do(t, s, http.MethodGet, "/sessions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[SessionResponse](t, rec))
}

func TestCreateSessionPriority(t *testing.T) {
	s := newTestServer(t)

	headOfM1 := func(req any) string {
		sess := createSession(t, s, req)
		rec := do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/rows/4", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		row := decode[graph.Row](t, rec)
		require.Equal(t, "m1", row.Hash)
		return row.Head
	}
	assert.Equal(t, "f2", headOfM1(nil))
	assert.Equal(t, "m3", headOfM1(CreateSessionRequest{Priority: []string{"main"}}))

	rec := do(t, s, http.MethodPost, "/sessions", CreateSessionRequest{Priority: []string{"gone"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRows(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, nil)

	rec := do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/rows?offset=1&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[RowsResponse](t, rec)
	assert.Equal(t, 5, page.Count)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "m3", page.Rows[0].Hash)
	assert.Equal(t, "f1", page.Rows[1].Hash)

	rec = do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/rows?offset=9", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[RowsResponse](t, rec).Rows)

	rec = do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/rows?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRow(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, nil)

	rec := do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/rows/4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	row := decode[graph.Row](t, rec)
	assert.Equal(t, "m1", row.Hash)
	require.Len(t, row.Down, 1)
	assert.Equal(t, graph.Link{Row: -1, Hash: "m0", Kind: "not-loaded"}, row.Down[0])

	rec = do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/rows/5", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorBody](t, rec)
	assert.Equal(t, errors.ErrCodeRowOutOfRange, body.Code)
	assert.Contains(t, body.Message, "row 5 not in [0, 5)")

	rec = do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/rows/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetBranches(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, nil)
	path := "/sessions/" + sess.ID + "/branches"

	rec := do(t, s, http.MethodPut, path, BranchesRequest{Branches: []string{"feature"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[SessionResponse](t, rec)
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, []string{"feature"}, got.Branches)

	rec = do(t, s, http.MethodPut, path, BranchesRequest{Branches: []string{"nope"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPut, path, BranchesRequest{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[SessionResponse](t, rec).Count)
}

func TestSetFilter(t *testing.T) {
	s := newTestServer(t)

	collapsed := createSession(t, s, nil)
	rec := do(t, s, http.MethodPut, "/sessions/"+collapsed.ID+"/filter", FilterRequest{Prefix: "m"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	filtered := createSession(t, s, CreateSessionRequest{View: "filter"})
	rec = do(t, s, http.MethodPut, "/sessions/"+filtered.ID+"/filter", FilterRequest{Prefix: "m"})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[SessionResponse](t, rec)
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, "m", got.Filter)
}

func TestAction(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, nil)
	path := "/sessions/" + sess.ID + "/actions"

	rec := do(t, s, http.MethodPost, path, ActionRequest{Action: "hover", Row: 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ActionResponse{Row: -1, Count: 5}, decode[ActionResponse](t, rec))

	rec = do(t, s, http.MethodPost, path, ActionRequest{Action: "explode"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrCodeInvalidAction, decode[ErrorBody](t, rec).Code)

	rec = do(t, s, http.MethodPost, path, ActionRequest{Action: "click-node", Row: 99})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContaining(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, nil)

	rec := do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/containing?ref=m1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"feature", "main"}, decode[ContainingResponse](t, rec).Branches)

	rec = do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/containing?ref=m3", nil)
	assert.Equal(t, []string{"main"}, decode[ContainingResponse](t, rec).Branches)

	rec = do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/containing", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContainingBatch(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, nil)
	path := "/sessions/" + sess.ID + "/containing"

	rec := do(t, s, http.MethodPost, path, ContainingRequest{Refs: []string{"m1", "m3"}})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]ContainingResponse](t, rec)
	require.Len(t, got, 2)
	assert.Equal(t, ContainingResponse{Ref: "m1", Branches: []string{"feature", "main"}}, got[0])
	assert.Equal(t, ContainingResponse{Ref: "m3", Branches: []string{"main"}}, got[1])

	rec = do(t, s, http.MethodPost, path, ContainingRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, path, ContainingRequest{Refs: []string{"nope"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFocus(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, nil)

	rec := do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/focus?ref=feature", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	focus := decode[FocusResponse](t, rec)
	assert.Len(t, focus.Order, 5)
	assert.ElementsMatch(t, []string{"f2", "m3", "f1", "m2", "m1"}, focus.Order)

	rec = do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/focus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/focus?ref=feature&max_lookback=-2", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/focus?ref=feature&max_lookback=-1&max_layout_jump=-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[FocusResponse](t, rec).Order, 5)
}

func TestDOT(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, nil)

	rec := do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/dot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/vnd.graphviz; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"m3" -> "m2";`)

	rec = do(t, s, http.MethodGet, "/sessions/missing/dot", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidRequest, http.StatusBadRequest},
		{errors.ErrCodeInvalidInput, http.StatusBadRequest},
		{errors.ErrCodeRowOutOfRange, http.StatusBadRequest},
		{errors.ErrCodeNotFound, http.StatusNotFound},
		{errors.ErrCodeSessionNotFound, http.StatusNotFound},
		{errors.ErrCodeUnsupported, http.StatusUnprocessableEntity},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.code), tt.code)
	}
}
