package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docseek/docseek/internal/apperr"
	"github.com/docseek/docseek/internal/dm"
	"github.com/docseek/docseek/internal/dm/dmtest"
	"github.com/docseek/docseek/internal/embeddings"
	"github.com/docseek/docseek/internal/finder"
	"github.com/docseek/docseek/internal/fuzzy"
	"github.com/docseek/docseek/internal/index"
	"github.com/docseek/docseek/internal/locator"
	"github.com/docseek/docseek/internal/search"
)

func newTestRouter(t *testing.T, withIndex bool, defaultToken string) http.Handler {
	t.Helper()
	srv := dmtest.NewServer(t, dmtest.Scenario())
	client := dm.NewClient(dm.Config{BaseURL: srv.URL}, nil)

	opts := finder.Options{
		Repository: client,
		Ranking:    search.DefaultOptions(),
		Fuzzy:      fuzzy.Lexical{},
		Logger:     zap.NewNop(),
	}
	if withIndex {
		site := locator.Compose(srv.URL, locator.Locator{ContainerKey: "wip.dm.prod", ObjectKey: "folder/site_plan.pdf"})
		idx, err := index.New([]index.Record{
			{Name: "site_plan.pdf", Vector: []float32{0.81, 0.5864}, Href: site},
			{Name: "budget.xlsx", Vector: []float32{0.12, 0.9928}, Href: "https://example.test/oss/v2/buckets/b/objects/budget.xlsx"},
		})
		require.NoError(t, err)
		opts.Index = idx
		opts.Embedder = &embeddings.Static{Vectors: map[string][]float32{
			"the site plan pdf": {1, 0},
			"something else":    {0, -1},
		}}
	}
	return NewRouter(finder.New(opts), defaultToken, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, false, "")
	rec := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFind(t *testing.T) {
	h := newTestRouter(t, true, "")

	rec := do(t, h, http.MethodPost, "/v1/find", "", map[string]any{"query": "the site plan pdf"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp FindResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "site_plan.pdf", resp.Matches[0].Name)
}

func TestFind_Validation(t *testing.T) {
	h := newTestRouter(t, true, "")

	rec := do(t, h, http.MethodPost, "/v1/find", "", map[string]any{"query": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/find", bytes.NewBufferString("{not json"))
	bad := httptest.NewRecorder()
	h.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestFind_NoIndex(t *testing.T) {
	h := newTestRouter(t, false, "")
	rec := do(t, h, http.MethodPost, "/v1/find", "", map[string]any{"query": "the site plan pdf"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestFindAndDownload(t *testing.T) {
	h := newTestRouter(t, true, "")

	rec := do(t, h, http.MethodPost, "/v1/find-and-download", "tok", map[string]any{"query": "the site plan pdf"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp FindAndDownloadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "site_plan.pdf", resp.Download.Name)
	assert.Contains(t, resp.Download.URL, "X-Amz-Signature")

	rec = do(t, h, http.MethodPost, "/v1/find-and-download", "tok", map[string]any{"query": "something else"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCredentialRequired(t *testing.T) {
	h := newTestRouter(t, true, "")

	rec := do(t, h, http.MethodGet, "/v1/hubs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/hubs", "stale", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDefaultToken(t *testing.T) {
	h := newTestRouter(t, false, "tok")

	rec := do(t, h, http.MethodGet, "/v1/hubs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Hubs []dm.Node `json:"hubs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Hubs, 2)
	assert.Equal(t, "Sunway Velocity", resp.Hubs[0].Name)
}

func TestDownloadURL_Malformed(t *testing.T) {
	h := newTestRouter(t, false, "tok")
	rec := do(t, h, http.MethodPost, "/v1/download-url", "", map[string]string{"href": "https://example.test/no/locator/here"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestNavigate(t *testing.T) {
	h := newTestRouter(t, false, "tok")

	rec := do(t, h, http.MethodPost, "/v1/navigate", "", map[string]any{
		"hub":     "sunway velocity",
		"project": "velocity tower",
		"folders": []string{"drawings"},
		"file":    "site plan",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp NavigateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, dm.KindFile, resp.Node.Kind)
	assert.Equal(t, "site_plan.pdf", resp.Node.Name)
	require.NotNil(t, resp.Download)
	assert.Equal(t, locator.Locator{ContainerKey: "wip.dm.prod", ObjectKey: "folder/site_plan.pdf"}, resp.Download.Locator)
}

func TestNavigate_MissingProject(t *testing.T) {
	h := newTestRouter(t, false, "tok")
	rec := do(t, h, http.MethodPost, "/v1/navigate", "", map[string]any{"hub": "sunway"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", apperr.ErrAuthenticationExpired), http.StatusUnauthorized},
		{apperr.ErrResolutionNotFound, http.StatusNotFound},
		{apperr.ErrNoConfidentMatch, http.StatusNotFound},
		{apperr.ErrMalformedLocator, http.StatusUnprocessableEntity},
		{apperr.ErrSignedURLMissing, http.StatusBadGateway},
		{&apperr.UpstreamError{Status: 500, Body: "boom"}, http.StatusBadGateway},
		{apperr.ErrEmbeddingService, http.StatusServiceUnavailable},
		{finder.ErrNoIndex, http.StatusServiceUnavailable},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}
