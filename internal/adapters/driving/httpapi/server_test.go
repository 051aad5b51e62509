package httpapi

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catalogd/internal/core/domain"
)

// mockCatalogService is a mock implementation of driving.CatalogService.
type mockCatalogService struct {
	catalog *domain.Catalog
	err     error
	lastReq domain.CompileRequest
	calls   int
}

func (m *mockCatalogService) FindCatalog(_ context.Context, req domain.CompileRequest) (*domain.Catalog, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.catalog, nil
}

func newTestServer(t *testing.T, catalogs *mockCatalogService, opts Options) *Server {
	t.Helper()
	s, err := NewServer(catalogs, opts)
	require.NoError(t, err)
	s.newID = func() string { return "generated-id" }
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServer_RequiresCatalogService(t *testing.T) {
	_, err := NewServer(nil, Options{})
	assert.ErrorIs(t, err, ErrMissingCatalogService)
}

func TestServer_Status(t *testing.T) {
	s := newTestServer(t, &mockCatalogService{}, Options{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/status/v1/simple", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", rec.Body.String())
}

func TestServer_CatalogGet(t *testing.T) {
	catalogs := &mockCatalogService{catalog: domain.NewCatalog("web01", "production")}
	s := newTestServer(t, catalogs, Options{})

	q := url.Values{}
	q.Set("environment", "production")
	q.Set("configured_environment", "staging")
	q.Set("static_catalog", "true")
	q.Set("checksum_type", "sha256.md5")
	q.Set("code_id", "abc123")
	q.Set("transaction_uuid", "tx-1")
	req := httptest.NewRequest(http.MethodGet, "/puppet/v3/catalog/web01?"+q.Encode(), nil)
	req.Header.Set(CertnameHeader, "web01")

	rec := serve(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	got := catalogs.lastReq
	assert.Equal(t, "web01", got.NodeKey)
	assert.Equal(t, "web01", got.RequestNode)
	assert.Equal(t, "production", got.Environment)
	assert.Equal(t, "staging", got.ConfiguredEnvironment)
	assert.True(t, got.StaticCatalog)
	assert.Equal(t, "sha256.md5", got.ChecksumTypes)
	assert.Equal(t, "abc123", got.CodeID)
	assert.Equal(t, "tx-1", got.TransactionID)
	assert.True(t, got.Remote)
	assert.Nil(t, got.NodeOverride)
	assert.Equal(t, "remote", got.TrustedData["authenticated"])

	var body domain.Catalog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "web01", body.Name)
}

func TestServer_CatalogPostWithFacts(t *testing.T) {
	catalogs := &mockCatalogService{catalog: domain.NewCatalog("web01", "production")}
	s := newTestServer(t, catalogs, Options{})

	facts := url.QueryEscape(`{"name":"web01","values":{"os":"Debian"}}`)
	form := url.Values{}
	form.Set("facts", facts)
	form.Set("facts_format", "json")
	req := httptest.NewRequest(http.MethodPost, "/puppet/v3/catalog/web01", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := serve(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, facts, catalogs.lastReq.RawFacts)
	assert.Equal(t, "json", catalogs.lastReq.FactsFormat)
	assert.Equal(t, "generated-id", catalogs.lastReq.TransactionID)
	assert.Nil(t, catalogs.lastReq.TrustedData)
}

func TestServer_InvalidStaticCatalogParam(t *testing.T) {
	catalogs := &mockCatalogService{}
	s := newTestServer(t, catalogs, Options{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/puppet/v3/catalog/web01?static_catalog=maybe", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, catalogs.calls)
}

func TestServer_ErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
		kind domain.ErrorKind
	}{
		{fmt.Errorf("%w: wrong node", domain.ErrMalformedRequest), http.StatusBadRequest, domain.KindMalformedRequest},
		{fmt.Errorf("could not find node: %w", domain.ErrNotFound), http.StatusNotFound, domain.KindNotFound},
		{fmt.Errorf("%w: no common type", domain.ErrNegotiationFailed), http.StatusNotAcceptable, domain.KindNegotiationFailure},
		{fmt.Errorf("%w: compiler down", domain.ErrUpstream), http.StatusInternalServerError, domain.KindUpstreamFailure},
		{fmt.Errorf("%w: no root", domain.ErrInternalConsistency), http.StatusInternalServerError, domain.KindInternalConsistency},
		{errors.New("boom"), http.StatusInternalServerError, domain.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			s := newTestServer(t, &mockCatalogService{err: tt.err}, Options{})

			rec := serve(s, httptest.NewRequest(http.MethodGet, "/puppet/v3/catalog/web01", nil))

			assert.Equal(t, tt.want, rec.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body.IssueKind)
			assert.Equal(t, tt.err.Error(), body.Message)
		})
	}
}

func TestServer_RateLimit(t *testing.T) {
	catalogs := &mockCatalogService{catalog: domain.NewCatalog("web01", "production")}
	s := newTestServer(t, catalogs, Options{RateLimit: 0.001, Burst: 1})

	first := serve(s, httptest.NewRequest(http.MethodGet, "/puppet/v3/catalog/web01", nil))
	second := serve(s, httptest.NewRequest(http.MethodGet, "/puppet/v3/catalog/web01", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusServiceUnavailable, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	assert.Equal(t, 1, catalogs.calls)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &mockCatalogService{}, Options{})

	rec := serve(s, httptest.NewRequest(http.MethodDelete, "/puppet/v3/catalog/web01", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_GzipResponse(t *testing.T) {
	catalog := domain.NewCatalog("web01", "production")
	for i := 0; i < 200; i++ {
		catalog.Resources = append(catalog.Resources, domain.Resource{Type: "File", Title: fmt.Sprintf("/etc/file-%d", i)})
	}
	s := newTestServer(t, &mockCatalogService{catalog: catalog}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/puppet/v3/catalog/web01", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := serve(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/etc/file-199")
}
