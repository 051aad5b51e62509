package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/catalogd/internal/core/domain"
)

// CertnameHeader carries the authenticated certificate name of the caller,
// as set by a TLS-terminating proxy.
const CertnameHeader = "X-Client-Certname"

// Catalog request parameters.
const (
	paramEnvironment           = "environment"
	paramConfiguredEnvironment = "configured_environment"
	paramFacts                 = "facts"
	paramFactsFormat           = "facts_format"
	paramTransactionUUID       = "transaction_uuid"
	paramStaticCatalog         = "static_catalog"
	paramChecksumType          = "checksum_type"
	paramCodeID                = "code_id"
)

// errorResponse is the body of a failed request.
type errorResponse struct {
	Message   string           `json:"message"`
	IssueKind domain.ErrorKind `json:"issue_kind"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Message:   "too many concurrent compiles",
			IssueKind: domain.KindUpstreamFailure,
		})
		return
	}

	req, err := s.compileRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	catalog, err := s.catalogs.FindCatalog(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// compileRequest reads a compile request from the URL and form parameters.
// The request is always remote; node overrides cannot be sent over HTTP.
func (s *Server) compileRequest(r *http.Request) (domain.CompileRequest, error) {
	if err := r.ParseForm(); err != nil {
		return domain.CompileRequest{}, errors.Join(domain.ErrMalformedRequest, err)
	}
	form := r.Form

	req := domain.CompileRequest{
		NodeKey:               mux.Vars(r)["node"],
		RequestNode:           r.Header.Get(CertnameHeader),
		Environment:           form.Get(paramEnvironment),
		ConfiguredEnvironment: form.Get(paramConfiguredEnvironment),
		TransactionID:         form.Get(paramTransactionUUID),
		CodeID:                form.Get(paramCodeID),
		ChecksumTypes:         form.Get(paramChecksumType),
		RawFacts:              form.Get(paramFacts),
		FactsFormat:           form.Get(paramFactsFormat),
		Remote:                true,
	}
	if req.TransactionID == "" {
		req.TransactionID = s.newID()
	}

	if v := form.Get(paramStaticCatalog); v != "" {
		static, err := strconv.ParseBool(v)
		if err != nil {
			return domain.CompileRequest{}, errors.Join(domain.ErrMalformedRequest,
				errors.New("static_catalog must be true or false"))
		}
		req.StaticCatalog = static
	}

	if req.RequestNode != "" {
		req.TrustedData = map[string]any{
			"authenticated": "remote",
			"certname":      req.RequestNode,
			"extensions":    map[string]any{},
		}
	}
	return req, nil
}

// statusFor maps an error kind to an HTTP status.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindMalformedRequest:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindNegotiationFailure:
		return http.StatusNotAcceptable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	writeJSON(w, statusFor(kind), errorResponse{Message: err.Error(), IssueKind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
