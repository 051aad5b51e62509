package services

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catalogd/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
)

func encodedFacts(name string) string {
	return url.QueryEscape(`{"name":"` + name + `","values":{"os":"linux","tz":"+0000"}}`)
}

func TestFactIntake_NoFacts(t *testing.T) {
	decoder := &mockDecoder{}
	store := memory.NewFactStore()
	intake := NewFactIntake(decoder, store, nil)

	facts, err := intake.Ingest(context.Background(), domain.CompileRequest{NodeKey: "web01"})

	require.NoError(t, err)
	assert.Nil(t, facts)
	assert.Zero(t, decoder.calls)
	assert.Zero(t, store.Count())
}

func TestFactIntake_MissingFormat(t *testing.T) {
	intake := NewFactIntake(&mockDecoder{}, memory.NewFactStore(), nil)

	_, err := intake.Ingest(context.Background(), domain.CompileRequest{
		NodeKey:  "web01",
		RawFacts: encodedFacts("web01"),
	})

	assert.ErrorIs(t, err, domain.ErrMalformedRequest)
}

func TestFactIntake_DecodesAndSaves(t *testing.T) {
	store := memory.NewFactStore()
	profiler := &recordingProfiler{}
	intake := NewFactIntake(&mockDecoder{}, store, profiler)
	ctx := context.Background()

	facts, err := intake.Ingest(ctx, domain.CompileRequest{
		NodeKey:       "web01",
		Environment:   "production",
		TransactionID: "tx-42",
		RawFacts:      encodedFacts("web01"),
		FactsFormat:   "json",
	})

	require.NoError(t, err)
	require.NotNil(t, facts)
	assert.Equal(t, "web01", facts.Name)
	assert.Equal(t, "+0000", facts.Values["tz"])
	assert.Equal(t, []string{"Found facts"}, profiler.labels)

	rec, err := store.Get(ctx, "web01")
	require.NoError(t, err)
	assert.Equal(t, "production", rec.Environment)
	assert.Equal(t, "tx-42", rec.TransactionID)
}

// spanCheckingFactStore records the profiler span active during Save.
type spanCheckingFactStore struct {
	*memory.FactStore
	profiler    *recordingProfiler
	savedInside string
}

func (s *spanCheckingFactStore) Save(ctx context.Context, facts *domain.Facts, owner string, opts driven.FactSaveOptions) error {
	s.savedInside = s.profiler.active
	return s.FactStore.Save(ctx, facts, owner, opts)
}

func TestFactIntake_SavesInsideFactSpan(t *testing.T) {
	profiler := &recordingProfiler{}
	store := &spanCheckingFactStore{FactStore: memory.NewFactStore(), profiler: profiler}
	intake := NewFactIntake(&mockDecoder{}, store, profiler)

	_, err := intake.Ingest(context.Background(), domain.CompileRequest{
		NodeKey:     "web01",
		RawFacts:    encodedFacts("web01"),
		FactsFormat: "json",
	})

	require.NoError(t, err)
	assert.Equal(t, "Found facts", store.savedInside)
	assert.Equal(t, 1, store.Count())
}

func TestFactIntake_PreDecodedFactsPassThrough(t *testing.T) {
	decoder := &mockDecoder{}
	intake := NewFactIntake(decoder, memory.NewFactStore(), nil)
	given := &domain.Facts{Name: "web01", Values: map[string]any{"a": 1}}

	facts, err := intake.Ingest(context.Background(), domain.CompileRequest{
		NodeKey:     "web01",
		Facts:       given,
		FactsFormat: "json",
	})

	require.NoError(t, err)
	assert.Same(t, given, facts)
	assert.Zero(t, decoder.calls)
}

func TestFactIntake_IdentityMismatch(t *testing.T) {
	store := memory.NewFactStore()
	intake := NewFactIntake(&mockDecoder{}, store, nil)

	_, err := intake.Ingest(context.Background(), domain.CompileRequest{
		NodeKey:     "host-a",
		RawFacts:    encodedFacts("host-b"),
		FactsFormat: "json",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedRequest)
	assert.Contains(t, err.Error(), "wrong node (host-b)")
	assert.Zero(t, store.Count())
}

func TestFactIntake_UnsupportedFormat(t *testing.T) {
	intake := NewFactIntake(&mockDecoder{}, memory.NewFactStore(), nil)

	_, err := intake.Ingest(context.Background(), domain.CompileRequest{
		NodeKey:     "web01",
		RawFacts:    encodedFacts("web01"),
		FactsFormat: "msgpack",
	})

	assert.ErrorIs(t, err, domain.ErrMalformedRequest)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestFactIntake_InvalidPayload(t *testing.T) {
	intake := NewFactIntake(&mockDecoder{}, memory.NewFactStore(), nil)

	_, err := intake.Ingest(context.Background(), domain.CompileRequest{
		NodeKey:     "web01",
		RawFacts:    "%zz",
		FactsFormat: "json",
	})

	assert.ErrorIs(t, err, domain.ErrMalformedRequest)
}
