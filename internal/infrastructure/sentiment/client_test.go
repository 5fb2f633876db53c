package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReviewPulse/internal/config"
	"ReviewPulse/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.ClassifierConfig{
		Endpoint:   server.URL,
		MaxRetries: retries,
	}, zerolog.Nop())
}

func items(ids ...string) []domain.ReviewText {
	out := make([]domain.ReviewText, len(ids))
	for i, id := range ids {
		out[i] = domain.ReviewText{ReviewID: id, Text: "the lunch was " + id}
	}
	return out
}

func serveResults(t *testing.T, docs []classifiedDocument) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/classify", r.URL.Path)
		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NoError(t, json.NewEncoder(w).Encode(classifyResponse{Results: docs}))
	}
}

func TestClassifyMapsPermutedResults(t *testing.T) {
	t.Parallel()

	// Reply order differs from input order; every id appears once.
	client := newTestClient(t, serveResults(t, []classifiedDocument{
		{ID: "r3", Label: "NEUTRAL", Score: 0.0, Confidence: 0.5},
		{ID: "r1", Label: "POSITIVE", Score: 0.9, Confidence: 0.95, Aspects: []string{"taste"}},
		{ID: "r2", Label: "NEGATIVE", Score: -0.7, Confidence: 0.8, Evidence: []string{"cold rice"}},
	}), 0)

	results, err := client.Classify(context.Background(), items("r1", "r2", "r3"))
	require.NoError(t, err)
	require.Len(t, results, 3)

	ids := map[string]domain.SentimentLabel{}
	for _, r := range results {
		ids[r.ReviewID] = r.Label
	}
	assert.Equal(t, domain.LabelPositive, ids["r1"])
	assert.Equal(t, domain.LabelNegative, ids["r2"])
	assert.Equal(t, domain.LabelNeutral, ids["r3"])
}

func TestClassifyRejectsLengthMismatch(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, serveResults(t, []classifiedDocument{
		{ID: "r1", Label: "POSITIVE"},
	}), 0)

	_, err := client.Classify(context.Background(), items("r1", "r2", "r3"))
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestClassifyRejectsUnknownAndDuplicateIDs(t *testing.T) {
	t.Parallel()

	unknown := newTestClient(t, serveResults(t, []classifiedDocument{
		{ID: "r1", Label: "POSITIVE"},
		{ID: "zz", Label: "NEGATIVE"},
	}), 0)
	_, err := unknown.Classify(context.Background(), items("r1", "r2"))
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)

	duplicate := newTestClient(t, serveResults(t, []classifiedDocument{
		{ID: "r1", Label: "POSITIVE"},
		{ID: "r1", Label: "NEGATIVE"},
	}), 0)
	_, err = duplicate.Classify(context.Background(), items("r1", "r2"))
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestClassifyRejectsUnknownLabel(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, serveResults(t, []classifiedDocument{
		{ID: "r1", Label: "ECSTATIC"},
	}), 0)

	_, err := client.Classify(context.Background(), items("r1"))
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestClassifyValidatesInput(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("service must not be called for invalid input")
	}, 0)

	_, err := client.Classify(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = client.Classify(context.Background(), []domain.ReviewText{{ReviewID: "r1", Text: ""}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	oversized := []domain.ReviewText{{ReviewID: "r1", Text: strings.Repeat("x", 6000)}}
	_, err = client.Classify(context.Background(), oversized)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClassifyRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(classifyResponse{Results: []classifiedDocument{
			{ID: "r1", Label: "POSITIVE", Score: 0.4, Confidence: 0.9},
		}})
	}

	client := newTestClient(t, handler, 2)
	results, err := client.Classify(context.Background(), items("r1"))
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClassifyGivesUpAfterRetryBudget(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}

	client := newTestClient(t, handler, 1)
	_, err := client.Classify(context.Background(), items("r1"))
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Equal(t, int32(2), calls.Load(), "one attempt plus one retry")
}

func TestClassifyDoesNotRetryBadRequests(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}

	client := newTestClient(t, handler, 3)
	_, err := client.Classify(context.Background(), items("r1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int32(1), calls.Load())
}
