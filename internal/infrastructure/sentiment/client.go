package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"ReviewPulse/internal/config"
	"ReviewPulse/internal/domain"
	"ReviewPulse/internal/metrics"
	"ReviewPulse/internal/ports"
)

// Client talks to the external sentiment analysis service. All calls
// are atomic: either every input id gets exactly one result, or the
// batch fails with an error kind the orchestrator records.
type Client struct {
	endpoint   string
	apiKey     string
	http       *http.Client
	maxRetries uint64
	maxTextLen int
	logger     zerolog.Logger
}

var _ ports.SentimentClassifier = (*Client)(nil)

// NewClient creates a reusable HTTP client for the sentiment service.
func NewClient(cfg config.ClassifierConfig, logger zerolog.Logger) *Client {
	maxText := cfg.MaxTextLength
	if maxText <= 0 {
		maxText = 5000
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		http:       &http.Client{Timeout: cfg.Timeout()},
		maxRetries: uint64(retries),
		maxTextLen: maxText,
		logger:     logger,
	}
}

type classifyRequest struct {
	Documents []classifyDocument `json:"documents"`
}

type classifyDocument struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type classifyResponse struct {
	Results []classifiedDocument `json:"results"`
}

type classifiedDocument struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Aspects    []string `json:"aspects"`
	Evidence   []string `json:"evidence"`
}

// Classify submits the batch and maps the reply onto domain results.
// Transient transport failures are retried with exponential backoff up
// to the configured retry limit; contract violations are not.
func (c *Client) Classify(ctx context.Context, items []domain.ReviewText) ([]domain.ClassificationResult, error) {
	if err := validateInput(items, c.maxTextLen); err != nil {
		return nil, err
	}

	payload := classifyRequest{Documents: make([]classifyDocument, len(items))}
	for i, item := range items {
		payload.Documents[i] = classifyDocument{ID: item.ReviewID, Text: item.Text}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal classify payload: %w", err)
	}

	var parsed classifyResponse
	operation := func() error {
		parsed = classifyResponse{}
		return c.post(ctx, body, &parsed)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		metrics.ClassificationRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	results, err := mapResults(items, parsed.Results)
	if err != nil {
		metrics.ClassificationRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.ClassificationRequests.WithLabelValues("ok").Inc()
	return results, nil
}

func (c *Client) post(ctx context.Context, body []byte, v *classifyResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/classify", bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("%w: new request: %s", domain.ErrServiceUnavailable, err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("classification request failed, may retry")
		return fmt.Errorf("%w: %s", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest:
		return backoff.Permanent(fmt.Errorf("%w: service rejected batch: %s", domain.ErrInvalidInput, resp.Status))
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn().Str("status", resp.Status).Msg("classification service unavailable, may retry")
		return fmt.Errorf("%w: status %s", domain.ErrServiceUnavailable, resp.Status)
	default:
		return backoff.Permanent(fmt.Errorf("%w: unexpected status %s", domain.ErrServiceUnavailable, resp.Status))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return backoff.Permanent(fmt.Errorf("%w: decode body: %s", domain.ErrMalformedResponse, err))
	}

	return nil
}

func validateInput(items []domain.ReviewText, maxTextLen int) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: empty batch", domain.ErrInvalidInput)
	}
	for _, item := range items {
		if item.Text == "" {
			return fmt.Errorf("%w: review %s has empty text", domain.ErrInvalidInput, item.ReviewID)
		}
		if len(item.Text) > maxTextLen {
			return fmt.Errorf("%w: review %s exceeds %d bytes", domain.ErrInvalidInput, item.ReviewID, maxTextLen)
		}
	}
	return nil
}

// mapResults enforces the batch contract: every input id appears in the
// reply exactly once and every label belongs to the closed set.
func mapResults(items []domain.ReviewText, docs []classifiedDocument) ([]domain.ClassificationResult, error) {
	if len(docs) != len(items) {
		return nil, fmt.Errorf("%w: sent %d documents, got %d results", domain.ErrMalformedResponse, len(items), len(docs))
	}

	expected := make(map[string]bool, len(items))
	for _, item := range items {
		expected[item.ReviewID] = true
	}

	results := make([]domain.ClassificationResult, len(docs))
	seen := make(map[string]bool, len(docs))
	for i, doc := range docs {
		if !expected[doc.ID] {
			return nil, fmt.Errorf("%w: unknown result id %q", domain.ErrMalformedResponse, doc.ID)
		}
		if seen[doc.ID] {
			return nil, fmt.Errorf("%w: duplicate result id %q", domain.ErrMalformedResponse, doc.ID)
		}
		seen[doc.ID] = true

		label := domain.SentimentLabel(doc.Label)
		if !domain.ValidLabel(label) {
			return nil, fmt.Errorf("%w: unknown label %q for id %q", domain.ErrMalformedResponse, doc.Label, doc.ID)
		}

		results[i] = domain.ClassificationResult{
			ReviewID:   doc.ID,
			Label:      label,
			Score:      doc.Score,
			Confidence: doc.Confidence,
			Aspects:    doc.Aspects,
			Evidence:   doc.Evidence,
		}
	}

	return results, nil
}
