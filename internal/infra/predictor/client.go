// Package predictor talks to the ML inference service: /predict for
// verdicts and /update-dataset for corrected labels.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/phishscan/internal/domain/dataset"
	"github.com/bryanwahyu/phishscan/internal/domain/scans"
)

const maxErrorBody = 512

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type predictResponse struct {
	Features   orderedFeatures `json:"features"`
	Prediction string          `json:"prediction"`
}

// Predict implements scans.Predictor.
func (c *Client) Predict(ctx context.Context, url string) (scans.Prediction, error) {
	var resp predictResponse
	if err := c.post(ctx, "/predict", map[string]string{"url": url}, &resp); err != nil {
		return scans.Prediction{}, err
	}

	v, ok := scans.ParseVerdict(resp.Prediction)
	if !ok {
		return scans.Prediction{}, fmt.Errorf("%w: unknown prediction %q", scans.ErrUpstream, resp.Prediction)
	}
	return scans.Prediction{
		Features:     resp.Features.values,
		FeatureNames: resp.Features.names,
		Verdict:      v,
		Raw:          resp.Prediction,
	}, nil
}

// Submit implements dataset.Corrector against /update-dataset. The
// inference service reads the label from "geminiResponse".
func (c *Client) Submit(ctx context.Context, corr dataset.Correction) error {
	body := map[string]string{
		"url":              corr.URL,
		"correctedVerdict": string(corr.CorrectedVerdict),
		"geminiResponse":   string(corr.CorrectedVerdict),
	}
	return c.post(ctx, "/update-dataset", body, nil)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %w", scans.ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: POST %s: status %d: %s", scans.ErrUpstream, path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", scans.ErrUpstream, path, err)
	}
	return nil
}
