// Package registry is the collaborator boundary for the external model
// registry. Publishing is best-effort and configuration-gated; failures are
// logged by the caller and never fail the run.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ModelVersion identifies the artifact being registered.
type ModelVersion struct {
	Name        string `json:"name"`
	CommitSHA   string `json:"commit_sha"`
	ArtifactRef string `json:"source"`
	Stage       string `json:"stage,omitempty"`
}

// Publisher sends a trained model artifact reference to an external
// registry for versioning.
type Publisher interface {
	Publish(ctx context.Context, mv ModelVersion) error
}

// NopPublisher is used when registry configuration is absent.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, mv ModelVersion) error { return nil }

// HTTPPublisher posts model versions to an MLflow-style registry endpoint.
type HTTPPublisher struct {
	Endpoint string
	Token    string
	Client   *http.Client
}

func NewHTTPPublisher(endpoint, token string) *HTTPPublisher {
	return &HTTPPublisher{
		Endpoint: endpoint,
		Token:    token,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *HTTPPublisher) Publish(ctx context.Context, mv ModelVersion) error {
	body, err := json.Marshal(mv)
	if err != nil {
		return fmt.Errorf("encoding model version: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building registry request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.Token)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to registry: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("registry returned %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}
	return nil
}
