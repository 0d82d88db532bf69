package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	ollamaDefaultModel   = "mxbai-embed-large"
	ollamaDefaultBaseURL = "http://localhost:11434"
	ollamaDefaultDims    = 1024
)

type Ollama struct {
	model   string
	baseURL string
	dims    int
	timeout time.Duration
	client  *http.Client
}

func NewOllama(client *http.Client, baseURL, model string, dims int, timeout time.Duration) *Ollama {
	if model == "" {
		model = ollamaDefaultModel
	}
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}
	if dims <= 0 {
		dims = ollamaDefaultDims
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Ollama{
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		dims:    dims,
		timeout: timeout,
		client:  client,
	}
}

func (o *Ollama) Dims() int { return o.dims }

// Encode embeds a single text. A vector whose length differs from Dims is an error.
func (o *Ollama) Encode(ctx context.Context, text string) ([]float32, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	body, err := json.Marshal(ollamaRequest{
		Model: o.model,
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedding: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding: ollama returned %d: %s", resp.StatusCode, respBody)
	}

	var result ollamaResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("embedding: unmarshal response: %w", err)
	}

	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding: empty response")
	}

	vector := result.Embeddings[0]
	if len(vector) != o.dims {
		return nil, fmt.Errorf("embedding: expected %d dimensions, got %d", o.dims, len(vector))
	}

	return vector, nil
}

type ollamaRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}
