// Package docstore is a thin REST client for the document search engine that
// backs the catalog, reviews, clickstream, and order indices.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNotFound is returned when a document id does not exist in an index.
var ErrNotFound = errors.New("document not found")

// SearchHit is one matched document.
type SearchHit struct {
	ID        string              `json:"_id"`
	Score     float64             `json:"_score"`
	Source    map[string]any      `json:"_source"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// SearchResult is the subset of the engine's search response the services use.
type SearchResult struct {
	Total        int
	Hits         []SearchHit
	Aggregations map[string]any
}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("doc store request failed: %w", err)
	}
	return resp, nil
}

// Search runs a query against an index and flattens the response envelope.
func (c *Client) Search(ctx context.Context, index string, query map[string]any) (*SearchResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(index)+"/_search", query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("doc store search returned status %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []SearchHit `json:"hits"`
		} `json:"hits"`
		Aggregations map[string]any `json:"aggregations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return &SearchResult{
		Total:        envelope.Hits.Total.Value,
		Hits:         envelope.Hits.Hits,
		Aggregations: envelope.Aggregations,
	}, nil
}

// Get fetches one document by id. Missing documents return ErrNotFound.
func (c *Client) Get(ctx context.Context, index, id string) (map[string]any, error) {
	resp, err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(index)+"/_doc/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("doc store get returned status %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Source map[string]any `json:"_source"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return envelope.Source, nil
}

// Index writes a document, creating or replacing it under the given id.
func (c *Client) Index(ctx context.Context, index, id string, doc map[string]any) error {
	resp, err := c.do(ctx, http.MethodPut, "/"+url.PathEscape(index)+"/_doc/"+url.PathEscape(id), doc)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("doc store index returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Update applies a partial document update.
func (c *Client) Update(ctx context.Context, index, id string, fields map[string]any) error {
	resp, err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(index)+"/_update/"+url.PathEscape(id),
		map[string]any{"doc": fields})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("doc store update returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// DeleteByQuery removes every document matching the query and reports how
// many were deleted.
func (c *Client) DeleteByQuery(ctx context.Context, index string, query map[string]any) (int, error) {
	resp, err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(index)+"/_delete_by_query", query)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("doc store delete returned status %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Deleted int `json:"deleted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return 0, fmt.Errorf("failed to decode delete response: %w", err)
	}
	return envelope.Deleted, nil
}

// Refresh makes recent writes visible to search immediately.
func (c *Client) Refresh(ctx context.Context, index string) error {
	resp, err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(index)+"/_refresh", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("doc store refresh returned status %d", resp.StatusCode)
	}
	return nil
}
