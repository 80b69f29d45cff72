// Package archive mirrors finished studies to an optional external
// archive service. The mirror is best-effort: the local session registry
// stays the source of truth and analysis never blocks on the archive.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dsgnlab/linkograph/internal/analysis"
	"github.com/dsgnlab/linkograph/internal/linkograph"
)

// Client communicates with the archive HTTP API. A nil Client is a
// disabled mirror; every method on it is a no-op.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a client for the archive at baseURL, or nil when
// baseURL is empty.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RetryableError marks an archive failure worth retrying: rate limits
// and server-side errors. Anything else is permanent.
type RetryableError struct {
	Status int
	Msg    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("archive: status %d: %s", e.Status, e.Msg)
}

func statusError(op string, status int, body []byte) error {
	if status == http.StatusTooManyRequests || status >= 500 {
		return fmt.Errorf("%s: %w", op, &RetryableError{Status: status, Msg: string(body)})
	}
	return fmt.Errorf("%s: status %d: %s", op, status, string(body))
}

// StudyRecord is the archived form of one completed analysis.
type StudyRecord struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	ContentHash string            `json:"content_hash,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Moves       []linkograph.Move `json:"moves"`
	Links       []linkograph.Link `json:"links"`
	Metrics     analysis.Snapshot `json:"metrics"`
}

// StudySummary is one row of a study listing.
type StudySummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	MoveCount int       `json:"move_count"`
	CreatedAt time.Time `json:"created_at"`
}

// PutStudy stores or replaces a study record.
func (c *Client) PutStudy(ctx context.Context, rec StudyRecord) error {
	if c == nil {
		return nil
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal study: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/studies/"+url.PathEscape(rec.ID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("put study: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return statusError(fmt.Sprintf("put study %s", rec.ID), resp.StatusCode, respBody)
	}
	return nil
}

// GetStudy retrieves a study by ID. A missing study returns (nil, nil).
func (c *Client) GetStudy(ctx context.Context, id string) (*StudyRecord, error) {
	if c == nil {
		return nil, nil
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/studies/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("get study: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, statusError(fmt.Sprintf("get study %s", id), resp.StatusCode, respBody)
	}

	var rec StudyRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode study: %w", err)
	}
	return &rec, nil
}

// DeleteStudy removes a study from the archive.
func (c *Client) DeleteStudy(ctx context.Context, id string) error {
	if c == nil {
		return nil
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/studies/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("delete study: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return statusError(fmt.Sprintf("delete study %s", id), resp.StatusCode, respBody)
	}
	return nil
}

// ListStudies returns summaries of archived studies, newest first.
func (c *Client) ListStudies(ctx context.Context, limit int) ([]StudySummary, error) {
	if c == nil {
		return nil, nil
	}
	u := c.baseURL + "/studies"
	if limit > 0 {
		u += "?limit=" + url.QueryEscape(fmt.Sprintf("%d", limit))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list studies: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, statusError("list studies", resp.StatusCode, respBody)
	}

	var result struct {
		Studies []StudySummary `json:"studies"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode studies: %w", err)
	}
	return result.Studies, nil
}

// Close releases any resources (currently a no-op).
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}
