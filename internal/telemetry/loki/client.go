// Package loki pushes audit entries to Grafana Loki.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultJob is the job label of every pushed stream.
const DefaultJob = "bizzytrack"

// PushRequest is the Loki push API request body (v1).
type PushRequest struct {
	Streams []Stream `json:"streams"`
}

// Stream is a single stream with labels and log entries.
type Stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"` // [timestamp_ns, line]
}

var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:.]`)

// Client pushes lines to one Loki instance.
type Client struct {
	baseURL string
	job     string
	http    *http.Client
}

// NewClient returns a client for baseURL (e.g. http://localhost:3100).
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("loki: base URL is empty")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, job: DefaultJob, http: httpClient}, nil
}

// auditFields are the parts of an audit entry used for labels and the timestamp.
type auditFields struct {
	BusinessID   string    `json:"business_id"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// PushAuditJSON pushes one audit entry (the Kafka message value) labelled with business_id, action
// and resource_type at its created_at time. Unparseable input is pushed as-is at the current time.
func (c *Client) PushAuditJSON(ctx context.Context, raw []byte) error {
	labels := map[string]string{}
	ts := time.Now().UTC()
	var f auditFields
	if err := json.Unmarshal(raw, &f); err == nil {
		labels["business_id"] = f.BusinessID
		labels["action"] = f.Action
		labels["resource_type"] = f.ResourceType
		if !f.CreatedAt.IsZero() {
			ts = f.CreatedAt
		}
	}
	return c.Push(ctx, ts, string(raw), labels)
}

// Push sends one line with labels. Empty label values are omitted. Returns an error for transport
// failures and non-2xx responses.
func (c *Client) Push(ctx context.Context, ts time.Time, line string, labels map[string]string) error {
	stream := make(map[string]string, len(labels)+1)
	stream["job"] = c.job
	for k, v := range labels {
		if s := labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_"); s != "" {
			stream[k] = s
		}
	}
	payload, err := json.Marshal(PushRequest{Streams: []Stream{{
		Stream: stream,
		Values: [][]string{{strconv.FormatInt(ts.UnixNano(), 10), line}},
	}}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/loki/api/v1/push", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}
