// Package remote fetches gallery content over HTTP. It deliberately
// does not retry: a failed fetch aborts the operation that issued it,
// and the caller decides what to tell the user. Waiting is bounded by
// the caller's context, not by a fixed timeout.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// FetchError represents a network failure or a non-success HTTP
// status while retrieving a manifest, parameters document or asset
type FetchError struct {
	Resource   string // human name of what was being fetched
	URL        string
	Status     int // zero when the transport failed before a response
	StatusText string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("couldn't fetch %s from %s: %s", e.Resource, e.URL, e.Err.Error())
	}
	return fmt.Sprintf("couldn't fetch %s from %s: %s: %d", e.Resource, e.URL, e.StatusText, e.Status)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client performs GET requests against raw gallery content
type Client struct {
	ID   string // short id to correlate log lines, like reconws connection ids
	http *http.Client
}

// New returns a client with no client-side timeout; cancellation and
// deadlines come from the request context
func New() *Client {
	return &Client{
		ID:   uuid.New().String()[0:6],
		http: &http.Client{},
	}
}

// get issues the request and converts transport/status failures into FetchError
func (c *Client) get(ctx context.Context, url, resource string) (*http.Response, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Resource: resource, URL: url, Err: err}
	}

	log.WithFields(log.Fields{"id": c.ID, "url": url, "resource": resource}).Trace("fetching")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Resource: resource, URL: url, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		status := resp.StatusCode
		text := resp.Status
		resp.Body.Close()
		log.WithFields(log.Fields{"id": c.ID, "url": url, "status": status}).Debug("fetch failed")
		return nil, &FetchError{Resource: resource, URL: url, Status: status, StatusText: text}
	}

	return resp, nil
}

// Get fetches the content at url in full
func (c *Client) Get(ctx context.Context, url, resource string) ([]byte, error) {

	resp, err := c.get(ctx, url, resource)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Resource: resource, URL: url, Err: err}
	}

	log.WithFields(log.Fields{"id": c.ID, "url": url, "bytes": len(data)}).Trace("fetched")

	return data, nil
}

// GetStream fetches the content at url as a stream; the caller must
// close the returned reader
func (c *Client) GetStream(ctx context.Context, url, resource string) (io.ReadCloser, error) {

	resp, err := c.get(ctx, url, resource)
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// Probe reports whether url answers 200 OK. Transport errors and
// non-200 statuses both read as "not there" - never as an error.
func (c *Client) Probe(ctx context.Context, url string) bool {

	resp, err := c.get(ctx, url, "probe")
	if err != nil {
		return false
	}

	resp.Body.Close()

	return true
}
