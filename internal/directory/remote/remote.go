// Package remote implements the directory client over the directory
// service's JSON HTTP API. It follows continuation tokens itself and
// normalizes the service's object-vs-list field ambiguity at decode
// time, so callers only ever see complete, well-shaped record sets.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cardsync/cardsync/pkg/contacts"
	"github.com/cardsync/cardsync/pkg/directory"
	"github.com/cardsync/cardsync/pkg/errors"
)

// DefaultTimeout bounds each HTTP request.
const DefaultTimeout = 30 * time.Second

// Client talks to the directory service. It implements
// directory.Client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.NewConfigError("directory", "base URL is required", nil)
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListLocations implements directory.Client.
func (c *Client) ListLocations(ctx context.Context) ([]directory.Location, error) {
	var out []directory.Location
	err := c.paginate(ctx, func(token string) (string, error) {
		var p page[directory.Location]
		if err := c.get(ctx, "/locations", token, &p); err != nil {
			return "", err
		}
		out = append(out, p.Value...)
		return p.NextPageToken, nil
	})
	return out, err
}

// ListRecords implements directory.Client. All pages are fetched; the
// caller receives the location's complete record set.
func (c *Client) ListRecords(ctx context.Context, locationID string) ([]*contacts.Record, error) {
	loc, err := c.location(ctx, locationID)
	if err != nil {
		return nil, err
	}

	endpoint := "/locations/" + url.PathEscape(locationID) + "/contacts"
	var out []*contacts.Record
	err = c.paginate(ctx, func(token string) (string, error) {
		var p page[wireContact]
		if err := c.get(ctx, endpoint, token, &p); err != nil {
			return "", err
		}
		for i := range p.Value {
			rec, err := p.Value[i].toRecord(loc)
			if err != nil {
				return "", errors.WrapParse("json", "contact "+p.Value[i].ID, err)
			}
			out = append(out, rec)
		}
		return p.NextPageToken, nil
	})
	return out, err
}

// CreateRecord implements directory.Client.
func (c *Client) CreateRecord(ctx context.Context, locationID string, record *contacts.Record) (string, error) {
	endpoint := "/locations/" + url.PathEscape(locationID) + "/contacts"
	var created wireContact
	if err := c.post(ctx, endpoint, fromRecord(record), &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// DeleteRecord implements directory.Client.
func (c *Client) DeleteRecord(ctx context.Context, externalID string) error {
	return c.delete(ctx, "/contacts/"+url.PathEscape(externalID))
}

// EnsureLocation implements directory.Client: get-or-create by display
// name.
func (c *Client) EnsureLocation(ctx context.Context, displayName string) (string, error) {
	locations, err := c.ListLocations(ctx)
	if err != nil {
		return "", err
	}
	for _, loc := range locations {
		if loc.DisplayName == displayName {
			return loc.ID, nil
		}
	}

	var created directory.Location
	if err := c.post(ctx, "/locations", directory.Location{DisplayName: displayName}, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *Client) location(ctx context.Context, locationID string) (directory.Location, error) {
	locations, err := c.ListLocations(ctx)
	if err != nil {
		return directory.Location{}, err
	}
	for _, loc := range locations {
		if loc.ID == locationID {
			return loc, nil
		}
	}
	return directory.Location{}, errors.NewAPIError(http.StatusNotFound, "/locations/"+locationID, "location not found")
}

// paginate drives fetch with continuation tokens until the service
// stops returning one.
func (c *Client) paginate(ctx context.Context, fetch func(token string) (string, error)) error {
	token := ""
	for {
		if err := ctx.Err(); err != nil {
			return errors.ErrCanceled
		}
		next, err := fetch(token)
		if err != nil {
			return err
		}
		if next == "" {
			return nil
		}
		token = next
	}
}

func (c *Client) get(ctx context.Context, endpoint, pageToken string, target any) error {
	u := c.baseURL + endpoint
	if pageToken != "" {
		u += "?pageToken=" + url.QueryEscape(pageToken)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.NewConfigError("directory", "building request for "+endpoint, err)
	}
	return c.do(req, endpoint, target)
}

func (c *Client) post(ctx context.Context, endpoint string, body, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.WrapParse("json", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.NewConfigError("directory", "building request for "+endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, endpoint, target)
}

func (c *Client) delete(ctx context.Context, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+endpoint, nil)
	if err != nil {
		return errors.NewConfigError("directory", "building request for "+endpoint, err)
	}
	return c.do(req, endpoint, nil)
}

// do performs the request and decodes a JSON response into target.
// Non-2xx statuses become APIErrors carrying the status code, so 404s
// satisfy errors.IsNotFound and 5xx satisfies IsDirectoryUnavailable.
func (c *Client) do(req *http.Request, endpoint string, target any) error {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &errors.APIError{Endpoint: endpoint, Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.NewAPIError(resp.StatusCode, endpoint, string(body))
	}

	if target == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", endpoint, err)
	}
	return nil
}
