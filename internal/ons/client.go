package ons

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"onspop/pkg/models"
)

// DefaultBaseURL is the public ONS beta dataset API.
const DefaultBaseURL = "https://api.beta.ons.gov.uk/v1"

// DefaultOptionPageSize is how many dimension options are requested per page.
const DefaultOptionPageSize = 1000

// ErrPagingStalled is returned when a listing keeps serving the same page.
var ErrPagingStalled = errors.New("ons: paging did not advance")

// APIError is returned for a non-2xx response or a body that is not JSON.
type APIError struct {
	Status int
	Path   string
	Body   string
	Err    error // decode error, nil for status failures
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ons api %d: %s: invalid json: %v :: %s", e.Status, e.Path, e.Err, e.Body)
	}
	return fmt.Sprintf("ons api %d: %s :: %s", e.Status, e.Path, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }

// VersionRef addresses one dataset version.
type VersionRef struct {
	DatasetID string
	Edition   string
	Version   string
}

// Path is the API path of the version resource.
func (r VersionRef) Path() string {
	return fmt.Sprintf("/datasets/%s/editions/%s/versions/%s",
		url.PathEscape(r.DatasetID), url.PathEscape(r.Edition), url.PathEscape(r.Version))
}

func (r VersionRef) String() string {
	return r.DatasetID + "/" + r.Edition + "/" + r.Version
}

// Client talks to the ONS dataset API. Requests are issued one at a time and
// are bounded only by the caller's context.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Logger   *zap.Logger
	PageSize int
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     &http.Client{},
		Logger:   logger.Named("ons"),
		PageSize: DefaultOptionPageSize,
	}
}

// Search queries the catalog search endpoint for datasets.
func (c *Client) Search(ctx context.Context, query string, limit int) (*models.SearchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("content_type", "dataset")
	q.Set("limit", strconv.Itoa(limit))

	var out models.SearchResponse
	if err := c.get(ctx, "/search", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Datasets lists the catalog, one page of at most limit entries.
func (c *Client) Datasets(ctx context.Context, limit int) (*models.DatasetList, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var out models.DatasetList
	if err := c.get(ctx, "/datasets", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Editions(ctx context.Context, datasetID string) (*models.EditionList, error) {
	var out models.EditionList
	path := fmt.Sprintf("/datasets/%s/editions", url.PathEscape(datasetID))
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Versions(ctx context.Context, datasetID, edition string) (*models.VersionList, error) {
	var out models.VersionList
	path := fmt.Sprintf("/datasets/%s/editions/%s/versions", url.PathEscape(datasetID), url.PathEscape(edition))
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Version fetches a single version document, which carries its dimensions.
func (c *Client) Version(ctx context.Context, ref VersionRef) (*models.Version, error) {
	var out models.Version
	if err := c.get(ctx, ref.Path(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Options returns every option of a dimension, following offset paging
// until total_count is reached or a short page comes back.
func (c *Client) Options(ctx context.Context, ref VersionRef, dimension string) ([]models.Option, error) {
	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = DefaultOptionPageSize
	}
	path := ref.Path() + "/dimensions/" + url.PathEscape(dimension) + "/options"

	var (
		all       []models.Option
		prevFirst models.Option
	)
	offset := 0
	for {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))

		var page models.OptionList
		if err := c.get(ctx, path, q, &page); err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}
		// same first item as the last page: the server ignored offset
		if offset > 0 && page.Items[0] == prevFirst {
			return nil, fmt.Errorf("%w: %s at offset %d repeats the previous page", ErrPagingStalled, path, offset)
		}
		prevFirst = page.Items[0]
		all = append(all, page.Items...)
		offset += len(page.Items)

		if page.TotalCount > 0 {
			if offset >= page.TotalCount {
				break
			}
			continue
		}
		if len(page.Items) < pageSize {
			break
		}
	}

	c.Logger.Debug("options fetched",
		zap.String("dimension", dimension),
		zap.Int("count", len(all)))
	return all, nil
}

// Observations queries a version with one option per dimension.
func (c *Client) Observations(ctx context.Context, ref VersionRef, filters url.Values) (*models.ObservationList, error) {
	var out models.ObservationList
	if err := c.get(ctx, ref.Path()+"/observations", filters, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("ons: build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	c.Logger.Debug("GET", zap.String("url", target))

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("ons: request %s: %w", path, err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("ons: read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Path: path, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Status: resp.StatusCode, Path: path, Body: string(body), Err: err}
	}
	return nil
}
