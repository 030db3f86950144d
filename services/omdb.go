package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/justbri/marquee/models"
	"github.com/justbri/marquee/shared/format"
	sharedhttp "github.com/justbri/marquee/shared/http"
)

var (
	// ErrTransport covers requests that could not complete, including
	// non-200 answers.
	ErrTransport = errors.New("omdb: transport failure")
	// ErrDecode covers bodies that are not the expected JSON.
	ErrDecode = errors.New("omdb: malformed response")
)

// APIError is a well-formed answer with Response "False", e.g.
// "Movie not found!" or "Invalid API key!".
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "omdb: negative response"
	}
	return "omdb: " + e.Message
}

// SearchParams describes one free-text search. Year and Page are optional.
type SearchParams struct {
	Term string
	Year string
	Page int
}

// MovieSource is what the browser needs from the metadata API.
type MovieSource interface {
	Search(ctx context.Context, p SearchParams) ([]models.Movie, error)
	Lookup(ctx context.Context, imdbID string) (*models.MovieDetail, error)
}

type OMDbClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewOMDbClient(baseURL, apiKey string, httpClient *http.Client) *OMDbClient {
	if httpClient == nil {
		httpClient = sharedhttp.DefaultClient
	}
	return &OMDbClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Search runs s=<term>&type=movie. A "True" response with no entries is
// reported as an APIError so callers only have one empty path.
func (c *OMDbClient) Search(ctx context.Context, p SearchParams) ([]models.Movie, error) {
	params := url.Values{}
	params.Set("s", p.Term)
	params.Set("type", "movie")
	if y := strings.TrimSpace(p.Year); y != "" {
		params.Set("y", y)
	}
	if p.Page > 0 {
		params.Set("page", strconv.Itoa(p.Page))
	}

	var result models.SearchResponse
	if err := c.get(ctx, params, &result); err != nil {
		return nil, err
	}

	if !result.OK() {
		return nil, &APIError{Message: result.Error}
	}
	if len(result.Search) == 0 {
		return nil, &APIError{Message: "empty result set"}
	}

	return result.Search, nil
}

// Lookup fetches the full record for one IMDb id.
func (c *OMDbClient) Lookup(ctx context.Context, imdbID string) (*models.MovieDetail, error) {
	params := url.Values{}
	params.Set("i", imdbID)
	params.Set("plot", "full")

	var detail models.MovieDetail
	if err := c.get(ctx, params, &detail); err != nil {
		return nil, err
	}

	if detail.Response != "True" {
		return nil, &APIError{Message: detail.Error}
	}

	return &detail, nil
}

func (c *OMDbClient) get(ctx context.Context, params url.Values, v any) error {
	params.Set("apikey", c.apiKey)
	fullURL, err := sharedhttp.BuildQueryURL(c.baseURL, params)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	resp, err := sharedhttp.Get(ctx, fullURL, c.httpClient)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		return negativeOrStatus(resp)
	}

	if err := sharedhttp.DecodeJSONResponse(resp, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// negativeOrStatus maps a non-200 answer. OMDb reports a bad key as a 401
// carrying the usual {"Response":"False"} envelope, which is an API-level
// result; anything else is a transport failure.
func negativeOrStatus(resp *http.Response) error {
	body, _ := sharedhttp.ReadResponseBody(resp)

	var envelope struct {
		Response string `json:"Response"`
		Error    string `json:"Error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Response == "False" {
		return &APIError{Message: envelope.Error}
	}

	return fmt.Errorf("%w: %w", ErrTransport, &sharedhttp.StatusError{
		StatusCode: resp.StatusCode,
		Body:       format.Preview(string(body), 120),
	})
}

// IsNegative reports whether err is an API-level "no result" answer rather
// than a transport or decoding problem.
func IsNegative(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
