// Package pandascore is the live upstream search client (Tier 4): a
// paginated, rate-limited wrapper over the statistics provider's team
// search. It is the last and slowest resolution path, and it is built to
// degrade: total upstream failure yields an empty result, not an error.
package pandascore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/oddslab/teamresolve/pkg/normalize"
	"github.com/oddslab/teamresolve/pkg/resolver"
)

const (
	// DefaultBaseURL is the Pandascore API base URL.
	DefaultBaseURL = "https://api.pandascore.co"

	// Conservative defaults under the free-tier hourly budget.
	defaultRateLimit = 2.0 // requests per second
	defaultBurst     = 2

	defaultPageSize   = 50
	defaultMaxPages   = 3
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
)

// Client is a Pandascore API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger

	pageSize   int
	maxPages   int
	maxRetries int
	backoff    time.Duration
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// WithPaging sets the page size and the page cap that bounds a search's
// worst-case latency.
func WithPaging(pageSize, maxPages int) ClientOption {
	return func(c *Client) {
		if pageSize > 0 {
			c.pageSize = pageSize
		}
		if maxPages > 0 {
			c.maxPages = maxPages
		}
	}
}

// WithBackoff sets retry count and base delay for rate-limited requests.
func WithBackoff(maxRetries int, base time.Duration) ClientOption {
	return func(c *Client) {
		if maxRetries > 0 {
			c.maxRetries = maxRetries
		}
		if base > 0 {
			c.backoff = base
		}
	}
}

// NewClient creates a Pandascore client authenticating with the given token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		log:        zerolog.Nop(),
		pageSize:   defaultPageSize,
		maxPages:   defaultMaxPages,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// teamPayload is the provider's team shape.
type teamPayload struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Acronym  string `json:"acronym"`
	ImageURL string `json:"image_url"`
}

func (t teamPayload) record() resolver.TeamRecord {
	return resolver.TeamRecord{
		ID:      strconv.Itoa(t.ID),
		Name:    t.Name,
		Acronym: t.Acronym,
		LogoURL: t.ImageURL,
	}
}

// SearchTeamsByName searches the provider for teams matching a name, best
// candidates first: exact normalized matches, then prefix, then substring
// matches, paging until the page cap. An exact match exits early instead of
// paying for more pages once the answer is certain.
//
// Upstream failures surface as an empty slice with a nil error; the caller's
// fallback chain treats empty and failed identically.
func (c *Client) SearchTeamsByName(ctx context.Context, name string) ([]resolver.TeamRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	want := normalize.Normalize(name)
	foldWant := normalize.Fold(name)

	var exact, prefix, contains []resolver.TeamRecord
	for page := 1; page <= c.maxPages; page++ {
		teams, err := c.fetchTeamsPage(ctx, name, page)
		if err != nil {
			c.log.Warn().Err(err).Str("name", name).Int("page", page).
				Msg("pandascore team search failed")
			break
		}
		for _, t := range teams {
			fold := normalize.Fold(t.Name)
			switch {
			case normalize.Normalize(t.Name) == want:
				exact = append(exact, t.record())
			case strings.HasPrefix(fold, foldWant):
				prefix = append(prefix, t.record())
			case strings.Contains(fold, foldWant):
				contains = append(contains, t.record())
			}
		}
		if len(exact) > 0 {
			break
		}
		if len(teams) < c.pageSize {
			break
		}
	}

	out := make([]resolver.TeamRecord, 0, len(exact)+len(prefix)+len(contains))
	out = append(out, exact...)
	out = append(out, prefix...)
	out = append(out, contains...)
	return out, nil
}

// AllTeams pages through the provider's complete team list, invoking fn per
// page. Used by the registry sync job.
func (c *Client) AllTeams(ctx context.Context, fn func([]resolver.TeamRecord) error) error {
	for page := 1; ; page++ {
		teams, err := c.fetchTeamsPage(ctx, "", page)
		if err != nil {
			return fmt.Errorf("fetch teams page %d: %w", page, err)
		}
		if len(teams) == 0 {
			return nil
		}
		records := make([]resolver.TeamRecord, 0, len(teams))
		for _, t := range teams {
			records = append(records, t.record())
		}
		if err := fn(records); err != nil {
			return err
		}
		if len(teams) < c.pageSize {
			return nil
		}
	}
}

// fetchTeamsPage performs one GET /teams call with retry-on-429 backoff.
func (c *Client) fetchTeamsPage(ctx context.Context, search string, page int) ([]teamPayload, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(c.pageSize))
	if search != "" {
		params.Set("search[name]", search)
	}
	endpoint := c.baseURL + "/teams?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		teams, retry, err := c.doFetch(ctx, endpoint)
		if err == nil {
			return teams, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
		c.log.Debug().Err(err).Int("attempt", attempt+1).Msg("retrying pandascore request")
	}
	return nil, lastErr
}

// doFetch performs a single request. The second return reports whether the
// failure is worth retrying (rate limits and auth hiccups back off;
// malformed responses do not).
func (c *Client) doFetch(ctx context.Context, endpoint string) ([]teamPayload, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("fetching teams: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Decoded below.
	case http.StatusTooManyRequests, http.StatusUnauthorized, http.StatusForbidden:
		return nil, true, fmt.Errorf("teams API returned %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("teams API returned %d", resp.StatusCode)
	}

	var teams []teamPayload
	if err := json.NewDecoder(resp.Body).Decode(&teams); err != nil {
		return nil, false, fmt.Errorf("decoding response: %w", err)
	}
	return teams, false, nil
}
