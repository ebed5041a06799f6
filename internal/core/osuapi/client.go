package osuapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/osudump/osudump/internal/core"
	"github.com/osudump/osudump/internal/core/engine"
)

const (
	// DefaultBaseURL is the public osu! website the most-played listing lives on.
	DefaultBaseURL = "https://osu.ppy.sh"

	// DefaultPageSize is the number of items requested per page.
	DefaultPageSize = 100

	// DefaultMaxRetries is how many times a failed page request is retried.
	DefaultMaxRetries = 3
)

// ErrPageLimitReached is returned when the listing has more pages than the
// client is allowed to request.
var ErrPageLimitReached = errors.New("page limit reached before the listing was exhausted")

// MostPlayedClient walks a user's most-played beatmaps listing page by page.
//
// Pages are requested strictly one after another; the offset query parameter
// counts pages, not items.
type MostPlayedClient struct {
	BaseURL    string
	Fetcher    *engine.Fetcher
	PageSize   int
	MaxRetries int

	// MaxPages bounds the walk; zero means unbounded.
	MaxPages int

	Logger engine.Logger
}

// FetchOptions controls when pagination stops.
type FetchOptions struct {
	// Limit is the number of distinct beatmap sets wanted; zero means all.
	// Pagination stops after the page on which Limit sets have been seen, so
	// the result may hold more sets than Limit.
	Limit int

	// Exact disables the early stop and walks the listing to its end.
	Exact bool
}

// NewMostPlayedClient returns a client with the default page size and retry count.
func NewMostPlayedClient(baseURL string, fetcher *engine.Fetcher) *MostPlayedClient {
	return &MostPlayedClient{
		BaseURL:    baseURL,
		Fetcher:    fetcher,
		PageSize:   DefaultPageSize,
		MaxRetries: DefaultMaxRetries,
	}
}

// FetchAll returns every record of the user's listing, or the records of the
// pages needed to see opts.Limit distinct sets. Any page failure aborts the
// walk and no records are returned.
func (c *MostPlayedClient) FetchAll(ctx context.Context, userID string, opts FetchOptions) ([]core.BeatmapPlaycount, error) {
	if c == nil || c.Fetcher == nil {
		return nil, errors.New("most played client is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	var records []core.BeatmapPlaycount
	sets := make(map[int]struct{})

	for page := 0; ; page++ {
		if c.MaxPages > 0 && page >= c.MaxPages {
			return nil, fmt.Errorf("%w: %d pages", ErrPageLimitReached, c.MaxPages)
		}

		pageURL, err := c.PageURL(userID, page)
		if err != nil {
			return nil, err
		}

		items, err := engine.FetchJSON[[]core.BeatmapPlaycount](ctx, c.Fetcher, pageURL, c.MaxRetries)
		if err != nil {
			return nil, fmt.Errorf("fetch most played page %d: %w", page, err)
		}
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			sets[item.Beatmapset.ID] = struct{}{}
		}
		records = append(records, items...)

		c.debug("Fetched most played page",
			zap.Int("page", page),
			zap.Int("items", len(items)),
			zap.Int("records", len(records)),
			zap.Int("distinct_sets", len(sets)),
		)

		if opts.Limit > 0 && !opts.Exact && len(sets) >= opts.Limit {
			break
		}
	}

	return records, nil
}

// PageURL builds the request URL for one page of a user's listing.
func (c *MostPlayedClient) PageURL(userID string, page int) (string, error) {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}

	parsed, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid api base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid api base url %q: scheme and host are required", base)
	}

	parsed = parsed.JoinPath("users", url.PathEscape(userID), "beatmapsets", "most_played")
	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.pageSize()))
	query.Set("offset", strconv.Itoa(page))
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func (c *MostPlayedClient) pageSize() int {
	if c.PageSize > 0 {
		return c.PageSize
	}
	return DefaultPageSize
}

func (c *MostPlayedClient) debug(msg string, fields ...zap.Field) {
	if c.Logger != nil {
		c.Logger.Debug(msg, fields...)
	}
}
