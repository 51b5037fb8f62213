package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
	"github.com/lueurxax/idea-miner/internal/platform/htmlutils"
)

const (
	// SourceReddit is the queue source for subreddit posts.
	SourceReddit = "reddit"

	defaultRedditBaseURL = "https://www.reddit.com"
	headerUserAgent      = "User-Agent"

	// redditTrailer starts the "submitted by /u/x [link] [comments]" footer of feed items.
	redditTrailer = "submitted by"
)

// Listing filters supported by subreddit feeds.
var RedditFilters = []string{"hot", "new", "rising", "top", "controversial", "gilded"}

var (
	errFeedFetchFailed = errors.New("feed fetch failed")
	errUnknownFilter   = errors.New("unknown submission filter")
)

// RedditConfig configures the subreddit feed reader.
type RedditConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// RedditReader pulls subreddit listings over RSS.
type RedditReader struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	feedParser *gofeed.Parser
	logger     *zerolog.Logger
}

// NewRedditReader creates a reader. An empty BaseURL selects reddit.com.
func NewRedditReader(cfg RedditConfig, logger *zerolog.Logger) *RedditReader {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultRedditBaseURL
	}

	return &RedditReader{
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		feedParser: gofeed.NewParser(),
		logger:     logger,
	}
}

// Fetch returns up to limit posts of a subreddit listing as complaints. The body is the
// post title followed by its self text.
func (r *RedditReader) Fetch(ctx context.Context, subreddit, filter string, limit int) ([]Complaint, error) {
	feedURL, err := r.listingURL(subreddit, filter, limit)
	if err != nil {
		return nil, err
	}

	feed, err := r.fetchFeed(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	out := make([]Complaint, 0, len(feed.Items))

	for _, item := range feed.Items {
		if limit > 0 && len(out) == limit {
			break
		}

		c := Complaint{ExternalID: itemID(item), Body: itemBody(item)}
		if c.Body == "" {
			continue
		}

		out = append(out, c)
	}

	r.logger.Info().Str("subreddit", subreddit).Str("filter", filter).Int("items", len(out)).Msg("fetched subreddit feed")

	return out, nil
}

// Ingest fetches each subreddit and queues its posts under SourceReddit.
func (r *RedditReader) Ingest(ctx context.Context, enq Enqueuer, subreddits []string, filter string, limit int) (Stats, error) {
	var stats Stats

	for _, sub := range subreddits {
		items, err := r.Fetch(ctx, sub, filter, limit)
		if err != nil {
			return stats, fmt.Errorf("subreddit %s: %w", sub, err)
		}

		stats.Read += len(items)

		if err := enqueueAll(ctx, enq, SourceReddit, items, &stats, r.logger); err != nil {
			return stats, fmt.Errorf("subreddit %s: %w", sub, err)
		}
	}

	return stats, nil
}

func (r *RedditReader) listingURL(subreddit, filter string, limit int) (string, error) {
	subreddit = strings.TrimPrefix(strings.TrimSpace(subreddit), "r/")
	if subreddit == "" || strings.ContainsAny(subreddit, "/?#") {
		return "", fmt.Errorf("%w: subreddit %q", coreerrors.ErrInvalidInput, subreddit)
	}

	if filter == "" {
		filter = RedditFilters[0]
	}

	if !isKnownFilter(filter) {
		return "", fmt.Errorf("%w: %w %q", coreerrors.ErrInvalidInput, errUnknownFilter, filter)
	}

	u := fmt.Sprintf("%s/r/%s/%s/.rss", r.baseURL, url.PathEscape(subreddit), filter)
	if limit > 0 {
		u += fmt.Sprintf("?limit=%d", limit)
	}

	return u, nil
}

// fetchFeed fetches and parses an RSS/Atom feed.
func (r *RedditReader) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}

	if r.userAgent != "" {
		req.Header.Set(headerUserAgent, r.userAgent)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFeedFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errFeedFetchFailed, resp.StatusCode)
	}

	feed, err := r.feedParser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	return feed, nil
}

func isKnownFilter(filter string) bool {
	for _, f := range RedditFilters {
		if f == filter {
			return true
		}
	}

	return false
}

func itemID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}

	return item.Link
}

func itemBody(item *gofeed.Item) string {
	content := item.Content
	if content == "" {
		content = item.Description
	}

	text := htmlutils.ToText(content)
	if i := strings.LastIndex(text, redditTrailer); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}

	title := strings.TrimSpace(item.Title)

	switch {
	case title == "":
		return text
	case text == "":
		return title
	default:
		return title + "\n\n" + text
	}
}
