package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rs/zerolog"
)

// Sentinel errors for the caller's degradation decisions.
var (
	// ErrQuotaExceeded covers HTTP 403/429 from the API: quota spent or key
	// throttled. The caller should switch to fallback data, not retry.
	ErrQuotaExceeded = errors.New("youtube: quota exceeded")
	// ErrTransient covers network failures and timeouts that survived the
	// bounded retries. The affected call is omitted from results.
	ErrTransient = errors.New("youtube: transient fetch error")
)

// APIError is a non-quota HTTP failure from the upstream API.
type APIError struct {
	StatusCode int
	Op         string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube: %s returned %d: %s", e.Op, e.StatusCode, e.Message)
}

// UsageRecorder is the quota tracker surface the client needs. Calls are
// recorded after completion; the recorder never blocks a call.
type UsageRecorder interface {
	RecordCall(op string, succeeded bool)
}

const (
	maxRetries     = 2
	retryBaseDelay = 300 * time.Millisecond
	requestTimeout = 15 * time.Second

	// channels.list accepts at most 50 ids per request.
	maxChannelBatch = 50

	searchMaxResults = 25
)

// Client wraps the YouTube Data API v3 endpoints this service uses. Outbound
// requests are paced by a client-side rate limiter so concurrent searches
// cannot trip the API's per-second limits.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
	recorder UsageRecorder
	log      zerolog.Logger
}

func NewClient(baseURL, apiKey string, recorder UsageRecorder, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: requestTimeout},
		limiter:  rate.NewLimiter(rate.Limit(10), 10),
		recorder: recorder,
		log:      logger.With().Str("component", "youtube").Logger(),
	}
}

// SearchChannels runs one search.list call for a (keyword, region) pair and
// returns the matching channel stubs. Cost: one "search" unit charge.
func (c *Client) SearchChannels(ctx context.Context, keyword, region string) ([]ChannelStub, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "channel")
	q.Set("q", keyword)
	q.Set("regionCode", region)
	q.Set("maxResults", fmt.Sprint(searchMaxResults))

	var resp searchListResponse
	if err := c.doGet(ctx, "search", "/search", q, &resp); err != nil {
		return nil, err
	}

	stubs := make([]ChannelStub, 0, len(resp.Items))
	for _, item := range resp.Items {
		id := item.ID.ChannelID
		if id == "" {
			id = item.Snippet.ChannelID
		}
		if id == "" {
			continue
		}
		stubs = append(stubs, ChannelStub{
			ID:           id,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ThumbnailURL: item.Snippet.Thumbnails.Default.URL,
		})
	}
	return stubs, nil
}

// GetChannelDetails fetches statistics for the given channel ids, batched at
// the API's 50-id limit. Cost: one "channels" unit per batch.
func (c *Client) GetChannelDetails(ctx context.Context, ids []string) ([]ChannelDetail, error) {
	details := make([]ChannelDetail, 0, len(ids))

	for start := 0; start < len(ids); start += maxChannelBatch {
		end := min(start+maxChannelBatch, len(ids))
		batch := ids[start:end]

		q := url.Values{}
		q.Set("part", "snippet,statistics,contentDetails")
		q.Set("id", strings.Join(batch, ","))

		var resp channelListResponse
		if err := c.doGet(ctx, "channels", "/channels", q, &resp); err != nil {
			return details, err
		}

		for _, item := range resp.Items {
			details = append(details, ChannelDetail{
				ID:                item.ID,
				Title:             item.Snippet.Title,
				Description:       item.Snippet.Description,
				ThumbnailURL:      item.Snippet.Thumbnails.Default.URL,
				Country:           item.Snippet.Country,
				SubscriberCount:   parseCount(item.Statistics.SubscriberCount),
				VideoCount:        parseCount(item.Statistics.VideoCount),
				ViewCount:         parseCount(item.Statistics.ViewCount),
				UploadsPlaylistID: item.ContentDetails.RelatedPlaylists.Uploads,
			})
		}
	}
	return details, nil
}

// GetLatestUpload returns the publish time of the newest video in a channel's
// uploads playlist, or (nil, nil) when the channel has no uploads. Cost: one
// "playlistItems" unit.
func (c *Client) GetLatestUpload(ctx context.Context, uploadsPlaylistID string) (*time.Time, error) {
	if uploadsPlaylistID == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("part", "contentDetails,snippet")
	q.Set("playlistId", uploadsPlaylistID)
	q.Set("maxResults", "1")

	var resp playlistItemsResponse
	if err := c.doGet(ctx, "playlistItems", "/playlistItems", q, &resp); err != nil {
		// The API answers 404 playlistNotFound for channels with zero uploads.
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	raw := resp.Items[0].ContentDetails.VideoPublishedAt
	if raw == "" {
		raw = resp.Items[0].Snippet.PublishedAt
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, nil
	}
	return &ts, nil
}

// UploadsPlaylistFor derives the uploads playlist id from a channel id
// (UCxxxx -> UUxxxx). Returns "" for non-standard channel ids.
func UploadsPlaylistFor(channelID string) string {
	if strings.HasPrefix(channelID, "UC") {
		return "UU" + channelID[2:]
	}
	return ""
}

// doGet issues one metered GET against the API. 403/429 map to
// ErrQuotaExceeded without retry; 5xx and network failures are retried with
// backoff up to maxRetries, then surface as *APIError / ErrTransient.
func (c *Client) doGet(ctx context.Context, op, path string, q url.Values, out any) error {
	q.Set("key", c.apiKey)
	target := c.baseURL + path + "?" + q.Encode()

	// Aborts before the first request reaches the API cost no quota; once
	// any attempt has been issued the operation is charged.
	attempted := false

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				if attempted {
					c.recorder.RecordCall(op, true)
				}
				return fmt.Errorf("%s: %w: %v", op, ErrTransient, ctx.Err())
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			if attempted {
				c.recorder.RecordCall(op, true)
			}
			return fmt.Errorf("%s: %w: %v", op, ErrTransient, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("%s: build request: %w", op, err)
		}
		req.Header.Set("User-Agent", "high-ticket-podcast-finder")

		resp, err := c.http.Do(req)
		attempted = true
		if err != nil {
			lastErr = err
			c.log.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("request failed")
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
			c.recorder.RecordCall(op, false)
			c.log.Error().Str("op", op).Int("status", resp.StatusCode).Msg("quota exceeded")
			return fmt.Errorf("%s: %w", op, ErrQuotaExceeded)

		case resp.StatusCode >= 500:
			lastErr = &APIError{StatusCode: resp.StatusCode, Op: op, Message: truncate(string(body), 200)}
			c.log.Warn().Str("op", op).Int("status", resp.StatusCode).Int("attempt", attempt+1).Msg("upstream error")
			continue

		case resp.StatusCode != http.StatusOK:
			c.recorder.RecordCall(op, true)
			return &APIError{StatusCode: resp.StatusCode, Op: op, Message: truncate(string(body), 200)}
		}

		if readErr != nil {
			lastErr = readErr
			continue
		}
		if err := json.Unmarshal(body, out); err != nil {
			c.recorder.RecordCall(op, true)
			return fmt.Errorf("%s: decode response: %w", op, err)
		}

		c.recorder.RecordCall(op, true)
		return nil
	}

	c.recorder.RecordCall(op, true)
	var apiErr *APIError
	if errors.As(lastErr, &apiErr) {
		return lastErr
	}
	return fmt.Errorf("%s: %w: %v", op, ErrTransient, lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
