package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/model"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/youtube"
)

// InvalidFilterError reports a FilterSpec that failed validation. Surfaced as
// a 4xx before any external call is made.
type InvalidFilterError struct {
	Msg string
}

func (e *InvalidFilterError) Error() string {
	return "invalid filter spec: " + e.Msg
}

// DataClient is the external data surface the orchestrator fans out over.
type DataClient interface {
	SearchChannels(ctx context.Context, keyword, region string) ([]youtube.ChannelStub, error)
	GetChannelDetails(ctx context.Context, ids []string) ([]youtube.ChannelDetail, error)
	GetLatestUpload(ctx context.Context, uploadsPlaylistID string) (*time.Time, error)
}

// QuotaGate is the tracker surface the orchestrator consults before spending
// quota units. Advisory: the gate never blocks, it informs the fallback
// decision.
type QuotaGate interface {
	CanProceed(op string) bool
	ShouldUseFallback() bool
}

const (
	// Per-(keyword,region) upstream deadline. A pair that times out is
	// dropped from the result set, it does not abort the search.
	pairTimeout = 20 * time.Second
)

// SearchService orchestrates a search request: fan out per (keyword, region)
// pair, deduplicate, fetch details and recency, filter, score, sort,
// truncate. Each request runs the state sequence fetch -> score -> sort;
// quota exhaustion mid-fetch degrades to best-effort results instead of
// failing.
type SearchService struct {
	client  DataClient
	quota   QuotaGate
	scorer  *ScoreService
	cache   *CacheService
	log     zerolog.Logger
	workers int
	now     func() time.Time

	defaultMaxResults int
	maxMaxResults     int
}

func NewSearchService(client DataClient, quota QuotaGate, scorer *ScoreService, cache *CacheService,
	logger zerolog.Logger, workers, defaultMaxResults, maxMaxResults int) *SearchService {
	if workers <= 0 {
		workers = 4
	}
	return &SearchService{
		client:            client,
		quota:             quota,
		scorer:            scorer,
		cache:             cache,
		log:               logger.With().Str("component", "search").Logger(),
		workers:           workers,
		now:               time.Now,
		defaultMaxResults: defaultMaxResults,
		maxMaxResults:     maxMaxResults,
	}
}

// Search runs one search request end to end. It returns an error only for
// invalid input; upstream degradation is absorbed into the response flags.
func (s *SearchService) Search(ctx context.Context, spec model.FilterSpec) (*model.SearchResponse, error) {
	if msg := spec.Validate(s.defaultMaxResults, s.maxMaxResults); msg != "" {
		return nil, &InvalidFilterError{Msg: msg}
	}

	specKey := spec.CacheKey()
	if s.cache != nil {
		if cached, err := s.cache.GetSearch(ctx, specKey); err != nil {
			s.log.Warn().Err(err).Msg("cache read failed")
		} else if cached != nil {
			s.log.Debug().Str("spec", specKey).Msg("cache hit")
			return cached, nil
		}
	}

	// No client (no API key) or an exhausted budget short-circuits straight
	// to the sample dataset.
	if s.client == nil || s.quota.ShouldUseFallback() {
		return s.fallbackResponse(spec), nil
	}

	stubs, matched, regions, quotaHit, partial := s.fanOutSearches(ctx, spec)

	channels, fetchQuotaHit, fetchPartial := s.fetchChannelData(ctx, spec, stubs, matched, regions)
	quotaHit = quotaHit || fetchQuotaHit
	partial = partial || fetchPartial

	if len(channels) == 0 && quotaHit {
		// Nothing fetched before the budget ran out.
		return s.fallbackResponse(spec), nil
	}

	filtered := s.applyFilters(channels, spec)
	for i := range filtered {
		filtered[i].Score = s.scorer.Score(statsFor(filtered[i]), spec)
	}
	sortChannels(filtered)

	total := len(filtered)
	if len(filtered) > spec.MaxResults {
		filtered = filtered[:spec.MaxResults]
	}

	resp := &model.SearchResponse{
		Success:       true,
		Data:          filtered,
		TotalResults:  total,
		Params:        spec,
		Timestamp:     s.now().UTC(),
		UsingFallback: quotaHit,
		Partial:       partial,
	}

	if s.cache != nil && !quotaHit && !partial {
		if err := s.cache.SetSearch(ctx, specKey, resp); err != nil {
			s.log.Warn().Err(err).Msg("cache write failed")
		}
	}

	return resp, nil
}

// fanOutSearches issues one search.list call per (keyword, region) pair
// through a bounded worker pool and merges the results, deduplicating by
// channel id. Per-pair failures are isolated: a transient failure drops that
// pair only, a quota failure stops launching further calls.
func (s *SearchService) fanOutSearches(ctx context.Context, spec model.FilterSpec) (
	stubs map[string]youtube.ChannelStub, matched map[string]map[string]struct{},
	regions map[string]string, quotaHit, partial bool) {

	stubs = make(map[string]youtube.ChannelStub)
	matched = make(map[string]map[string]struct{})
	regions = make(map[string]string)

	var (
		mu          sync.Mutex
		wg          sync.WaitGroup
		quotaFlag   atomic.Bool
		partialFlag atomic.Bool
	)
	sem := make(chan struct{}, s.workers)

	for _, keyword := range spec.Keywords {
		for _, region := range spec.Regions {
			if quotaFlag.Load() {
				break
			}
			wg.Add(1)
			go func(keyword, region string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				if quotaFlag.Load() {
					return
				}

				pairCtx, cancel := context.WithTimeout(ctx, pairTimeout)
				defer cancel()

				found, err := s.client.SearchChannels(pairCtx, keyword, region)
				if err != nil {
					if errors.Is(err, youtube.ErrQuotaExceeded) {
						quotaFlag.Store(true)
					} else {
						partialFlag.Store(true)
					}
					s.log.Warn().Err(err).Str("keyword", keyword).Str("region", region).
						Msg("search pair failed")
					return
				}

				mu.Lock()
				defer mu.Unlock()
				for _, stub := range found {
					if _, seen := stubs[stub.ID]; !seen {
						stubs[stub.ID] = stub
						regions[stub.ID] = region
						matched[stub.ID] = make(map[string]struct{})
					}
					matched[stub.ID][keyword] = struct{}{}
				}
			}(keyword, region)
		}
	}
	wg.Wait()

	return stubs, matched, regions, quotaFlag.Load(), partialFlag.Load()
}

// fetchChannelData batch-fetches statistics for the deduplicated id set and
// resolves upload recency per channel. Recency lookups stop once the quota
// gate closes; those channels keep an unknown upload date.
func (s *SearchService) fetchChannelData(ctx context.Context, spec model.FilterSpec,
	stubs map[string]youtube.ChannelStub, matched map[string]map[string]struct{},
	regions map[string]string) (channels []model.Channel, quotaHit, partial bool) {

	if len(stubs) == 0 {
		return nil, false, false
	}

	ids := make([]string, 0, len(stubs))
	for id := range stubs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	details, err := s.client.GetChannelDetails(ctx, ids)
	if err != nil {
		if errors.Is(err, youtube.ErrQuotaExceeded) {
			quotaHit = true
		} else {
			partial = true
		}
		s.log.Warn().Err(err).Int("ids", len(ids)).Msg("detail fetch degraded")
	}

	now := s.now().UTC()
	for _, d := range details {
		ch := model.Channel{
			ID:              d.ID,
			Title:           d.Title,
			Description:     d.Description,
			ThumbnailURL:    d.ThumbnailURL,
			SubscriberCount: d.SubscriberCount,
			VideoCount:      d.VideoCount,
			ViewCount:       d.ViewCount,
			Region:          regionFor(d, regions),
			KeywordsMatched: sortedKeywords(matched[d.ID]),
			ChannelURL:      "https://youtube.com/channel/" + d.ID,
		}

		// Recency is fetched only for channels inside the subscriber bounds;
		// the rest get dropped by the filter anyway and each lookup costs a
		// quota unit.
		inBounds := d.SubscriberCount >= spec.MinSubscribers && d.SubscriberCount <= spec.MaxSubscribers
		if inBounds && !quotaHit && s.quota.CanProceed("playlistItems") {
			playlistID := d.UploadsPlaylistID
			if playlistID == "" {
				playlistID = youtube.UploadsPlaylistFor(d.ID)
			}
			uploaded, err := s.client.GetLatestUpload(ctx, playlistID)
			switch {
			case errors.Is(err, youtube.ErrQuotaExceeded):
				quotaHit = true
			case err != nil:
				partial = true
				s.log.Warn().Err(err).Str("channel", d.ID).Msg("recency lookup failed")
			case uploaded != nil:
				days := int(now.Sub(*uploaded).Hours() / 24)
				if days < 0 {
					days = 0
				}
				ch.LastUploadDate = uploaded
				ch.DaysSinceLastUpload = &days
			}
		}

		channels = append(channels, ch)
	}

	return channels, quotaHit, partial
}

// applyFilters drops channels outside the subscriber bounds and channels with
// a known upload older than the recency bound. Unknown upload dates are kept.
func (s *SearchService) applyFilters(channels []model.Channel, spec model.FilterSpec) []model.Channel {
	filtered := make([]model.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.SubscriberCount < spec.MinSubscribers || ch.SubscriberCount > spec.MaxSubscribers {
			continue
		}
		if ch.DaysSinceLastUpload != nil && *ch.DaysSinceLastUpload > spec.MaxDaysSinceUpload {
			continue
		}
		filtered = append(filtered, ch)
	}
	return filtered
}

// fallbackResponse serves the deterministic sample dataset through the same
// filter/score/sort pipeline as live data, flagged as fallback.
func (s *SearchService) fallbackResponse(spec model.FilterSpec) *model.SearchResponse {
	channels := s.applyFilters(youtube.FallbackChannels(s.now().UTC()), spec)
	for i := range channels {
		channels[i].Score = s.scorer.Score(statsFor(channels[i]), spec)
	}
	sortChannels(channels)

	total := len(channels)
	if len(channels) > spec.MaxResults {
		channels = channels[:spec.MaxResults]
	}

	s.log.Info().Int("results", total).Msg("serving fallback dataset")
	return &model.SearchResponse{
		Success:       true,
		Data:          channels,
		TotalResults:  total,
		Params:        spec,
		Timestamp:     s.now().UTC(),
		UsingFallback: true,
	}
}

// sortChannels orders by score descending, subscriber count descending, then
// id ascending so equal inputs always produce the same ranking.
func sortChannels(channels []model.Channel) {
	sort.Slice(channels, func(i, j int) bool {
		if channels[i].Score != channels[j].Score {
			return channels[i].Score > channels[j].Score
		}
		if channels[i].SubscriberCount != channels[j].SubscriberCount {
			return channels[i].SubscriberCount > channels[j].SubscriberCount
		}
		return channels[i].ID < channels[j].ID
	})
}

func statsFor(ch model.Channel) ChannelStats {
	return ChannelStats{
		SubscriberCount:     ch.SubscriberCount,
		ViewCount:           ch.ViewCount,
		VideoCount:          ch.VideoCount,
		DaysSinceLastUpload: ch.DaysSinceLastUpload,
		KeywordsMatched:     ch.KeywordsMatched,
	}
}

func sortedKeywords(set map[string]struct{}) []string {
	if len(set) == 0 {
		return []string{}
	}
	keywords := make([]string, 0, len(set))
	for kw := range set {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	return keywords
}

func regionFor(d youtube.ChannelDetail, regions map[string]string) string {
	if d.Country != "" {
		return d.Country
	}
	if r, ok := regions[d.ID]; ok {
		return r
	}
	return ""
}
