package service

import (
	"math"
	"strings"

	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/model"
)

// Scoring policy. Each factor lands in [0,1]; the final score is the weighted
// sum scaled to [0,100]. Weights sum to 1.0 and live here so tests can assert
// monotonicity per factor independently.
const (
	nicheWeight      = 0.40
	subscriberWeight = 0.30
	recencyWeight    = 0.20
	engagementWeight = 0.05
	keywordWeight    = 0.05

	// Niche base weight for keywords not in the table.
	defaultNicheWeight = 0.5

	// Views-per-subscriber ratio at which the engagement factor saturates.
	engagementSaturation = 20.0
)

// nicheWeights ranks niches by commercial value for high-ticket outreach.
var nicheWeights = map[string]float64{
	"business podcast":     1.0,
	"entrepreneur podcast": 0.95,
	"startup podcast":      0.9,
	"finance podcast":      0.9,
	"investing podcast":    0.9,
	"real estate podcast":  0.85,
	"marketing podcast":    0.85,
	"leadership podcast":   0.85,
	"saas podcast":         0.8,
	"coaching podcast":     0.8,
}

// ChannelStats carries the inputs the scoring function needs. A nil
// DaysSinceLastUpload means the upload date is unknown.
type ChannelStats struct {
	SubscriberCount     int64
	ViewCount           int64
	VideoCount          int64
	DaysSinceLastUpload *int
	KeywordsMatched     []string
}

// ScoreService computes the 0-100 commercial-fit score for a channel. Pure
// and deterministic: the same stats and spec always produce the same score.
type ScoreService struct{}

func NewScoreService() *ScoreService {
	return &ScoreService{}
}

// Score combines the per-factor signals:
//
//	score = (niche*0.40 + subscribers*0.30 + recency*0.20 +
//	         engagement*0.05 + keywords*0.05) * 100
func (s *ScoreService) Score(stats ChannelStats, spec model.FilterSpec) float64 {
	score := nicheWeight*s.NicheFactor(stats.KeywordsMatched) +
		subscriberWeight*s.SubscriberFactor(stats.SubscriberCount, spec.MinSubscribers, spec.MaxSubscribers) +
		recencyWeight*s.RecencyFactor(stats.DaysSinceLastUpload, spec.MaxDaysSinceUpload) +
		engagementWeight*s.EngagementFactor(stats.ViewCount, stats.SubscriberCount) +
		keywordWeight*s.KeywordFactor(len(stats.KeywordsMatched), len(spec.Keywords))

	score *= 100
	score = math.Round(score*100) / 100
	return math.Min(100, math.Max(0, score))
}

// NicheFactor returns the best niche base weight across the matched
// keywords. Unknown keywords count as defaultNicheWeight, so matching more
// keywords never lowers the factor.
func (s *ScoreService) NicheFactor(keywordsMatched []string) float64 {
	best := defaultNicheWeight
	for _, kw := range keywordsMatched {
		if w, ok := nicheWeights[strings.ToLower(strings.TrimSpace(kw))]; ok && w > best {
			best = w
		}
	}
	return best
}

// SubscriberFactor rewards audiences well inside [min,max]: 1.0 at the
// midpoint, falling linearly to 0.5 at either bound, 0 outside the bounds or
// for channels with no subscribers.
func (s *ScoreService) SubscriberFactor(count, minSubs, maxSubs int64) float64 {
	if count <= 0 || count < minSubs || count > maxSubs {
		return 0
	}
	half := float64(maxSubs-minSubs) / 2
	if half == 0 {
		return 1
	}
	mid := float64(minSubs) + half
	dist := math.Abs(float64(count)-mid) / half
	return 1 - 0.5*dist
}

// RecencyFactor decays linearly from 1.0 at zero days to 0 at the cutoff.
// Unknown upload dates contribute nothing, they are not an error.
func (s *ScoreService) RecencyFactor(daysSinceUpload *int, maxDays int) float64 {
	if daysSinceUpload == nil || maxDays <= 0 {
		return 0
	}
	days := *daysSinceUpload
	if days < 0 {
		days = 0
	}
	if days >= maxDays {
		return 0
	}
	return 1 - float64(days)/float64(maxDays)
}

// EngagementFactor is the views-per-subscriber ratio, saturating at
// engagementSaturation. A secondary signal, weighted accordingly.
func (s *ScoreService) EngagementFactor(views, subscribers int64) float64 {
	if subscribers <= 0 || views <= 0 {
		return 0
	}
	ratio := float64(views) / float64(subscribers)
	return math.Min(ratio/engagementSaturation, 1)
}

// KeywordFactor is the fraction of requested keywords the channel matched.
func (s *ScoreService) KeywordFactor(matched, requested int) float64 {
	if requested <= 0 || matched <= 0 {
		return 0
	}
	return math.Min(float64(matched)/float64(requested), 1)
}
