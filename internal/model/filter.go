package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ravindharnaik/high-ticket-podcast-finder/pkg/hash"
)

// DefaultRegions is applied when a search omits regions entirely.
var DefaultRegions = []string{"US", "GB", "CA", "AU", "DE", "NL", "SG"}

// FilterSpec is the user-supplied search criteria. It is normalized once by
// Validate and treated as immutable for the rest of the search.
type FilterSpec struct {
	Keywords           []string `json:"keywords"`
	Regions            []string `json:"regions"`
	MinSubscribers     int64    `json:"min_subscribers"`
	MaxSubscribers     int64    `json:"max_subscribers"`
	MaxDaysSinceUpload int      `json:"max_days_since_upload"`
	MaxResults         int      `json:"max_results"`
}

// Validate normalizes defaults in place and returns a human-readable message
// for the first violated constraint, or "" when the spec is valid.
func (s *FilterSpec) Validate(defaultMaxResults, maxMaxResults int) string {
	var keywords []string
	for _, k := range s.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	s.Keywords = keywords
	if len(s.Keywords) == 0 {
		return "keywords must contain at least one non-empty keyword"
	}

	var regions []string
	for _, r := range s.Regions {
		r = strings.ToUpper(strings.TrimSpace(r))
		if len(r) != 2 {
			if r == "" {
				continue
			}
			return fmt.Sprintf("region %q is not a two-letter country code", r)
		}
		regions = append(regions, r)
	}
	if len(regions) == 0 {
		regions = append(regions, DefaultRegions...)
	}
	s.Regions = regions

	if s.MinSubscribers < 0 {
		return "min_subscribers must be >= 0"
	}
	if s.MaxSubscribers <= 0 {
		s.MaxSubscribers = 500000
	}
	if s.MinSubscribers > s.MaxSubscribers {
		return "min_subscribers must not exceed max_subscribers"
	}

	if s.MaxDaysSinceUpload <= 0 {
		s.MaxDaysSinceUpload = 45
	}
	if s.MaxDaysSinceUpload > 365 {
		return "max_days_since_upload must be at most 365"
	}

	if s.MaxResults <= 0 {
		s.MaxResults = defaultMaxResults
	}
	if s.MaxResults > maxMaxResults {
		return fmt.Sprintf("max_results must be at most %d", maxMaxResults)
	}

	return ""
}

// CacheKey returns a stable digest of the normalized spec, suitable as a
// cache key. Keyword and region order does not affect the key.
func (s FilterSpec) CacheKey() string {
	keywords := append([]string(nil), s.Keywords...)
	regions := append([]string(nil), s.Regions...)
	sort.Strings(keywords)
	sort.Strings(regions)

	raw := fmt.Sprintf("kw=%s|rg=%s|subs=%d-%d|days=%d|max=%d",
		strings.Join(keywords, ","), strings.Join(regions, ","),
		s.MinSubscribers, s.MaxSubscribers, s.MaxDaysSinceUpload, s.MaxResults)
	return hash.ShortHash(raw, 16)
}
