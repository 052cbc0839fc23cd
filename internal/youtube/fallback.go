package youtube

import (
	"time"

	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/model"
)

// fallbackSeed is the built-in sample dataset served when the quota budget is
// exhausted or no API key is configured. Stats are static; upload dates are
// expressed as days before "now" so recency filtering still behaves.
var fallbackSeed = []struct {
	id, title, description, region string
	subscribers, videos, views     int64
	daysSinceUpload                int
	contactEmail                   string
	keyword                        string
}{
	{
		id: "UC1234567890", title: "The Business Mastery Podcast",
		description: "Helping entrepreneurs scale their businesses through actionable strategies and expert interviews",
		region: "US", subscribers: 125000, videos: 245, views: 2500000,
		daysSinceUpload: 5, contactEmail: "contact@businessmastery.com",
		keyword: "business podcast",
	},
	{
		id: "UC0987654321", title: "Real Estate Wealth Show",
		description: "Building wealth through real estate investing strategies and market insights",
		region: "US", subscribers: 98000, videos: 189, views: 1800000,
		daysSinceUpload: 12, contactEmail: "info@realestatewealth.com",
		keyword: "real estate podcast",
	},
	{
		id: "UC5432109876", title: "SaaS Growth Strategies",
		description: "Scaling software as a service companies",
		region: "GB", subscribers: 75000, videos: 156, views: 1200000,
		daysSinceUpload: 3, contactEmail: "hello@saasgrowth.io",
		keyword: "saas podcast",
	},
	{
		id: "UC1111222333", title: "Finance Freedom Podcast",
		description: "Achieving financial independence through smart investing",
		region: "CA", subscribers: 156000, videos: 298, views: 3200000,
		daysSinceUpload: 7, contactEmail: "team@financefreedom.ca",
		keyword: "finance podcast",
	},
	{
		id: "UC4444555666", title: "Coaching Excellence Show",
		description: "Helping coaches build successful businesses",
		region: "AU", subscribers: 62000, videos: 178, views: 980000,
		daysSinceUpload: 15, contactEmail: "",
		keyword: "coaching podcast",
	},
}

// FallbackChannels returns the sample dataset as unscored channel records.
// The orchestrator runs them through the same filter/score/sort pipeline as
// live data, so bounds and recency criteria still apply.
func FallbackChannels(now time.Time) []model.Channel {
	channels := make([]model.Channel, 0, len(fallbackSeed))
	for _, seed := range fallbackSeed {
		uploaded := now.AddDate(0, 0, -seed.daysSinceUpload)
		days := seed.daysSinceUpload

		ch := model.Channel{
			ID:                  seed.id,
			Title:               seed.title,
			Description:         seed.description,
			ThumbnailURL:        "https://via.placeholder.com/150",
			SubscriberCount:     seed.subscribers,
			VideoCount:          seed.videos,
			ViewCount:           seed.views,
			Region:              seed.region,
			KeywordsMatched:     []string{seed.keyword},
			LastUploadDate:      &uploaded,
			DaysSinceLastUpload: &days,
			ChannelURL:          "https://youtube.com/channel/" + seed.id,
		}
		if seed.contactEmail != "" {
			email := seed.contactEmail
			ch.ContactEmail = &email
		}
		channels = append(channels, ch)
	}
	return channels
}
