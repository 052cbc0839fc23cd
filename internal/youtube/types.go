package youtube

import "strconv"

// ChannelStub is the minimal channel identity returned by search.list.
type ChannelStub struct {
	ID           string
	Title        string
	Description  string
	ThumbnailURL string
}

// ChannelDetail carries the statistics needed for filtering and scoring,
// fetched in batches via channels.list.
type ChannelDetail struct {
	ID                string
	Title             string
	Description       string
	ThumbnailURL      string
	Country           string
	SubscriberCount   int64
	VideoCount        int64
	ViewCount         int64
	UploadsPlaylistID string
}

// --- YouTube Data API v3 response envelopes ---

type thumbnails struct {
	Default struct {
		URL string `json:"url"`
	} `json:"default"`
}

type searchListResponse struct {
	Items []struct {
		ID struct {
			ChannelID string `json:"channelId"`
		} `json:"id"`
		Snippet struct {
			ChannelID   string     `json:"channelId"`
			Title       string     `json:"title"`
			Description string     `json:"description"`
			Thumbnails  thumbnails `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type channelListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string     `json:"title"`
			Description string     `json:"description"`
			Country     string     `json:"country"`
			Thumbnails  thumbnails `json:"thumbnails"`
		} `json:"snippet"`
		// The API serializes statistics counts as decimal strings.
		Statistics struct {
			SubscriberCount string `json:"subscriberCount"`
			VideoCount      string `json:"videoCount"`
			ViewCount       string `json:"viewCount"`
		} `json:"statistics"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		ContentDetails struct {
			VideoPublishedAt string `json:"videoPublishedAt"`
		} `json:"contentDetails"`
		Snippet struct {
			PublishedAt string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
