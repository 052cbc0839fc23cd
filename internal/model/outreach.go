package model

import "time"

// OutreachRequest selects channels for a templated outreach send.
type OutreachRequest struct {
	ChannelIDs    []string `json:"channel_ids"`
	Template      string   `json:"template,omitempty"`
	CustomMessage string   `json:"custom_message,omitempty"`
}

// OutreachResponse reports per-channel send outcomes. Channels lacking
// contact info are counted as failures, not errors.
type OutreachResponse struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	SentCount   int       `json:"sent_count"`
	FailedCount int       `json:"failed_count"`
	Timestamp   time.Time `json:"timestamp"`
}
