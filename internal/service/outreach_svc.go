package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/model"
)

// csvHeader is the fixed, stable column order for CSV exports.
var csvHeader = []string{
	"Channel Name", "Description", "Subscribers", "Video Count", "View Count",
	"Market Region", "Keywords Matched", "Last Upload Date",
	"Days Since Last Upload", "Score", "Channel URL", "Contact Email",
}

// ChannelDirectory resolves channel ids to full records with contact info.
type ChannelDirectory interface {
	LookupChannels(ctx context.Context, ids []string) map[string]model.Channel
}

// OutreachService renders CSV exports and generates templated outreach
// messages for ranked channels.
type OutreachService struct {
	directory ChannelDirectory
	log       zerolog.Logger
}

func NewOutreachService(directory ChannelDirectory, logger zerolog.Logger) *OutreachService {
	return &OutreachService{
		directory: directory,
		log:       logger.With().Str("component", "outreach").Logger(),
	}
}

// RenderCSV writes one row per channel in ranked order. Numeric fields render
// as plain integers, dates as RFC3339 or blank, score with one decimal.
func (s *OutreachService) RenderCSV(w io.Writer, channels []model.Channel) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, ch := range channels {
		lastUpload := ""
		if ch.LastUploadDate != nil {
			lastUpload = ch.LastUploadDate.UTC().Format(time.RFC3339)
		}
		days := ""
		if ch.DaysSinceLastUpload != nil {
			days = strconv.Itoa(*ch.DaysSinceLastUpload)
		}
		email := ""
		if ch.ContactEmail != nil {
			email = *ch.ContactEmail
		}

		row := []string{
			ch.Title,
			ch.Description,
			strconv.FormatInt(ch.SubscriberCount, 10),
			strconv.FormatInt(ch.VideoCount, 10),
			strconv.FormatInt(ch.ViewCount, 10),
			ch.Region,
			strings.Join(ch.KeywordsMatched, ", "),
			lastUpload,
			days,
			fmt.Sprintf("%.1f", ch.Score),
			ch.ChannelURL,
			email,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// OutreachMessage builds the outreach text for one channel. Pure template
// substitution; a non-empty custom message is used verbatim. Absent optional
// fields never fail the render.
func (s *OutreachService) OutreachMessage(ch model.Channel, custom string) string {
	if custom != "" {
		return custom
	}

	region := ch.Region
	if region == "" {
		region = "your market"
	}

	return fmt.Sprintf(`Subject: Professional Podcast Collaboration Opportunity

Hi %s Team,

I came across your podcast "%s" and was really impressed by your content! With %s subscribers, I can see you're serious about delivering quality content to your audience in %s.

I specialize in helping podcasters like you:
- Increase audience engagement
- Improve production quality
- Monetization strategies
- Content distribution

Would you be open to a quick chat about potential collaboration opportunities?

Best regards,
[Your Name]
[Your Contact Information]`,
		ch.Title, ch.Title, formatCount(ch.SubscriberCount), region)
}

// SendOutreach generates and dispatches outreach for the requested channel
// ids. Channels that cannot be resolved or lack contact info count as
// failures, never as errors; the caller always gets a full tally.
func (s *OutreachService) SendOutreach(ctx context.Context, req model.OutreachRequest) model.OutreachResponse {
	directory := s.directory.LookupChannels(ctx, req.ChannelIDs)

	var sent, failed int
	for _, id := range req.ChannelIDs {
		ch, ok := directory[id]
		if !ok {
			failed++
			continue
		}
		if ch.ContactEmail == nil || *ch.ContactEmail == "" {
			s.log.Debug().Str("channel", id).Msg("no contact info, skipping")
			failed++
			continue
		}

		body := s.OutreachMessage(ch, req.CustomMessage)
		// Dispatch is a log-only stub until an email provider is wired in.
		s.log.Info().Str("channel", id).Str("email", *ch.ContactEmail).
			Int("bytes", len(body)).Msg("outreach message generated")
		sent++
	}

	return model.OutreachResponse{
		Success:     true,
		Message:     fmt.Sprintf("Outreach complete. Sent: %d, Failed: %d", sent, failed),
		SentCount:   sent,
		FailedCount: failed,
		Timestamp:   time.Now().UTC(),
	}
}

// StaticDirectory is a ChannelDirectory over a fixed channel set, used for
// the built-in sample dataset.
type StaticDirectory struct {
	channels map[string]model.Channel
}

func NewStaticDirectory(channels []model.Channel) *StaticDirectory {
	byID := make(map[string]model.Channel, len(channels))
	for _, ch := range channels {
		byID[ch.ID] = ch
	}
	return &StaticDirectory{channels: byID}
}

func (d *StaticDirectory) LookupChannels(_ context.Context, ids []string) map[string]model.Channel {
	found := make(map[string]model.Channel, len(ids))
	for _, id := range ids {
		if ch, ok := d.channels[id]; ok {
			found[id] = ch
		}
	}
	return found
}

// formatCount renders 125000 as "125,000" for outreach copy.
func formatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
