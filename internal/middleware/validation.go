package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"
)

const (
	MaxChannelIDLen = 32
	MaxOutreachIDs  = 100
)

// channelIDRe matches YouTube channel IDs: alphanumeric, dash, underscore.
var channelIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateChannelID checks that a channel ID is well-formed. Returns the
// trimmed ID and an error message ("" when valid).
func ValidateChannelID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "channel id is required"
	}
	if len(id) > MaxChannelIDLen {
		return "", "channel id must be at most 32 characters"
	}
	if !channelIDRe.MatchString(id) {
		return "", "channel id contains invalid characters"
	}
	return id, ""
}

// ValidateChannelIDs validates an outreach id list: non-empty, bounded,
// every entry well-formed.
func ValidateChannelIDs(ids []string) ([]string, string) {
	if len(ids) == 0 {
		return nil, "channel_ids must contain at least one id"
	}
	if len(ids) > MaxOutreachIDs {
		return nil, "channel_ids must contain at most 100 ids"
	}
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		valid, errMsg := ValidateChannelID(id)
		if errMsg != "" {
			return nil, errMsg
		}
		clean = append(clean, valid)
	}
	return clean, ""
}
