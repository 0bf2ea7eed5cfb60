package services

import (
	"strings"

	"urbanmart-dashboard/internal/models"
)

// CountChannels tallies Online and In-store values by hand. Strings are
// trimmed and compared case-insensitively; "in-store", "instore" and
// "in store" all count as In-store. Nil, non-string and unrecognised values
// are skipped.
func CountChannels(values []any) models.ChannelCounts {
	var counts models.ChannelCounts
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "online":
			counts.Online++
		case "in-store", "instore", "in store":
			counts.InStore++
		}
	}
	return counts
}
