package matcher

import (
	"strings"

	"github.com/desertthunder/sp2yt/internal/models"
)

// Confidence estimates in [0, 1] how likely video is the right recording of track.
// A nil video has zero confidence.
func Confidence(track models.Track, video *models.VideoCandidate) float64 {
	if video == nil {
		return 0
	}

	t := termsFor(track)
	title := strings.ToLower(collapse(video.Title))
	channel := strings.ToLower(video.Channel)

	c := 0.5
	if contains(title, t.name) {
		c += 0.3
	}
	if contains(title, t.artist) || contains(channel, t.artist) {
		c += 0.2
	}
	if t.artist != "" && t.name != "" &&
		(title == t.artist+" "+t.name || title == t.name+" "+t.artist) {
		c += 0.2
	}
	if strings.Contains(title, "official") {
		c += 0.1
	}
	if contains(channel, t.artist) {
		c += 0.1
	}
	if containsAny(title, "cover", "remix") {
		c -= 0.2
	}
	if containsAny(title, "live", "concert") {
		c -= 0.1
	}
	if containsAny(title, "karaoke", "instrumental") {
		c -= 0.3
	}
	return min(max(c, 0), 1)
}

func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
