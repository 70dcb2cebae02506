package matcher

import (
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/sp2yt/internal/models"
)

// MinScore is the lowest winning score accepted as a match.
const MinScore = 2

// terms holds the lower-cased strings a track is compared by.
type terms struct {
	name        string
	artist      string
	nameWords   []string
	artistWords []string
}

func termsFor(track models.Track) terms {
	t := terms{
		name:   strings.ToLower(CleanTitle(track.Title)),
		artist: strings.ToLower(collapse(track.PrimaryArtist())),
	}
	t.nameWords = significantWords(t.name)
	t.artistWords = significantWords(t.artist)
	return t
}

// significantWords returns the words of s longer than two runes.
func significantWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(s) {
		if utf8.RuneCountInString(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}

// contains is [strings.Contains] that never matches an empty term.
func contains(s, term string) bool {
	return term != "" && strings.Contains(s, term)
}

// Score rates how well video matches track. Higher is better; the value may be negative.
func Score(track models.Track, video models.VideoCandidate) int {
	return termsFor(track).score(video)
}

func (t terms) score(video models.VideoCandidate) int {
	title := strings.ToLower(video.Title)
	channel := strings.ToLower(video.Channel)

	score := 0
	if contains(title, t.name) {
		score += 3
	}
	if contains(title, t.artist) {
		score += 3
	}
	for _, w := range t.nameWords {
		if strings.Contains(title, w) {
			score++
		}
	}
	for _, w := range t.artistWords {
		if strings.Contains(title, w) || strings.Contains(channel, w) {
			score++
		}
	}
	if strings.Contains(title, "official") {
		score += 2
	}
	if contains(channel, t.artist) {
		score += 2
	}
	if strings.Contains(title, "live") {
		score--
	}
	if strings.Contains(title, "cover") {
		score -= 2
	}
	if strings.Contains(title, "karaoke") {
		score -= 3
	}
	if strings.Contains(channel, "official") || strings.Contains(channel, "records") {
		score++
	}
	return score
}

// BestMatch returns the highest scoring candidate for track.
//
// Ties keep the earlier candidate. ok is false when candidates is empty or the
// best score is below [MinScore]; the best score is returned either way.
func BestMatch(track models.Track, candidates []models.VideoCandidate) (best models.VideoCandidate, score int, ok bool) {
	if len(candidates) == 0 {
		return models.VideoCandidate{}, 0, false
	}

	t := termsFor(track)
	bestIdx, bestScore := 0, t.score(candidates[0])
	for i := 1; i < len(candidates); i++ {
		if s := t.score(candidates[i]); s > bestScore {
			bestIdx, bestScore = i, s
		}
	}
	return candidates[bestIdx], bestScore, bestScore >= MinScore
}
