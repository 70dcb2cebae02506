package matcher

import (
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/sp2yt/internal/models"
)

func track(title string, artists ...string) models.Track {
	return models.Track{ID: "t1", Title: title, Artists: artists}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "feat in parens and dash remix", title: "Song (feat. X) - 2020 Remix", want: "Song"},
		{name: "ft in brackets", title: "Track [ft. Someone]", want: "Track"},
		{name: "featuring in parens", title: "Track (Featuring Someone Else)", want: "Track"},
		{name: "trailing feat clause", title: "Hello feat. Guest", want: "Hello"},
		{name: "dash remaster", title: "Yesterday - Remastered 2009", want: "Yesterday"},
		{name: "dash radio edit", title: "Anthem - Radio Edit", want: "Anthem"},
		{name: "remaster parens", title: "Bohemian Rhapsody (2011 Remaster)", want: "Bohemian Rhapsody"},
		{name: "year parens", title: "Song (1999)", want: "Song"},
		{name: "other parens", title: "Song (Acoustic)", want: "Song"},
		{name: "nested parens", title: "Song (Live (Acoustic))", want: "Song"},
		{name: "nested mixed brackets", title: "Song [Live (2019)] Extra", want: "Song Extra"},
		{name: "nested remaster", title: "Song (Live (2011 Remaster))", want: "Song"},
		{name: "whitespace", title: "  Spaced   Out  ", want: "Spaced Out"},
		{name: "hyphenated word kept", title: "Anti-Hero", want: "Anti-Hero"},
		{name: "plain dash kept", title: "Left - Right", want: "Left - Right"},
		{name: "fully stripped falls back", title: "(Intro)", want: "(Intro)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTitle(tt.title); got != tt.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestGenerateQueries(t *testing.T) {
	t.Run("annotated title", func(t *testing.T) {
		tr := track("Song (feat. X) - 2020 Remix", "Artist")
		clean := strings.ToLower(CleanTitle(tr.Title))
		for _, banned := range []string{"feat", "remix", "2020"} {
			if strings.Contains(clean, banned) {
				t.Errorf("cleaned title %q still contains %q", clean, banned)
			}
		}

		queries := GenerateQueries(tr)
		if len(queries) == 0 {
			t.Fatal("expected queries")
		}
		seen := map[string]bool{}
		for _, q := range queries {
			if strings.TrimSpace(q) == "" {
				t.Error("empty query generated")
			}
			if seen[q] {
				t.Errorf("duplicate query %q", q)
			}
			seen[q] = true
		}
		if queries[0] != "Artist Song official" {
			t.Errorf("first query = %q, want most specific form", queries[0])
		}
	})

	t.Run("precedence order", func(t *testing.T) {
		got := GenerateQueries(track("Hello (Live)", "Adele", "Other"))
		want := []string{
			"Adele Hello official",
			"Adele Hello official audio",
			"Adele Hello official video",
			"Adele Hello",
			"Hello (Live) Adele",
			"Hello Adele",
			`"Adele" "Hello"`,
		}
		if !slices.Equal(got, want) {
			t.Errorf("GenerateQueries() =\n%q\nwant\n%q", got, want)
		}
	})

	t.Run("clean title equals raw title dedupes", func(t *testing.T) {
		got := GenerateQueries(track("Hello", "Adele"))
		if len(got) != 6 {
			t.Errorf("expected 6 unique queries, got %d: %q", len(got), got)
		}
	})

	t.Run("no artist", func(t *testing.T) {
		got := GenerateQueries(track("Hello"))
		want := []string{"Hello official", "Hello official audio", "Hello official video", "Hello"}
		if !slices.Equal(got, want) {
			t.Errorf("GenerateQueries() = %q, want %q", got, want)
		}
	})

	t.Run("empty track", func(t *testing.T) {
		got := GenerateQueries(track(""))
		want := []string{"official", "official audio", "official video"}
		if !slices.Equal(got, want) {
			t.Errorf("GenerateQueries() = %q, want %q", got, want)
		}
	})
}

func TestScore(t *testing.T) {
	tr := track("Song", "Artist")

	tests := []struct {
		name  string
		video models.VideoCandidate
		want  int
	}{
		{
			name:  "official video",
			video: models.VideoCandidate{Title: "Artist - Song (Official Video)"},
			want:  10,
		},
		{
			name:  "cover",
			video: models.VideoCandidate{Title: "Random Coffee Shop Cover"},
			want:  -2,
		},
		{
			name:  "artist channel",
			video: models.VideoCandidate{Title: "Song", Channel: "Artist Records"},
			want:  3 + 1 + 1 + 2 + 1,
		},
		{
			name:  "live karaoke",
			video: models.VideoCandidate{Title: "song live karaoke"},
			want:  3 + 1 - 1 - 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tr, tt.video); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}

	t.Run("empty artist adds nothing", func(t *testing.T) {
		got := Score(track("Song"), models.VideoCandidate{Title: "Song", Channel: "Someone"})
		if got != 4 {
			t.Errorf("Score() = %d, want 4", got)
		}
	})
}

func TestBestMatch(t *testing.T) {
	tr := track("Song", "Artist")
	good := models.VideoCandidate{ID: "a", Title: "Artist - Song (Official Video)"}
	cover := models.VideoCandidate{ID: "b", Title: "Random Coffee Shop Cover"}

	t.Run("best candidate wins", func(t *testing.T) {
		best, score, ok := BestMatch(tr, []models.VideoCandidate{good, cover})
		if !ok || best.ID != "a" || score < MinScore {
			t.Errorf("BestMatch() = %v, %d, %v", best.ID, score, ok)
		}
	})

	t.Run("only cover is no match", func(t *testing.T) {
		_, score, ok := BestMatch(tr, []models.VideoCandidate{cover})
		if ok || score >= MinScore {
			t.Errorf("expected no match, got score %d ok %v", score, ok)
		}
	})

	t.Run("ties keep first", func(t *testing.T) {
		first := models.VideoCandidate{ID: "first", Title: "Artist Song"}
		second := models.VideoCandidate{ID: "second", Title: "Artist Song"}
		best, _, _ := BestMatch(tr, []models.VideoCandidate{first, second})
		if best.ID != "first" {
			t.Errorf("expected first candidate on tie, got %s", best.ID)
		}
	})

	t.Run("later strictly better replaces", func(t *testing.T) {
		best, _, _ := BestMatch(tr, []models.VideoCandidate{cover, good})
		if best.ID != "a" {
			t.Errorf("expected official video, got %s", best.ID)
		}
	})

	t.Run("empty candidates", func(t *testing.T) {
		if _, _, ok := BestMatch(tr, nil); ok {
			t.Error("expected no match for empty list")
		}
	})
}

func TestConfidence(t *testing.T) {
	approx := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
	tr := track("Song", "Artist")

	tests := []struct {
		name  string
		video *models.VideoCandidate
		want  float64
	}{
		{name: "nil video", video: nil, want: 0},
		{name: "exact artist name clamps high", video: &models.VideoCandidate{Title: "Artist Song", Channel: "Artist"}, want: 1},
		{name: "exact name artist", video: &models.VideoCandidate{Title: "song artist"}, want: 1},
		{name: "title only", video: &models.VideoCandidate{Title: "Song"}, want: 0.8},
		{name: "unrelated", video: &models.VideoCandidate{Title: "Something Else"}, want: 0.5},
		{name: "karaoke instrumental counted once", video: &models.VideoCandidate{Title: "Song Karaoke Instrumental"}, want: 0.5},
		{name: "live concert counted once", video: &models.VideoCandidate{Title: "Song Live Concert"}, want: 0.7},
		{name: "cover and remix counted once", video: &models.VideoCandidate{Title: "Song Cover Remix"}, want: 0.6},
		{name: "all penalties clamp low", video: &models.VideoCandidate{Title: "karaoke cover live"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tr, tt.video)
			if !approx(got, tt.want) {
				t.Errorf("Confidence() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("Confidence() = %v outside [0,1]", got)
			}
		})
	}

	t.Run("always within bounds", func(t *testing.T) {
		titles := []string{"", "official", "Artist Song Official", "cover", "karaoke instrumental live concert remix cover"}
		for _, title := range titles {
			for _, tr := range []models.Track{track(""), track("Song"), track("Song", "Artist")} {
				v := &models.VideoCandidate{Title: title, Channel: "Artist Official"}
				if c := Confidence(tr, v); c < 0 || c > 1 {
					t.Errorf("Confidence(%q, %q) = %v outside [0,1]", tr.Title, title, c)
				}
			}
		}
	})
}
