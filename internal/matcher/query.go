package matcher

import (
	"regexp"
	"strings"

	"github.com/desertthunder/sp2yt/internal/models"
)

// title annotations stripped by [CleanTitle], applied in order.
var annotationPatterns = []*regexp.Regexp{
	// (feat. X) [ft. X] (featuring X)
	regexp.MustCompile(`(?i)\s*[\(\[]\s*(?:feat\.?|featuring|ft\.?)\s[^\(\)\[\]]*[\)\]]`),
	// Song feat. X
	regexp.MustCompile(`(?i)\s+(?:feat\.?|featuring|ft\.)\s.*$`),
	// Song - 2020 Remix, Song - Radio Edit
	regexp.MustCompile(`(?i)\s+[-\x{2013}\x{2014}]\s+.*\b(?:remix|version|edit|mix|remaster(?:ed)?|live|radio|extended|acoustic|mono|stereo)\b.*$`),
	// (2011 Remastered)
	regexp.MustCompile(`(?i)\s*[\(\[][^\(\)\[\]]*remaster[^\(\)\[\]]*[\)\]]`),
	// (1999)
	regexp.MustCompile(`\s*[\(\[]\d{4}[\)\]]`),
}

// innermost bracket group; removed repeatedly so nested groups go too.
var bracketPattern = regexp.MustCompile(`\s*[\(\[][^\(\)\[\]]*[\)\]]`)

// CleanTitle strips annotations from a track title and collapses whitespace.
//
// When nothing is left the trimmed original title is returned.
func CleanTitle(title string) string {
	clean := title
	for _, re := range annotationPatterns {
		clean = re.ReplaceAllString(clean, "")
	}
	for {
		next := bracketPattern.ReplaceAllString(clean, "")
		if next == clean {
			break
		}
		clean = next
	}
	clean = strings.TrimRight(collapse(clean), " -\u2013\u2014")
	if clean == "" {
		return collapse(title)
	}
	return clean
}

// GenerateQueries returns the search strings for track in precedence order,
// without duplicates or blanks.
func GenerateQueries(track models.Track) []string {
	artist := collapse(track.PrimaryArtist())
	title := collapse(track.Title)
	clean := CleanTitle(track.Title)

	candidates := []string{
		artist + " " + clean + " official",
		artist + " " + clean + " official audio",
		artist + " " + clean + " official video",
		artist + " " + clean,
		title + " " + artist,
		clean + " " + artist,
	}
	if artist != "" {
		candidates = append(candidates, `"`+artist+`" "`+clean+`"`)
	}

	seen := make(map[string]bool, len(candidates))
	queries := make([]string, 0, len(candidates))
	for _, q := range candidates {
		q = collapse(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
	}
	return queries
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
