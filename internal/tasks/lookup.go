package tasks

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

var spotifyID = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)

// ParsePlaylistID extracts a playlist ID from a bare ID, a spotify:playlist: URI or an
// open.spotify.com URL. ok is false when s is none of those.
func ParsePlaylistID(s string) (id string, ok bool) {
	s = strings.TrimSpace(s)
	if spotifyID.MatchString(s) {
		return s, true
	}
	if rest, found := strings.CutPrefix(s, "spotify:playlist:"); found && spotifyID.MatchString(rest) {
		return rest, true
	}

	u, err := url.Parse(s)
	if err != nil || !strings.HasSuffix(u.Host, "spotify.com") {
		return "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "playlist" && i+1 < len(parts) && spotifyID.MatchString(parts[i+1]) {
			return parts[i+1], true
		}
	}
	return "", false
}

// FindPlaylist resolves query to one of the user's playlists.
//
// IDs, URIs and URLs are returned as-is. Otherwise an exact case-insensitive name match wins,
// then the closest fuzzy match.
func FindPlaylist(ctx context.Context, source services.TrackSource, query string) (*models.PlaylistRef, error) {
	if id, ok := ParsePlaylistID(query); ok {
		return &models.PlaylistRef{ID: id}, nil
	}

	playlists, err := source.GetPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get playlists: %v", shared.ErrAPIRequest, err)
	}

	for _, pl := range playlists {
		if pl.ID == query || strings.EqualFold(pl.Name, query) {
			return &pl, nil
		}
	}

	names := make([]string, len(playlists))
	for i, pl := range playlists {
		names[i] = pl.Name
	}
	ranks := fuzzy.RankFindFold(query, names)
	if len(ranks) == 0 {
		return nil, fmt.Errorf("%w: no playlist found with name '%s'", shared.ErrPlaylistNotFound, query)
	}
	slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
		if a.Distance != b.Distance {
			return a.Distance - b.Distance
		}
		return a.OriginalIndex - b.OriginalIndex
	})
	return &playlists[ranks[0].OriginalIndex], nil
}
