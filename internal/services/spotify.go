// Spotify Web API implementation of [TrackSource]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/sp2yt/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	spotifyPlaylistPage = 50
	spotifyTrackPage    = 100
)

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type spotifyArtist struct {
	Name string `json:"name"`
}

// spotifyTrack is the subset of a track object a transfer needs. Local files have no id.
type spotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	URI          string          `json:"uri"`
	Type         string          `json:"type"`
	Artists      []spotifyArtist `json:"artists"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

type spotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ExternalURLs externalURLs `json:"external_urls"`
	Tracks       struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

type spotifyPlaylistPageResp struct {
	Items []spotifyPlaylist `json:"items"`
	Next  *string           `json:"next"`
}

type spotifyTrackPageResp struct {
	Items []struct {
		Track *spotifyTrack `json:"track"`
	} `json:"items"`
	Next *string `json:"next"`
}

func (p spotifyPlaylist) ref() models.PlaylistRef {
	return models.PlaylistRef{
		ID:          p.ID,
		Name:        p.Name,
		TotalTracks: p.Tracks.Total,
		URL:         p.ExternalURLs.Spotify,
	}
}

// track converts a playlist item; removed tracks and podcast episodes come back as empty
// placeholders so positions stay aligned with the playlist's total.
func (t *spotifyTrack) track() models.Track {
	if t == nil || t.Type == "episode" {
		return models.Track{}
	}
	tr := models.Track{ID: t.ID, Title: t.Name, URL: t.ExternalURLs.Spotify}
	if tr.ID == "" {
		tr.ID = t.URI
	}
	for _, a := range t.Artists {
		if a.Name != "" {
			tr.Artists = append(tr.Artists, a.Name)
		}
	}
	return tr
}

// SpotifyService implements [TrackSource] and [Authenticator] for the Spotify Web API.
type SpotifyService struct {
	oauthClient
	api *apiClient
	o   options
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...Option) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback/spotify"
	}

	o := newOptions(spotifyBaseURL, rate.Limit(10), opts)
	return &SpotifyService{
		oauthClient: oauthClient{config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"playlist-read-private", "playlist-read-collaborative"},
			Endpoint:     oauth2.Endpoint{AuthURL: spotifyAuthURL, TokenURL: spotifyTokenURL},
		}},
		api: newAPIClient("spotify", o),
		o:   o,
	}, nil
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.o.httpClient)
	tok, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}

// Authenticate installs tok as the starting token. Expired tokens are refreshed on demand.
func (s *SpotifyService) Authenticate(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil {
		return fmt.Errorf("%w: spotify token", errNotAuthenticated)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.o.httpClient)
	s.source = &refreshableTokenSource{
		source:   oauth2.ReuseTokenSource(tok, s.config.TokenSource(ctx, tok)),
		callback: s.onTokenRefresh,
		last:     tok.AccessToken,
	}
	s.api.http = oauth2.NewClient(ctx, s.source)
	return nil
}

// GetPlaylists retrieves all playlists for the authenticated user.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]models.PlaylistRef, error) {
	var playlists []models.PlaylistRef
	for offset := 0; ; offset += spotifyPlaylistPage {
		q := url.Values{"limit": {strconv.Itoa(spotifyPlaylistPage)}, "offset": {strconv.Itoa(offset)}}

		var page spotifyPlaylistPageResp
		if err := s.api.do(ctx, http.MethodGet, "/me/playlists", q, nil, &page); err != nil {
			return nil, err
		}
		for _, p := range page.Items {
			playlists = append(playlists, p.ref())
		}
		if page.Next == nil || len(page.Items) == 0 {
			return playlists, nil
		}
	}
}

// GetPlaylist retrieves a playlist's identity and track total.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*models.PlaylistRef, error) {
	q := url.Values{"fields": {"id,name,external_urls,tracks.total"}}

	var p spotifyPlaylist
	if err := s.api.do(ctx, http.MethodGet, "/playlists/"+url.PathEscape(playlistID), q, nil, &p); err != nil {
		return nil, err
	}
	ref := p.ref()
	return &ref, nil
}

// GetPlaylistTracks pages through the playlist in order until max tracks are read.
func (s *SpotifyService) GetPlaylistTracks(ctx context.Context, playlistID string, max int) ([]models.Track, error) {
	path := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	fields := "items(track(id,name,uri,type,artists(name),external_urls)),next"

	var tracks []models.Track
	for {
		limit := spotifyTrackPage
		if max > 0 {
			limit = min(limit, max-len(tracks))
		}
		q := url.Values{
			"limit":  {strconv.Itoa(limit)},
			"offset": {strconv.Itoa(len(tracks))},
			"fields": {fields},
		}

		var page spotifyTrackPageResp
		if err := s.api.do(ctx, http.MethodGet, path, q, nil, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			tracks = append(tracks, item.Track.track())
		}

		if page.Next == nil || len(page.Items) == 0 || (max > 0 && len(tracks) >= max) {
			if max > 0 && len(tracks) > max {
				tracks = tracks[:max]
			}
			return tracks, nil
		}
	}
}
