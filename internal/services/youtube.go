// YouTube Data API v3 implementation of [VideoSearcher] and [PlaylistWriter]
//
// Quota: search.list costs 100 units, playlists.insert and playlistItems.insert 50 each.
package services

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/sp2yt/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
)

const (
	youtubeBaseURL = "https://www.googleapis.com/youtube/v3"
	youtubeScope   = "https://www.googleapis.com/auth/youtube"

	// MusicCategory is the YouTube video category id for Music.
	MusicCategory = "10"
)

type youtubeSearchResp struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string    `json:"title"`
			ChannelTitle string    `json:"channelTitle"`
			PublishedAt  time.Time `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

type youtubePlaylistSnippet struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type youtubePlaylist struct {
	ID      string                 `json:"id,omitempty"`
	Snippet youtubePlaylistSnippet `json:"snippet"`
	Status  struct {
		PrivacyStatus string `json:"privacyStatus"`
	} `json:"status"`
}

type youtubePlaylistItem struct {
	Snippet struct {
		PlaylistID string `json:"playlistId"`
		ResourceID struct {
			Kind    string `json:"kind"`
			VideoID string `json:"videoId"`
		} `json:"resourceId"`
	} `json:"snippet"`
}

// YouTubeService implements [VideoSearcher], [PlaylistWriter] and [Authenticator]
// against the YouTube Data API.
type YouTubeService struct {
	oauthClient
	api      *apiClient
	o        options
	category string
}

// NewYouTubeService creates a YouTube service using Google's OAuth endpoint.
func NewYouTubeService(credentials map[string]string, opts ...Option) (*YouTubeService, error) {
	clientID := credentials["client_id"]
	clientSecret := credentials["client_secret"]
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("missing client_id or client_secret in credentials")
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback/youtube"
	}

	o := newOptions(youtubeBaseURL, rate.Limit(5), opts)
	return &YouTubeService{
		oauthClient: oauthClient{config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{youtubeScope},
			Endpoint:     google.Endpoint,
		}},
		api:      newAPIClient("youtube", o),
		o:        o,
		category: MusicCategory,
	}, nil
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// SetVideoCategory restricts searches to a category id; empty searches every category.
func (y *YouTubeService) SetVideoCategory(id string) {
	y.category = id
}

// Exchange trades an authorization code for a token.
func (y *YouTubeService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, y.o.httpClient)
	tok, err := y.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}

// Authenticate installs tok as the starting token. Expired tokens are refreshed on demand.
func (y *YouTubeService) Authenticate(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil {
		return fmt.Errorf("%w: youtube token", errNotAuthenticated)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, y.o.httpClient)
	y.source = &refreshableTokenSource{
		source:   oauth2.ReuseTokenSource(tok, y.config.TokenSource(ctx, tok)),
		callback: y.onTokenRefresh,
		last:     tok.AccessToken,
	}
	y.api.http = oauth2.NewClient(ctx, y.source)
	return nil
}

// SearchVideos returns up to limit videos for query, in relevance order.
func (y *YouTubeService) SearchVideos(ctx context.Context, query string, limit int) ([]models.VideoCandidate, error) {
	if limit <= 0 {
		limit = 5
	}
	q := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"q":          {query},
		"maxResults": {strconv.Itoa(min(limit, 50))},
	}
	if y.category != "" {
		q.Set("videoCategoryId", y.category)
	}

	var resp youtubeSearchResp
	if err := y.api.do(ctx, http.MethodGet, "/search", q, nil, &resp); err != nil {
		return nil, err
	}

	videos := make([]models.VideoCandidate, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, models.VideoCandidate{
			ID:          item.ID.VideoID,
			Title:       html.UnescapeString(item.Snippet.Title),
			Channel:     html.UnescapeString(item.Snippet.ChannelTitle),
			PublishedAt: item.Snippet.PublishedAt,
		})
	}
	return videos, nil
}

// CreatePlaylist creates a playlist owned by the authenticated user.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, title, description, privacy string) (*models.DestinationRef, error) {
	body := youtubePlaylist{Snippet: youtubePlaylistSnippet{Title: title, Description: description}}
	body.Status.PrivacyStatus = privacy

	var created youtubePlaylist
	q := url.Values{"part": {"snippet,status"}}
	if err := y.api.do(ctx, http.MethodPost, "/playlists", q, body, &created); err != nil {
		return nil, err
	}

	return &models.DestinationRef{
		ID:    created.ID,
		Title: created.Snippet.Title,
		URL:   "https://www.youtube.com/playlist?list=" + created.ID,
	}, nil
}

// AddVideoToPlaylist appends a video to the end of a playlist.
func (y *YouTubeService) AddVideoToPlaylist(ctx context.Context, playlistID, videoID string) error {
	var item youtubePlaylistItem
	item.Snippet.PlaylistID = playlistID
	item.Snippet.ResourceID.Kind = "youtube#video"
	item.Snippet.ResourceID.VideoID = videoID

	q := url.Values{"part": {"snippet"}}
	return y.api.do(ctx, http.MethodPost, "/playlistItems", q, item, nil)
}
