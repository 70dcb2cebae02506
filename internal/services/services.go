// package services defines typed clients for the HTTP APIs a transfer talks to
//
// Spotify Web API (read playlists), YouTube Data API v3 (search, create, add)
package services

import (
	"context"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// TrackSource reads playlists and their tracks in source order.
type TrackSource interface {
	// GetPlaylists lists the authenticated user's playlists.
	GetPlaylists(ctx context.Context) ([]models.PlaylistRef, error)

	// GetPlaylist returns identifying info and the total track count of a playlist.
	GetPlaylist(ctx context.Context, playlistID string) (*models.PlaylistRef, error)

	// GetPlaylistTracks returns up to max tracks from the start of the playlist; max <= 0 returns all.
	GetPlaylistTracks(ctx context.Context, playlistID string, max int) ([]models.Track, error)
}

// VideoSearcher finds candidate videos for a free-text query.
type VideoSearcher interface {
	SearchVideos(ctx context.Context, query string, limit int) ([]models.VideoCandidate, error)
}

// PlaylistWriter creates a destination playlist and appends videos to it.
type PlaylistWriter interface {
	CreatePlaylist(ctx context.Context, title, description, privacy string) (*models.DestinationRef, error)
	AddVideoToPlaylist(ctx context.Context, playlistID, videoID string) error
}

// Authenticator runs the OAuth authorization code flow for one provider.
type Authenticator interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// Option configures a service client.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	logger     *log.Logger
}

// WithBaseURL points the client at another API root, used with [net/http/httptest] servers.
func WithBaseURL(u string) Option { return func(o *options) { o.baseURL = u } }

// WithHTTPClient sets the transport the OAuth client wraps.
func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.httpClient = c } }

// WithLimiter replaces the default request limiter.
func WithLimiter(l *rate.Limiter) Option { return func(o *options) { o.limiter = l } }

// WithMaxRetries sets how many times a throttled or failed request is retried.
func WithMaxRetries(n int) Option { return func(o *options) { o.maxRetries = n } }

// WithLogger sets the logger for request tracing.
func WithLogger(l *log.Logger) Option { return func(o *options) { o.logger = l } }

func newOptions(baseURL string, limit rate.Limit, opts []Option) options {
	o := options{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: 3,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
