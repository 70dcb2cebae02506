// Package services implements typed clients for the Spotify Web API and the YouTube Data API.
//
// # Interfaces
//
// The transfer engine depends on three narrow interfaces:
//   - [TrackSource] : playlists and ordered tracks (Spotify)
//   - [VideoSearcher] : candidate videos for a query (YouTube search.list)
//   - [PlaylistWriter] : create a playlist and append videos (YouTube playlists/playlistItems)
//
// [Authenticator] covers the OAuth authorization code flow used by the auth command.
//
// # Authentication
//
// Both services wrap an [oauth2.Config]. Authenticate installs a stored token; the
// [oauth2.Client] refreshes it when expired and SetTokenRefreshCallback reports the new
// token so it can be written back to config.toml.
//
// # Transport
//
// Requests pass through a [rate.Limiter]. 429 responses are retried for every method and
// 5xx only for GET, honouring Retry-After. Every other non-2xx response becomes an [*APIError]
// carrying the HTTP status and, for Google, the error reason.
//
// # Add failures
//
// [ClassifyAddError] maps an error from AddVideoToPlaylist to the fixed
// [models.ErrorKind] taxonomy.
package services
