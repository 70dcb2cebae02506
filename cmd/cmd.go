// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func playlistFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "playlist",
		Aliases:  []string{"p"},
		Usage:    "Spotify playlist ID, URI, URL or name",
		Required: required,
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Create a config file from the bundled template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the session history database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles OAuth authorization for both services
func authCommand(r *Runner) *cli.Command {
	timeout := &cli.DurationFlag{
		Name:  "timeout",
		Usage: "How long to wait for the browser callback",
		Value: authTimeout,
	}
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize access to Spotify and YouTube",
		Commands: []*cli.Command{
			{
				Name:   "spotify",
				Usage:  "Authorize read access to your Spotify playlists",
				Flags:  []cli.Flag{timeout},
				Action: r.AuthSpotify,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt"},
				Usage:   "Authorize YouTube search and playlist management",
				Flags:   []cli.Flag{timeout},
				Action:  r.AuthYouTube,
			},
		},
	}
}

// playlistsCommand lists the user's Spotify playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"ls"},
		Usage:   "List Spotify playlists",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to show",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Playlists,
	}
}

// searchCommand runs one search session
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search YouTube for the next batch of tracks, resuming saved progress",
		Flags: []cli.Flag{
			playlistFlag(false),
			&cli.IntFlag{
				Name:    "batch",
				Aliases: []string{"n"},
				Usage:   "Tracks to search this session (defaults to transfer.batch_size)",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show live progress in an interactive terminal UI",
			},
		},
		Action: r.Search,
	}
}

// statusCommand summarizes saved progress
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show saved search and build progress for a playlist",
		Flags: []cli.Flag{
			playlistFlag(true),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Status,
	}
}

// buildCommand creates the YouTube playlist from matched tracks
func buildCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Create the YouTube playlist and add every matched video",
		Flags: []cli.Flag{
			playlistFlag(true),
			&cli.StringFlag{
				Name:  "title",
				Usage: "Playlist title (defaults to the Spotify playlist name)",
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Playlist description",
			},
			&cli.StringFlag{
				Name:  "privacy",
				Usage: "private, unlisted or public (defaults to transfer.privacy)",
			},
		},
		Action: r.Build,
	}
}

// retryCommand re-attempts failed additions
func retryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "retry",
		Usage:  "Retry videos that failed to be added to the built playlist",
		Flags:  []cli.Flag{playlistFlag(true)},
		Action: r.Retry,
	}
}

// reportCommand exports match results
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Export match results as CSV, Markdown or text",
		Flags: []cli.Flag{
			playlistFlag(true),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "csv, markdown or txt",
				Value:   "csv",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (defaults to report_<id> in the data directory, - for stdout)",
			},
		},
		Action: r.Report,
	}
}

// historyCommand lists recorded sessions
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded search, build and retry sessions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Only show sessions for this playlist ID",
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Only show search, build or retry sessions",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of sessions to show",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}
