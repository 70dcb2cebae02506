package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/repositories"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/state"
	"github.com/desertthunder/sp2yt/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	source     services.TrackSource
	searcher   services.VideoSearcher
	writer     services.PlaylistWriter
	spotify    services.Authenticator
	youtube    services.Authenticator
	store      *state.Store
	engine     tasks.TransferEngine
	sessions   *repositories.SessionRepository
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
	wired      bool
	mu         sync.Mutex
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Runners built with any service set skip loading services from the config file.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Source     services.TrackSource
	Searcher   services.VideoSearcher
	Writer     services.PlaylistWriter
	Spotify    services.Authenticator
	YouTube    services.Authenticator
	Store      *state.Store
	Engine     tasks.TransferEngine
	Sessions   *repositories.SessionRepository
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		source:     opts.Source,
		searcher:   opts.Searcher,
		writer:     opts.Writer,
		spotify:    opts.Spotify,
		youtube:    opts.YouTube,
		store:      opts.Store,
		engine:     opts.Engine,
		sessions:   opts.Sessions,
		logger:     opts.Logger,
		output:     opts.Output,
		wired:      opts.Source != nil || opts.Searcher != nil || opts.Writer != nil || opts.Engine != nil,
	}
	r.wire()
	return r
}

// wire builds the state store and transfer engine from the current services and config.
func (r *Runner) wire() {
	if r.store == nil {
		r.store = state.NewStore(r.config.Transfer.DataDir, r.logger)
	}
	if r.engine == nil || !r.wired {
		t := r.config.Transfer
		r.engine = tasks.NewPlaylistEngine(r.source, r.searcher, r.writer, r.store, tasks.EngineConfig{
			CheckpointEvery: t.CheckpointEvery,
			MaxResults:      t.MaxResults,
			SearchPacer:     tasks.FixedDelay(t.SearchDelay.Duration),
			AddPacer:        tasks.FixedDelay(t.AddDelay.Duration),
		}, r.logger)
	}
}

// Command returns the root command with every subcommand registered.
func (r *Runner) Command() *cli.Command {
	return &cli.Command{
		Name:    "sp2yt",
		Usage:   "Convert Spotify playlists to YouTube playlists in quota-sized sessions",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("SP2YT_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before:   r.before,
		After:    r.after,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, searchCommand, statusCommand,
		buildCommand, retryCommand, reportCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if r.wired {
		return ctx, nil
	}
	return ctx, r.load(ctx, cmd.String("config"))
}

func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// load reads the config file and connects the services it has credentials for.
//
// A missing file falls back to the embedded defaults so setup commands can run.
func (r *Runner) load(ctx context.Context, path string) error {
	r.configPath = path
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			return err
		}
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}
	if err := config.Validate(); err != nil {
		return err
	}
	r.config = config
	r.store = nil

	creds := &config.Credentials
	if creds.Spotify.HasClient() {
		svc, err := services.NewSpotifyService(creds.Spotify.Map(), services.WithLogger(r.logger))
		if err != nil {
			return fmt.Errorf("failed to create Spotify service: %w", err)
		}
		svc.SetTokenRefreshCallback(r.tokenSaver("spotify"))
		r.spotify = svc
		if tok := creds.Spotify.Token(); tok != nil {
			if err := svc.Authenticate(ctx, tok); err != nil {
				return err
			}
			r.source = svc
		}
	}

	if creds.YouTube.HasClient() {
		svc, err := services.NewYouTubeService(creds.YouTube.Map(), services.WithLogger(r.logger))
		if err != nil {
			return fmt.Errorf("failed to create YouTube service: %w", err)
		}
		svc.SetVideoCategory(config.Transfer.VideoCategory)
		svc.SetTokenRefreshCallback(r.tokenSaver("youtube"))
		r.youtube = svc
		if tok := creds.YouTube.Token(); tok != nil {
			if err := svc.Authenticate(ctx, tok); err != nil {
				return err
			}
			r.searcher = svc
			r.writer = svc
		}
	}

	r.wire()
	return nil
}

// tokenSaver returns a refresh callback that persists tokens for provider, logging failures.
func (r *Runner) tokenSaver(provider string) func(*oauth2.Token) {
	return func(tok *oauth2.Token) {
		if err := r.saveTokens(provider, tok); err != nil {
			r.logger.Warn("failed to persist refreshed token", "provider", provider, "error", err)
			return
		}
		r.logger.Debug("refreshed token saved", "provider", provider)
	}
}

// saveTokens stores tok under provider's credentials and writes the config file when one is set.
func (r *Runner) saveTokens(provider string, tok *oauth2.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config == nil {
		return errors.New("config is nil")
	}
	if tok == nil {
		return fmt.Errorf("failed to update %s configuration: token cannot be nil", provider)
	}

	switch provider {
	case "spotify":
		r.config.Credentials.Spotify.Update(tok)
	case "youtube":
		r.config.Credentials.YouTube.Update(tok)
	default:
		return fmt.Errorf("%w: unknown provider %q", shared.ErrInvalidArgument, provider)
	}

	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// sessionRepo opens the history database on first use.
func (r *Runner) sessionRepo(ctx context.Context) (*repositories.SessionRepository, error) {
	if r.sessions != nil {
		return r.sessions, nil
	}
	db, err := shared.OpenDatabase(ctx, r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	r.sessions = repositories.NewSessionRepository(db)
	return r.sessions, nil
}

// startSession records a running session. History is best effort: failures are logged and
// the returned session is nil.
func (r *Runner) startSession(ctx context.Context, kind models.SessionKind, playlistID string) *models.Session {
	return r.recordSession(ctx, models.NewSession(kind, playlistID))
}

func (r *Runner) recordSession(ctx context.Context, s *models.Session) *models.Session {
	repo, err := r.sessionRepo(ctx)
	if err != nil {
		r.logger.Warn("session history unavailable", "error", err)
		return nil
	}
	if err := repo.Create(s); err != nil {
		r.logger.Warn("failed to record session", "error", err)
		return nil
	}
	r.logger.Debug("session started", "session", s.ID(), "kind", s.Kind(), "playlist", s.PlaylistID())
	return s
}

// finishSession stores the outcome of s.
func (r *Runner) finishSession(s *models.Session, err error) {
	if s == nil || r.sessions == nil {
		return
	}
	if ferr := r.sessions.Finish(s, err); ferr != nil {
		r.logger.Warn("failed to finish session", "session", s.ID(), "error", ferr)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
