package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the bundled config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("%s\n", ui.Success("✓ Config written to "+path))
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify client_id and client_secret (https://developer.spotify.com/dashboard)\n")
	r.writePlain("2. Set credentials.youtube client_id and client_secret (Google Cloud OAuth client, YouTube Data API v3)\n")
	r.writePlain("3. Run 'sp2yt auth spotify' and 'sp2yt auth youtube'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	if _, err := r.sessionRepo(ctx); err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	versions := []int{}
	if r.db != nil {
		v, err := shared.AppliedVersions(ctx, r.db)
		if err != nil {
			return err
		}
		versions = v
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("%s\n", ui.Success("✓ Database ready at "+r.config.Database.Path))
	r.writePlain("Applied migrations: %v\n", versions)
	return nil
}
