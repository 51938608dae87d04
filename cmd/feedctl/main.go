// Command feedctl runs single pipeline stages and database migrations.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/internal/adapters/config"
	"github.com/selivandex/spectrum-feed/internal/adapters/database"
	"github.com/selivandex/spectrum-feed/internal/app"
	"github.com/selivandex/spectrum-feed/internal/pipeline"
	"github.com/selivandex/spectrum-feed/pkg/logger"
)

type options struct {
	Timeout time.Duration `long:"timeout" default:"5m" description:"Abort the command after this long"`

	Ingest   stageCommand   `command:"ingest" description:"Fetch and store new articles"`
	Posts    stageCommand   `command:"posts" description:"Synthesize a post from the newest unprocessed article"`
	Comments stageCommand   `command:"comments" description:"Generate comments for posts that have none"`
	Migrate  migrateCommand `command:"migrate" description:"Manage the database schema"`
}

var opts options

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	commandCtx = ctx

	opts.Ingest.job = pipeline.JobIngest
	opts.Posts.job = pipeline.JobPosts
	opts.Comments.job = pipeline.JobComments

	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}

// commandCtx is cancelled on SIGINT/SIGTERM
var commandCtx = context.Background()

type stageCommand struct {
	job pipeline.Job
}

// Execute builds the whole application and runs one stage through the job lock
func (c *stageCommand) Execute([]string) error {
	ctx, cancel := context.WithTimeout(commandCtx, opts.Timeout)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	application, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		if err := application.Close(closeCtx); err != nil {
			logger.Error("close error", zap.Error(err))
		}
	}()

	var result any
	switch c.job {
	case pipeline.JobIngest:
		result, err = application.Pipeline.Ingest(ctx, pipeline.TriggerCLI)
	case pipeline.JobPosts:
		result, err = application.Pipeline.Posts(ctx, pipeline.TriggerCLI)
	case pipeline.JobComments:
		result, err = application.Pipeline.Comments(ctx, pipeline.TriggerCLI)
	default:
		return fmt.Errorf("unknown job %q", c.job)
	}

	if pipeline.IsEmpty(err) {
		fmt.Println("nothing to do:", err)
		return nil
	}
	if err != nil {
		return err
	}

	return printJSON(result)
}

type migrateCommand struct {
	Path string `long:"path" env:"DB_MIGRATIONS_PATH" default:"./migrations" description:"Migrations directory"`

	Args struct {
		Action string `positional-arg-name:"action" description:"up, down or version"`
	} `positional-args:"yes" required:"yes"`
}

// Execute connects with database settings only, so provider keys are not needed
func (c *migrateCommand) Execute([]string) error {
	ctx, cancel := context.WithTimeout(commandCtx, opts.Timeout)
	defer cancel()

	dbCfg, logCfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	if err := logger.Init(logCfg.Level, logCfg.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	db, err := database.New(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	switch c.Args.Action {
	case "up":
		return database.RunMigrations(db.DB().DB, c.Path)
	case "down":
		return database.RollbackMigration(db.DB().DB, c.Path)
	case "version":
		version, dirty, err := database.GetMigrationVersion(db.DB().DB, c.Path)
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown migrate action %q, want up, down or version", c.Args.Action)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
