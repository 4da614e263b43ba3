// Command notion-sqlite snapshots a Notion database into a relational store.
//
// Settings come from an optional pipeline file (--config, JSON or YAML) and
// are overridden by flags and their environment variables. A .env file in
// the working directory is loaded first when present.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"notionsqlite/internal/config"
	"notionsqlite/internal/etl"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "notionsqlite/internal/storage/all"
)

type options struct {
	Config         string `long:"config" short:"c" env:"NOTION_SQLITE_CONFIG" description:"pipeline config file (JSON or YAML)"`
	APIKey         string `long:"api-key" description:"Notion integration token (default: $NOTION_API_KEY)"`
	DatabaseID     string `long:"database-id" env:"NOTION_DATABASE_ID" description:"id of the Notion database to snapshot"`
	Output         string `long:"output" short:"o" description:"destination DSN; a file path for sqlite (default: notion.db)"`
	Storage        string `long:"storage" description:"storage kind (sqlite, postgres, mysql, mssql)"`
	Overwrite      bool   `long:"overwrite" description:"replace existing tables or database file"`
	Strict         bool   `long:"strict" description:"fail on the first unreadable page or property"`
	Dedupe         bool   `long:"dedupe" description:"skip pages whose id was already written"`
	PageSize       int    `long:"page-size" description:"query page size (1-100)"`
	MetricsBackend string `long:"metrics-backend" env:"METRICS_BACKEND" description:"metrics backend (none, prompush, datadog)"`
	PushGatewayURL string `long:"pushgateway-url" env:"PUSHGATEWAY_URL" description:"Pushgateway base URL for the prompush backend"`
	Validate       bool   `long:"validate" description:"validate the configuration and exit"`
	Verbose        bool   `long:"verbose" short:"v" description:"enable debug logs"`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf(".env file not loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, ferr.Message)
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	p, err := loadPipeline(opts)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if len(config.Errors(issues)) > 0 {
		fmt.Fprintln(stderr, "configuration is invalid")
		return 1
	}
	if opts.Validate {
		fmt.Fprintln(stdout, "configuration is valid")
		return 0
	}

	logger := newLogger(stderr, opts.Verbose)
	defer func() { _ = logger.Sync() }()

	flush := setupMetrics(p, logger)
	defer flush()

	sum, err := etl.Run(ctx, p, etl.Deps{Logger: logger})
	if err != nil {
		fmt.Fprintf(stderr, "snapshot failed after %d rows: %v\n", sum.Inserted, err)
		return 1
	}
	fmt.Fprintf(stdout, "inserted %d rows from %d pages into %s (dropped %d items, %d properties; %d duplicates) in %s\n",
		sum.Inserted, sum.Pages, p.Storage.DB.DSN,
		sum.DroppedItems, sum.DroppedProperties, sum.Duplicates,
		sum.Duration.Round(time.Millisecond))
	return 0
}

// loadPipeline reads opts.Config when set and applies flag overrides.
func loadPipeline(opts options) (config.Pipeline, error) {
	p := config.Default()
	if opts.Config != "" {
		var err error
		if p, err = config.Load(opts.Config); err != nil {
			return config.Pipeline{}, err
		}
	}

	n := &p.Source.Notion
	if opts.APIKey != "" {
		n.APIKey = opts.APIKey
	}
	if opts.DatabaseID != "" {
		n.DatabaseID = opts.DatabaseID
	}
	if opts.PageSize != 0 {
		n.PageSize = opts.PageSize
	}
	if opts.Storage != "" {
		p.Storage.Kind = opts.Storage
	}
	if opts.Output != "" {
		p.Storage.DB.DSN = opts.Output
	}
	if opts.Overwrite {
		p.Storage.DB.Overwrite = true
	}
	if opts.Strict {
		p.Mapping.Strict = true
	}
	if opts.Dedupe {
		p.Runtime.DedupeIDs = true
	}
	if opts.MetricsBackend != "" {
		p.Metrics.Backend = opts.MetricsBackend
	}
	if opts.PushGatewayURL != "" {
		p.Metrics.Options["url"] = opts.PushGatewayURL
	}
	p.ApplyDefaults()
	return p, nil
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	if verbose {
		level = zapcore.DebugLevel
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(core).Named("notion-sqlite")
}
