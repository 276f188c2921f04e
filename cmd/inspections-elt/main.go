// Command inspections-elt pulls NYC restaurant inspection results, loads them
// into a warehouse table and prints inspection counts per borough and year.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/David-Botos/inspections-elt/pkg/config"
	"github.com/David-Botos/inspections-elt/pkg/connector"
	"github.com/David-Botos/inspections-elt/pkg/extract"
	"github.com/David-Botos/inspections-elt/pkg/logging"
	"github.com/David-Botos/inspections-elt/pkg/metrics"
	"github.com/David-Botos/inspections-elt/pkg/metrics/prompush"
	"github.com/David-Botos/inspections-elt/pkg/model"
	"github.com/David-Botos/inspections-elt/pkg/pipeline"
	"github.com/David-Botos/inspections-elt/pkg/warehouse"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run wires the pipeline and returns the process exit code. Deferred cleanup
// (metrics flush, logger sync) happens before the code reaches os.Exit.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("inspections-elt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		flagLimit = fs.Int(
			"limit",
			0,
			"Number of inspection rows to request; overrides SOURCE_LIMIT when > 0",
		)
		flagEnv = fs.String(
			"env",
			".env",
			"Path of an optional .env file",
		)
		flagPrompt = fs.Bool(
			"prompt",
			false,
			"Prompt for missing warehouse credentials",
		)
		flagReport = fs.String(
			"report",
			"",
			"Print the run metrics report after the summary: text|json",
		)
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	switch *flagReport {
	case "", "text", "json":
	default:
		fmt.Fprintf(stderr, "unknown -report format %q\n", *flagReport)
		return 2
	}

	envErr := config.LoadEnvFile(*flagEnv)

	cfg := config.Load()
	if *flagLimit > 0 {
		cfg.Source.Limit = *flagLimit
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if envErr != nil {
		if errors.Is(envErr, os.ErrNotExist) {
			logger.Warn("No .env file found, using process environment", zap.String("path", *flagEnv))
		} else {
			logger.Error("Failed to load .env file", zap.String("path", *flagEnv), zap.Error(envErr))
			return 1
		}
	}

	if *flagPrompt {
		if err := config.NewPrompter(stdin, stderr).Fill(cfg); err != nil {
			logger.Error("Failed to read credentials", zap.Error(err))
			return 1
		}
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", zap.Error(err))
		return 1
	}

	if cfg.PushgatewayURL != "" {
		b, err := prompush.NewBackend(cfg.MetricsJob, cfg.PushgatewayURL)
		if err != nil {
			logger.Warn("Failed to initialize Pushgateway backend, metrics disabled", zap.Error(err))
		} else {
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					logger.Warn("Failed to push metrics", zap.Error(err))
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := extract.NewClient(extract.Config{
		Endpoint: cfg.Source.URL,
		Timeout:  cfg.Source.Timeout,
		AppToken: cfg.Source.AppToken,
	}, logger)

	factory := connector.NewConnectorFactory(cfg, logger)
	connect := func(ctx context.Context) (pipeline.Warehouse, error) {
		conn, err := factory.Create(ctx)
		if err != nil {
			return nil, err
		}
		session, err := warehouse.NewSession(conn, warehouse.Options{
			InsertChunkSize: cfg.InsertChunkSize,
			QueryTimeout:    cfg.QueryTimeout,
		}, logger)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return session, nil
	}

	driver := pipeline.NewDriver(client, connect, cfg.Credentials(), pipeline.Options{
		Limit:      cfg.Source.Limit,
		MetricsJob: cfg.MetricsJob,
	}, logger.Named("pipeline"))

	result, err := driver.Run(ctx)
	if err != nil {
		// The driver has already released the warehouse connection.
		stage := pipeline.StageOf(err)
		if stage == pipeline.StageNone {
			stage = result.FailedStage
		}
		fmt.Fprintf(stderr, "pipeline failed at %s stage: %v\n", stage, err)
		return 1
	}

	fmt.Fprintf(stdout, "Extracted %d rows\n", result.RowsExtracted)
	fmt.Fprintf(stdout, "Loaded %d rows into %s\n", result.RowsLoaded, model.InspectionsTable.Table)
	if result.RowsExcluded > 0 {
		fmt.Fprintf(stdout, "Excluded %d rows with unparsable inspection dates\n", result.RowsExcluded)
	}
	fmt.Fprintln(stdout)
	if err := model.FormatSummary(stdout, result.Summary); err != nil {
		logger.Error("Failed to print summary", zap.Error(err))
		return 1
	}

	switch *flagReport {
	case "text":
		fmt.Fprint(stdout, result.Metrics.GenerateMetricsReport())
	case "json":
		data, err := result.Metrics.ToJSON()
		if err != nil {
			logger.Error("Failed to encode run metrics", zap.Error(err))
			return 1
		}
		fmt.Fprintln(stdout, string(data))
	}
	return 0
}
