package app

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"

	"flowlog-tagger/internal/aggregator"
	"flowlog-tagger/internal/config"
	"flowlog-tagger/internal/flowlog"
	"flowlog-tagger/internal/logging"
	"flowlog-tagger/internal/lookup"
	"flowlog-tagger/internal/protocols"
	"flowlog-tagger/internal/push"
	"flowlog-tagger/internal/report"
	"flowlog-tagger/internal/storage"
)

// Run wires the application together and performs a single run. Logs go to
// stderr; the final "Wrote to" line goes to stdout. It returns the process
// exit code.
func Run(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) int {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logging.Info
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		format = logging.Logfmt
	}
	log := logging.New(stderr, level, format)

	fsys, err := storage.New(storage.S3Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Insecure:        cfg.S3Insecure,
	})
	if err != nil {
		log.Error("failed to set up storage", "err", err)
		return 1
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(versioncollector.NewCollector("flowlog_tagger"))

	res, err := run(ctx, cfg, fsys, reg, log)
	if err != nil {
		log.Error("run failed", "err", err)
		return 1
	}

	out, err := storage.ParseLocation(cfg.OutputPath)
	if err != nil {
		out = storage.Location{Path: cfg.OutputPath}
	}
	log.Info("wrote report",
		"output", out.Abs(),
		"lines", res.Stats.Lines,
		"accepted", res.Stats.Accepted,
		"tags", res.Tags.Len(),
		"port_protocols", res.PortProtocols.Len(),
	)
	fmt.Fprintf(stdout, "Wrote to %s\n", out.Abs())

	// The report is already written; metrics sinks only warn.
	if cfg.MetricsTextfile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsTextfile, reg); err != nil {
			log.Warn("failed to write metrics textfile", "path", cfg.MetricsTextfile, "err", err)
		}
	}
	if cfg.MetricsPushgatewayURL != "" {
		p := &push.Pusher{
			Logger:   log,
			Registry: reg,
			URL:      cfg.MetricsPushgatewayURL,
			Job:      cfg.MetricsJob,
		}
		if err := p.Push(ctx); err != nil {
			log.Warn("failed to push metrics", "url", cfg.MetricsPushgatewayURL, "err", err)
		}
	}

	return 0
}

// run loads both inputs completely before the output is created, so an input
// error never leaves a partial report behind.
func run(ctx context.Context, cfg config.Config, fsys storage.FS, reg prometheus.Registerer, log *logging.Logger) (aggregator.Result, error) {
	table, err := loadLookup(ctx, fsys, cfg.LookupPath)
	if err != nil {
		return aggregator.Result{}, err
	}
	log.Info("loaded lookup table", "path", cfg.LookupPath, "entries", len(table))

	agg := aggregator.NewAggregator(protocols.Default, table)
	agg.Logger = log
	agg.MustRegister(reg)

	res, err := aggregateLog(ctx, fsys, agg, cfg.LogPath)
	if err != nil {
		return aggregator.Result{}, err
	}
	for _, reason := range flowlog.SkipReasons {
		if n := res.Stats.Skipped[reason]; n > 0 {
			log.Debug("skipped flow log lines", "reason", reason.String(), "count", n)
		}
	}

	if err := writeReport(ctx, fsys, cfg.OutputPath, res); err != nil {
		return aggregator.Result{}, err
	}
	return res, nil
}

func loadLookup(ctx context.Context, fsys storage.FS, location string) (lookup.Table, error) {
	rc, err := fsys.Open(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("lookup table: %w", err)
	}
	defer rc.Close()

	return lookup.Load(rc)
}

func aggregateLog(ctx context.Context, fsys storage.FS, agg *aggregator.Aggregator, location string) (aggregator.Result, error) {
	rc, err := fsys.Open(ctx, location)
	if err != nil {
		return aggregator.Result{}, fmt.Errorf("flow log: %w", err)
	}
	defer rc.Close()

	return agg.Aggregate(rc)
}

func writeReport(ctx context.Context, fsys storage.FS, location string, res aggregator.Result) error {
	wc, err := fsys.Create(ctx, location)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := report.Write(wc, res.Tags, res.PortProtocols); err != nil {
		wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
