package push

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	prompush "github.com/prometheus/client_golang/prometheus/push"

	"flowlog-tagger/internal/logging"
)

const (
	DefaultJob     = "flowlog_tagger"
	DefaultTimeout = 5 * time.Second
)

// Pusher sends the metrics of one run to a Prometheus Pushgateway. A batch
// job is gone before any scrape could reach it, so metrics are pushed once
// the report has been written.
type Pusher struct {
	Logger *logging.Logger

	Registry *prometheus.Registry
	URL      string
	Job      string
	Grouping map[string]string
	Timeout  time.Duration
}

// Push replaces the metrics of the job's grouping on the gateway. Zero fields
// fall back to an empty registry, DefaultJob and DefaultTimeout; p itself is
// not modified.
func (p *Pusher) Push(ctx context.Context) error {
	if p.URL == "" {
		return errors.New("pushgateway url is empty")
	}

	var gatherer prometheus.Gatherer = p.Registry
	if p.Registry == nil {
		gatherer = prometheus.NewRegistry()
	}
	job := p.Job
	if job == "" {
		job = DefaultJob
	}
	timeout := p.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pusher := prompush.New(p.URL, job).Gatherer(gatherer)
	for name, value := range p.Grouping {
		pusher = pusher.Grouping(name, value)
	}

	if err := pusher.PushContext(ctx); err != nil {
		return err
	}

	if p.Logger != nil {
		p.Logger.Info("pushed metrics", "url", p.URL, "job", job)
	}
	return nil
}
