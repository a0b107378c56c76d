package aggregator

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"flowlog-tagger/internal/flowlog"
	"flowlog-tagger/internal/lineio"
	"flowlog-tagger/internal/logging"
	"flowlog-tagger/internal/lookup"
	"flowlog-tagger/internal/protocols"
	"flowlog-tagger/internal/tally"
)

// UntaggedTag collects flows whose port/protocol key has no lookup entry.
const UntaggedTag = "Untagged"

// Aggregator reads a flow log and builds the tag and port/protocol tables.
//
// Design notes:
//   - Lines are handled one at a time; nothing but the two tables survives
//     from one line to the next.
//   - Rejected lines are counted per reason and logged at debug level, never
//     returned as errors.
//   - Line counters are Counters and grow across Aggregate calls. The per-key
//     Gauges describe the result of the last call: they are RESET and then
//     set from the final tables.
type Aggregator struct {
	Logger *logging.Logger

	parser *flowlog.Parser
	lookup lookup.Table

	lines         prometheus.Counter
	accepted      prometheus.Counter
	skipped       *prometheus.CounterVec
	lookupEntries prometheus.Gauge

	tagFlows          *prometheus.GaugeVec
	portProtocolFlows *prometheus.GaugeVec
}

// Result holds the output tables of one Aggregate call.
type Result struct {
	Tags          *tally.Counts
	PortProtocols *tally.Counts
	Stats         Stats
}

// Stats describes how the lines of one Aggregate call were handled.
type Stats struct {
	Lines    uint64
	Accepted uint64
	Skipped  map[flowlog.Reason]uint64
}

// NewAggregator returns an Aggregator that resolves protocol numbers with
// protos, usually protocols.Default, and tags keys with table.
func NewAggregator(protos flowlog.ProtocolTable, table lookup.Table) *Aggregator {
	a := &Aggregator{
		parser: flowlog.NewParser(protos),
		lookup: table,
	}

	a.lines = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flowlog_lines_total",
		Help: "Number of flow log lines read.",
	})
	a.accepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flowlog_records_accepted_total",
		Help: "Number of flow log records counted in the reports.",
	})
	a.skipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flowlog_records_skipped_total",
		Help: "Number of flow log lines left out of the reports, by the first check they failed.",
	}, []string{"reason"})
	a.lookupEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flowlog_lookup_entries",
		Help: "Number of port/protocol keys in the lookup table.",
	})
	a.tagFlows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "flowlog_tag_flows",
		Help: "Number of accepted flows per tag in the last report.",
	}, []string{"tag"})
	a.portProtocolFlows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "flowlog_port_protocol_flows",
		Help: "Number of accepted flows per destination port and protocol in the last report.",
	}, []string{"port", "protocol"})

	// Expose every reason with a zero value from the start.
	for _, r := range flowlog.SkipReasons {
		a.skipped.WithLabelValues(r.String())
	}
	a.lookupEntries.Set(float64(len(table)))

	return a
}

// MustRegister registers all metrics into the provided registry.
func (a *Aggregator) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		a.lines,
		a.accepted,
		a.skipped,
		a.lookupEntries,
		a.tagFlows,
		a.portProtocolFlows,
	)
}

// ParseLog aggregates the flow log at path against table using the built-in
// protocol table. A path that cannot be opened or read is an error; bad lines
// are not.
func ParseLog(path string, table lookup.Table) (*tally.Counts, *tally.Counts, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open flow log: %w", err)
	}
	defer f.Close()

	res, err := NewAggregator(protocols.Default, table).Aggregate(f)
	if err != nil {
		return nil, nil, err
	}
	return res.Tags, res.PortProtocols, nil
}

// Aggregate reads r line by line until EOF and returns fresh tables.
func (a *Aggregator) Aggregate(r io.Reader) (Result, error) {
	res := Result{
		Tags:          tally.New(),
		PortProtocols: tally.New(),
		Stats:         Stats{Skipped: map[flowlog.Reason]uint64{}},
	}

	sc := lineio.NewScanner(r)
	for sc.Scan() {
		a.processLine(&res, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return Result{}, fmt.Errorf("read flow log: %w", err)
	}

	a.applyResult(res)
	return res, nil
}

func (a *Aggregator) processLine(res *Result, line string) {
	res.Stats.Lines++
	a.lines.Inc()

	rec, reason := a.parser.Parse(line)
	if reason != flowlog.ReasonAccepted {
		res.Stats.Skipped[reason]++
		a.skipped.WithLabelValues(reason.String()).Inc()
		if a.Logger != nil {
			a.Logger.Debug("skipping flow log line", "line", res.Stats.Lines, "reason", reason.String())
		}
		return
	}

	res.Stats.Accepted++
	a.accepted.Inc()
	a.add(res, rec)
}

// add counts an accepted record once in each table.
func (a *Aggregator) add(res *Result, rec flowlog.Record) {
	key := lookup.Key(rec.DstPort, rec.ProtocolName)
	res.PortProtocols.Inc(key)

	if tag, ok := a.lookup.Tag(key); ok {
		res.Tags.Inc(tag)
	} else {
		res.Tags.Inc(UntaggedTag)
	}
}

func (a *Aggregator) applyResult(res Result) {
	// Reset per-key gauges (delete label pairs of a previous call).
	a.tagFlows.Reset()
	a.portProtocolFlows.Reset()

	for _, e := range res.Tags.Entries() {
		a.tagFlows.WithLabelValues(e.Key).Set(float64(e.Count))
	}
	for _, e := range res.PortProtocols.Entries() {
		port, proto, _ := strings.Cut(e.Key, ",")
		a.portProtocolFlows.WithLabelValues(port, proto).Set(float64(e.Count))
	}
}
