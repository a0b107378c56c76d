package config

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/common/version"
	"gopkg.in/yaml.v3"
)

// AppName is used for the CLI, the version string and the default push job.
const AppName = "flowlog-tagger"

// Config holds runtime configuration for one run.
type Config struct {
	LogPath    string
	LookupPath string
	OutputPath string

	ConfigFile string

	LogLevel  string
	LogFormat string

	MetricsTextfile       string
	MetricsPushgatewayURL string
	MetricsJob            string

	S3Endpoint        string
	S3Region          string
	S3Insecure        bool
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// File is the optional YAML configuration file. Only settings that are not
// per-run inputs live here.
type File struct {
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Metrics struct {
		Textfile       string `yaml:"textfile"`
		PushgatewayURL string `yaml:"pushgateway_url"`
		Job            string `yaml:"job"`
	} `yaml:"metrics"`
	S3 struct {
		Endpoint string `yaml:"endpoint"`
		Region   string `yaml:"region"`
		Insecure bool   `yaml:"insecure"`
	} `yaml:"s3"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	return &f, nil
}

// setFlags records which flags were given on the command line, so that the
// config file only fills in the rest.
type setFlags struct {
	logLevel, logFormat              bool
	textfile, pushgatewayURL, job    bool
	s3Endpoint, s3Region, s3Insecure bool
}

// Parse parses command line arguments (without the program name). Help and
// version requests terminate the process through kingpin.
func Parse(args []string) (Config, error) {
	var (
		cfg Config
		set setFlags
	)

	app := kingpin.New(AppName, "Counts flow log records per lookup tag and per destination port/protocol.")
	app.Version(version.Print(AppName))
	app.HelpFlag.Short('h')

	app.Arg("log-path", "Flow log to read. Local path or s3://bucket/key; .gz is decompressed.").
		Required().StringVar(&cfg.LogPath)
	app.Arg("lookup-path", "Lookup table (dstport,protocol,tag per line).").
		Required().StringVar(&cfg.LookupPath)
	app.Arg("output-path", "Report to write. Local path or s3://bucket/key; .gz is compressed.").
		Required().StringVar(&cfg.OutputPath)

	app.Flag("config.file", "Optional YAML file with log, metrics and s3 settings. Command line flags take precedence.").
		StringVar(&cfg.ConfigFile)

	app.Flag("log.level", "Only log messages with the given severity or above. One of: [debug, info, warn, error]").
		Default("info").IsSetByUser(&set.logLevel).StringVar(&cfg.LogLevel)
	app.Flag("log.format", "Output format of log messages. One of: [logfmt, json]").
		Default("logfmt").IsSetByUser(&set.logFormat).StringVar(&cfg.LogFormat)

	app.Flag("metrics.textfile", "Write run metrics to this file in the node_exporter textfile format.").
		IsSetByUser(&set.textfile).StringVar(&cfg.MetricsTextfile)
	app.Flag("metrics.pushgateway-url", "Push run metrics to this Pushgateway.").
		IsSetByUser(&set.pushgatewayURL).StringVar(&cfg.MetricsPushgatewayURL)
	app.Flag("metrics.job", "Job label used when pushing metrics.").
		Default("flowlog_tagger").IsSetByUser(&set.job).StringVar(&cfg.MetricsJob)

	app.Flag("s3.endpoint", "S3 compatible endpoint (host:port) for s3:// locations.").
		Envar("FLOWLOG_S3_ENDPOINT").IsSetByUser(&set.s3Endpoint).StringVar(&cfg.S3Endpoint)
	app.Flag("s3.region", "Region of the object store.").
		IsSetByUser(&set.s3Region).StringVar(&cfg.S3Region)
	app.Flag("s3.insecure", "Use plain HTTP for the object store.").
		IsSetByUser(&set.s3Insecure).BoolVar(&cfg.S3Insecure)

	if _, err := app.Parse(args); err != nil {
		return Config{}, err
	}

	// kingpin does not mark values taken from the environment as set.
	set.s3Endpoint = set.s3Endpoint || os.Getenv("FLOWLOG_S3_ENDPOINT") != ""
	cfg.S3AccessKeyID = os.Getenv("FLOWLOG_S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("FLOWLOG_S3_SECRET_ACCESS_KEY")

	if cfg.ConfigFile != "" {
		f, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		cfg.apply(f, set)
	}

	return cfg, nil
}

func (cfg *Config) apply(f *File, set setFlags) {
	fill := func(dst *string, isSet bool, v string) {
		if !isSet && v != "" {
			*dst = v
		}
	}

	fill(&cfg.LogLevel, set.logLevel, f.Log.Level)
	fill(&cfg.LogFormat, set.logFormat, f.Log.Format)
	fill(&cfg.MetricsTextfile, set.textfile, f.Metrics.Textfile)
	fill(&cfg.MetricsPushgatewayURL, set.pushgatewayURL, f.Metrics.PushgatewayURL)
	fill(&cfg.MetricsJob, set.job, f.Metrics.Job)
	fill(&cfg.S3Endpoint, set.s3Endpoint, f.S3.Endpoint)
	fill(&cfg.S3Region, set.s3Region, f.S3.Region)
	if !set.s3Insecure && f.S3.Insecure {
		cfg.S3Insecure = true
	}
}
