package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NoReorderConfig holds parameters for the no-reorder (NR) strategy.
type NoReorderConfig struct {
	// TiltBuckets is the length of the per-item tilted-time counter.
	TiltBuckets int `yaml:"tilt_buckets"`
}

// PartialRebuildConfig holds parameters for the partial-rebuild (PR) strategy.
type PartialRebuildConfig struct {
	// RebuildThreshold is the fraction of items whose rank must drift
	// beyond that same fraction before a rebuild is triggered, in (0,1].
	RebuildThreshold float64 `yaml:"rebuild_threshold"`
}

// TwoTreeConfig holds parameters for the two-tree (TT) strategy.
type TwoTreeConfig struct {
	// HalfWindowSize is the capacity of each half-window tree. Defaults
	// to window_size/2 when zero.
	HalfWindowSize int `yaml:"half_window_size"`
}

// DecayHybridConfig holds parameters for the decay-hybrid (DH) strategy.
type DecayHybridConfig struct {
	// DecayFactor multiplies all counts before each insertion, in (0,1).
	DecayFactor float64 `yaml:"decay_factor"`
	// PruneEpsilon is the count below which decayed nodes are dropped.
	PruneEpsilon float64 `yaml:"prune_epsilon"`
}

// HSTreeConfig holds parameters for the half-space trees baseline.
type HSTreeConfig struct {
	Trees int   `yaml:"trees"`
	Depth int   `yaml:"depth"`
	Seed  int64 `yaml:"seed"`
}

// RCFConfig holds parameters for the random cut forest baseline.
type RCFConfig struct {
	Trees int `yaml:"trees"`
	// SampleSize is the reservoir of recent transactions each tree is
	// grown over.
	SampleSize int   `yaml:"sample_size"`
	Seed       int64 `yaml:"seed"`
}

// AutoencoderConfig holds parameters for the online autoencoder baseline.
type AutoencoderConfig struct {
	// Hidden is the bottleneck width.
	Hidden       int     `yaml:"hidden"`
	LearningRate float64 `yaml:"learning_rate"`
	Seed         int64   `yaml:"seed"`
}

// EngineConfig configures the maintenance strategies and the scoring loop.
type EngineConfig struct {
	WindowSize       int      `yaml:"window_size"`
	MinSupport       float64  `yaml:"min_support"`
	MineEvery        int      `yaml:"mine_every"`
	AnomalyThreshold float64  `yaml:"anomaly_threshold"`
	Strategies       []string `yaml:"strategies"`
	Baselines        []string `yaml:"baselines"`

	NoReorder      NoReorderConfig      `yaml:"noreorder"`
	PartialRebuild PartialRebuildConfig `yaml:"partialrebuild"`
	TwoTree        TwoTreeConfig        `yaml:"twotree"`
	DecayHybrid    DecayHybridConfig    `yaml:"decayhybrid"`
	HSTree         HSTreeConfig         `yaml:"hstree"`
	RCF            RCFConfig            `yaml:"rcf"`
	Autoencoder    AutoencoderConfig    `yaml:"autoencoder"`
}

// CheckpointConfig configures the atomic checkpoint store.
type CheckpointConfig struct {
	Dir string `yaml:"dir"`
	// Interval is the checkpoint cadence in transactions.
	Interval int `yaml:"interval"`
}

// EvalConfig configures the offline evaluation harness.
type EvalConfig struct {
	SourcePath        string `yaml:"source_path"`
	MemorySampleEvery int    `yaml:"memory_sample_every"`
}

// JournalConfig configures the on-disk JSONL journal of the live
// transaction stream.
type JournalConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Path              string `yaml:"path"`
	ChannelBufferSize int    `yaml:"channel_buffer_size"`
}

// ProbeConfig configures the NATS transaction transport.
type ProbeConfig struct {
	NATSURL  string        `yaml:"nats_url"`
	Subject  string        `yaml:"subject"`
	PcapPath string        `yaml:"pcap_path"`
	Journal  JournalConfig `yaml:"journal"`
}

// ClickHouseConfig holds the connection parameters for ClickHouse writers
// and queriers.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TextWriterConfig holds parameters for the on-disk results writer.
type TextWriterConfig struct {
	RootPath string `yaml:"root_path"`
}

// WriterDef declares one enabled results writer.
type WriterDef struct {
	Type             string           `yaml:"type"`
	Enabled          bool             `yaml:"enabled"`
	SnapshotInterval string           `yaml:"snapshot_interval"`
	Text             TextWriterConfig `yaml:"text"`
	ClickHouse       ClickHouseConfig `yaml:"clickhouse"`
}

// APIConfig configures the HTTP query API.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// SMTPConfig holds the parameters for the email notifier.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// AlerterConfig configures the live-engine anomaly-rate alerter.
type AlerterConfig struct {
	Enabled bool `yaml:"enabled"`
	// CheckInterval is a duration string, e.g. "30s".
	CheckInterval string `yaml:"check_interval"`
	// AnomalyRateThreshold is the rolling anomaly fraction above which an
	// alert is sent, in (0,1].
	AnomalyRateThreshold float64 `yaml:"anomaly_rate_threshold"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Engine     EngineConfig     `yaml:"engine"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Eval       EvalConfig       `yaml:"eval"`
	Probe      ProbeConfig      `yaml:"probe"`
	Writers    []WriterDef      `yaml:"writers"`
	API        APIConfig        `yaml:"api"`
	Alerter    AlerterConfig    `yaml:"alerter"`
	SMTP       SMTPConfig       `yaml:"smtp"`
}

// LoadConfig reads the configuration from a YAML file, applies defaults
// and validates it. Invalid parameter ranges are configuration errors and
// fail here rather than being clamped.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	e := &c.Engine
	if e.MineEvery == 0 {
		e.MineEvery = 1
	}
	if e.AnomalyThreshold == 0 {
		e.AnomalyThreshold = 0.5
	}
	if e.NoReorder.TiltBuckets == 0 {
		e.NoReorder.TiltBuckets = 10
	}
	if e.PartialRebuild.RebuildThreshold == 0 {
		e.PartialRebuild.RebuildThreshold = 0.1
	}
	if e.TwoTree.HalfWindowSize == 0 {
		e.TwoTree.HalfWindowSize = e.WindowSize / 2
	}
	if e.DecayHybrid.DecayFactor == 0 {
		e.DecayHybrid.DecayFactor = 0.995
	}
	if e.DecayHybrid.PruneEpsilon == 0 {
		e.DecayHybrid.PruneEpsilon = 1e-6
	}
	if e.HSTree.Trees == 0 {
		e.HSTree.Trees = 25
	}
	if e.HSTree.Depth == 0 {
		e.HSTree.Depth = 8
	}
	if e.RCF.Trees == 0 {
		e.RCF.Trees = 100
	}
	if e.RCF.SampleSize == 0 {
		e.RCF.SampleSize = 256
	}
	if e.Autoencoder.Hidden == 0 {
		e.Autoencoder.Hidden = 32
	}
	if e.Autoencoder.LearningRate == 0 {
		e.Autoencoder.LearningRate = 0.01
	}
	if c.Checkpoint.Interval == 0 {
		c.Checkpoint.Interval = 1000
	}
	if c.Checkpoint.Dir == "" {
		c.Checkpoint.Dir = "checkpoints"
	}
	if c.Eval.MemorySampleEvery == 0 {
		c.Eval.MemorySampleEvery = 1000
	}
	if c.Probe.Journal.Path == "" {
		c.Probe.Journal.Path = "journal"
	}
}

// Validate checks every parameter range the algorithms rely on.
func (c *Config) Validate() error {
	e := &c.Engine
	if e.WindowSize <= 0 {
		return fmt.Errorf("engine.window_size must be positive, got %d", e.WindowSize)
	}
	if e.MinSupport <= 0 || e.MinSupport > 1 {
		return fmt.Errorf("engine.min_support must be in (0,1], got %g", e.MinSupport)
	}
	if e.MineEvery < 1 {
		return fmt.Errorf("engine.mine_every must be >= 1, got %d", e.MineEvery)
	}
	if e.NoReorder.TiltBuckets <= 0 {
		return fmt.Errorf("engine.noreorder.tilt_buckets must be positive, got %d", e.NoReorder.TiltBuckets)
	}
	if th := e.PartialRebuild.RebuildThreshold; th <= 0 || th > 1 {
		return fmt.Errorf("engine.partialrebuild.rebuild_threshold must be in (0,1], got %g", th)
	}
	if e.TwoTree.HalfWindowSize <= 0 {
		return fmt.Errorf("engine.twotree.half_window_size must be positive, got %d", e.TwoTree.HalfWindowSize)
	}
	if df := e.DecayHybrid.DecayFactor; df <= 0 || df >= 1 {
		return fmt.Errorf("engine.decayhybrid.decay_factor must be in (0,1), got %g", df)
	}
	if e.DecayHybrid.PruneEpsilon <= 0 {
		return fmt.Errorf("engine.decayhybrid.prune_epsilon must be positive, got %g", e.DecayHybrid.PruneEpsilon)
	}
	if c.Checkpoint.Interval < 1 {
		return fmt.Errorf("checkpoint.interval must be >= 1, got %d", c.Checkpoint.Interval)
	}
	if c.Alerter.Enabled {
		if th := c.Alerter.AnomalyRateThreshold; th <= 0 || th > 1 {
			return fmt.Errorf("alerter.anomaly_rate_threshold must be in (0,1], got %g", th)
		}
	}
	return nil
}
