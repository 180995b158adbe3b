package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MarketSim/internal/domain/models"
	"MarketSim/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"metrics"`
	Discord struct {
		Token         string `yaml:"token"`
		ChannelID     string `yaml:"channel_id" validate:"required"`
		OperatorID    string `yaml:"operator_id" validate:"required"`
		CommandPrefix string `yaml:"command_prefix" default:"!"`
	} `yaml:"discord"`
	Market struct {
		TickInterval time.Duration      `yaml:"tick_interval" default:"20s" validate:"gt=0"`
		MaxStep      float64            `yaml:"max_step" default:"5" validate:"gt=0"`
		HistorySize  int                `yaml:"history_size" default:"100" validate:"min=2"`
		Instruments  []InstrumentConfig `yaml:"instruments" validate:"dive"`
		Indexes      []IndexConfig      `yaml:"indexes" validate:"dive"`
		Schedule     ScheduleConfig     `yaml:"schedule"`
	} `yaml:"market"`
	Commands struct {
		RatePerSec float64 `yaml:"rate_per_sec" default:"1" validate:"gt=0"`
		Burst      int     `yaml:"burst" default:"5" validate:"min=1"`
	} `yaml:"commands"`
	Portfolio struct {
		Backend      string  `yaml:"backend" default:"file" validate:"oneof=file memory redis"`
		FilePath     string  `yaml:"file_path" default:"data/portfolios.json"`
		StartingCash float64 `yaml:"starting_cash" default:"10000" validate:"gte=0"`
		Redis        struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"marketsim"`
		} `yaml:"redis"`
	} `yaml:"portfolio"`
	Sink struct {
		Backend    string `yaml:"backend" default:"none" validate:"oneof=none kafka clickhouse"`
		BufferSize int    `yaml:"buffer_size" default:"1000" validate:"min=1"`
		BatchSize  int    `yaml:"batch_size" default:"100" validate:"min=1"`
		Kafka      struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic" default:"marketsim.ticks"`
			EventTopic   string        `yaml:"event_topic" default:"marketsim.events"`
			LogTopic     string        `yaml:"log_topic"`
			RequiredAcks int           `yaml:"required_acks" default:"-1"`
			Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"kafka"`
		ClickHouse struct {
			Host         string        `yaml:"host" default:"localhost"`
			Port         int           `yaml:"port" default:"9000"`
			Database     string        `yaml:"database" default:"marketsim"`
			User         string        `yaml:"user" default:"default"`
			Password     string        `yaml:"password"`
			UseHTTP      bool          `yaml:"use_http"`
			AsyncInsert  bool          `yaml:"async_insert" default:"true"`
			DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"clickhouse"`
	} `yaml:"sink"`
}

type InstrumentConfig struct {
	Symbol string  `yaml:"symbol" validate:"required,uppercase"`
	Price  float64 `yaml:"price" validate:"gt=0"`
}

type IndexConfig struct {
	Name    string   `yaml:"name" validate:"required"`
	Members []string `yaml:"members" validate:"required,min=1"`
}

type ScheduleConfig struct {
	DefaultMinutes int          `yaml:"default_minutes" default:"25" validate:"min=1"`
	Rules          []RuleConfig `yaml:"rules" validate:"dive"`
}

type RuleConfig struct {
	Days    []string `yaml:"days" validate:"required,min=1"`
	Minutes int      `yaml:"minutes" validate:"min=1"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.finalize(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadWithEnv loads .env, the YAML file, and then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := read(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	if err := c.finalize(); err != nil {
		return nil, err
	}
	return c, nil
}

func read(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &c, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("CHANNEL_ID"); v != "" {
		c.Discord.ChannelID = v
	}
	if v := os.Getenv("OPERATOR_ID"); v != "" {
		c.Discord.OperatorID = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("SINK_BACKEND"); v != "" {
		c.Sink.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Sink.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("PORTFOLIO_BACKEND"); v != "" {
		c.Portfolio.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Portfolio.Redis.Host, c.Portfolio.Redis.Port = util.HostPort(v, c.Portfolio.Redis.Port)
	}
}

// finalize applies struct defaults, fills empty market tables and validates.
func (c *Config) finalize() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("config defaults: %w", err)
	}
	if len(c.Market.Instruments) == 0 {
		for _, in := range models.DefaultInstruments() {
			c.Market.Instruments = append(c.Market.Instruments, InstrumentConfig{Symbol: in.Symbol, Price: in.Price})
		}
	}
	if len(c.Market.Indexes) == 0 {
		for _, d := range models.DefaultIndexes() {
			c.Market.Indexes = append(c.Market.Indexes, IndexConfig{Name: d.Name, Members: d.Members})
		}
	}
	if len(c.Market.Schedule.Rules) == 0 {
		for _, r := range models.DefaultSchedule() {
			c.Market.Schedule.Rules = append(c.Market.Schedule.Rules, RuleConfig{Days: util.WeekdayNames(r.Days), Minutes: r.IntervalMinutes})
		}
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// Validate checks struct tags plus the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	symbols := make(map[string]struct{}, len(c.Market.Instruments))
	for _, in := range c.Market.Instruments {
		if _, dup := symbols[in.Symbol]; dup {
			return fmt.Errorf("market.instruments: duplicate symbol %q", in.Symbol)
		}
		symbols[in.Symbol] = struct{}{}
	}
	names := make(map[string]struct{}, len(c.Market.Indexes))
	for _, idx := range c.Market.Indexes {
		if _, dup := names[idx.Name]; dup {
			return fmt.Errorf("market.indexes: duplicate index %q", idx.Name)
		}
		names[idx.Name] = struct{}{}
		for _, m := range idx.Members {
			if _, ok := symbols[m]; !ok {
				return fmt.Errorf("market.indexes: %s references unknown symbol %q", idx.Name, m)
			}
		}
	}
	for _, r := range c.Market.Schedule.Rules {
		for _, d := range r.Days {
			if _, ok := util.ParseWeekday(d); !ok {
				return fmt.Errorf("market.schedule: invalid weekday %q", d)
			}
		}
	}

	switch c.Sink.Backend {
	case "kafka":
		if len(c.Sink.Kafka.Brokers) == 0 {
			return fmt.Errorf("sink.kafka.brokers cannot be empty when sink.backend is kafka")
		}
	case "clickhouse":
		if c.Sink.ClickHouse.Host == "" {
			return fmt.Errorf("sink.clickhouse.host is required when sink.backend is clickhouse")
		}
	}
	if c.Portfolio.Backend == "file" && c.Portfolio.FilePath == "" {
		return fmt.Errorf("portfolio.file_path is required when portfolio.backend is file")
	}
	return nil
}

// Instruments converts the configured seed table into domain instruments.
func (c *Config) Instruments() []models.Instrument {
	out := make([]models.Instrument, 0, len(c.Market.Instruments))
	for _, in := range c.Market.Instruments {
		out = append(out, models.Instrument{Symbol: in.Symbol, Price: in.Price})
	}
	return out
}

// IndexDefinitions converts the configured index table into domain definitions.
func (c *Config) IndexDefinitions() []models.IndexDefinition {
	out := make([]models.IndexDefinition, 0, len(c.Market.Indexes))
	for _, idx := range c.Market.Indexes {
		out = append(out, models.IndexDefinition{Name: idx.Name, Members: append([]string(nil), idx.Members...)})
	}
	return out
}

// ScheduleRules converts the configured schedule into domain rules. Validate has already
// rejected unknown weekday names.
func (c *Config) ScheduleRules() []models.ScheduleRule {
	out := make([]models.ScheduleRule, 0, len(c.Market.Schedule.Rules))
	for _, r := range c.Market.Schedule.Rules {
		rule := models.ScheduleRule{IntervalMinutes: r.Minutes}
		for _, d := range r.Days {
			wd, _ := util.ParseWeekday(d)
			rule.Days = append(rule.Days, wd)
		}
		out = append(out, rule)
	}
	return out
}
