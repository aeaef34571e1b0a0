package withdrawal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/magiconair/properties"
)

const configFileName = "config.properties"

// Config holds the engine tunables read from config.properties.
type Config struct {
	PollSeconds                       int    `validate:"gte=1"`
	MaxFilesPerCycle                  int    `validate:"gte=1"`
	MaxRetries                        int    `validate:"gte=1"`
	InitialInventoryRetryDelaySeconds int    `validate:"gte=1"`
	MaxInventoryRetryDelaySeconds     int    `validate:"gte=0"`
	InboxDir                          string `validate:"required,queue_dir"`
	ProcessedDir                      string `validate:"required,queue_dir"`
	ErrorDir                          string `validate:"required,queue_dir"`
	MetricsAddress                    string `validate:"omitempty,hostname_port"`

	dataDir string
}

// DefaultConfig returns the tunables used when config.properties is missing or incomplete.
func DefaultConfig() *Config {
	return &Config{
		PollSeconds:                       3,
		MaxFilesPerCycle:                  10,
		MaxRetries:                        5,
		InitialInventoryRetryDelaySeconds: 10,
		MaxInventoryRetryDelaySeconds:     0,
		InboxDir:                          "inbox",
		ProcessedDir:                      "processed",
		ErrorDir:                          "error",
	}
}

// LoadConfig reads config.properties from the plugin data folder, writing the defaults on first
// run, and makes sure the queue directories exist.
func LoadConfig(plugin Plugin) (*Config, error) {
	logger := plugin.Logger()
	dataDir := plugin.DataFolder()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data folder: %w", err)
	}

	path := filepath.Join(dataDir, configFileName)
	props := properties.NewProperties()
	if _, err := os.Stat(path); err == nil {
		loaded, err := properties.LoadFile(path, properties.UTF8)
		if err != nil {
			logger.Warn("Failed to read %s: %v", configFileName, err)
		} else {
			props = loaded
		}
	} else if err := writeDefaultConfig(path); err != nil {
		logger.Warn("Could not write default config: %v", err)
	}

	cfg := configFromProperties(props)
	cfg.sanitize(logger)
	cfg.dataDir = dataDir

	for _, dir := range []string{cfg.InboxPath(), cfg.ProcessedPath(), cfg.ErrorPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create queue directory %s: %w", dir, err)
		}
	}
	return cfg, nil
}

func configFromProperties(p *properties.Properties) *Config {
	def := DefaultConfig()
	return &Config{
		PollSeconds:                       intProp(p, "poll_seconds", def.PollSeconds),
		MaxFilesPerCycle:                  intProp(p, "max_files_per_cycle", def.MaxFilesPerCycle),
		MaxRetries:                        intProp(p, "max_retries", def.MaxRetries),
		InitialInventoryRetryDelaySeconds: intProp(p, "initial_inventory_retry_delay_seconds", def.InitialInventoryRetryDelaySeconds),
		MaxInventoryRetryDelaySeconds:     intProp(p, "max_inventory_retry_delay_seconds", def.MaxInventoryRetryDelaySeconds),
		InboxDir:                          strings.TrimSpace(p.GetString("inbox_dir", def.InboxDir)),
		ProcessedDir:                      strings.TrimSpace(p.GetString("processed_dir", def.ProcessedDir)),
		ErrorDir:                          strings.TrimSpace(p.GetString("error_dir", def.ErrorDir)),
		MetricsAddress:                    strings.TrimSpace(p.GetString("metrics_address", def.MetricsAddress)),
	}
}

func intProp(p *properties.Properties, key string, def int) int {
	v := strings.TrimSpace(p.GetString(key, ""))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// sanitize floors the poll period and replaces every invalid value with its default.
func (c *Config) sanitize(logger runtime.Logger) {
	if c.PollSeconds < 1 {
		c.PollSeconds = 1
	}

	err := configValidator().Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return
	}
	def := DefaultConfig()
	for _, fe := range verrs {
		logger.Warn("Invalid config value for %s (%v), using default", fe.Field(), fe.Value())
		switch fe.StructField() {
		case "MaxFilesPerCycle":
			c.MaxFilesPerCycle = def.MaxFilesPerCycle
		case "MaxRetries":
			c.MaxRetries = def.MaxRetries
		case "InitialInventoryRetryDelaySeconds":
			c.InitialInventoryRetryDelaySeconds = def.InitialInventoryRetryDelaySeconds
		case "MaxInventoryRetryDelaySeconds":
			c.MaxInventoryRetryDelaySeconds = def.MaxInventoryRetryDelaySeconds
		case "InboxDir":
			c.InboxDir = def.InboxDir
		case "ProcessedDir":
			c.ProcessedDir = def.ProcessedDir
		case "ErrorDir":
			c.ErrorDir = def.ErrorDir
		case "MetricsAddress":
			c.MetricsAddress = def.MetricsAddress
		}
	}
}

func configValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("queue_dir", func(fl validator.FieldLevel) bool {
		dir := fl.Field().String()
		if filepath.IsAbs(dir) {
			return false
		}
		clean := filepath.Clean(dir)
		return clean != "." && clean != ".." && !strings.HasPrefix(clean, ".."+string(filepath.Separator))
	})
	return v
}

func writeDefaultConfig(path string) error {
	def := DefaultConfig()
	p := properties.NewProperties()
	p.DisableExpansion = true
	p.MustSet("poll_seconds", strconv.Itoa(def.PollSeconds))
	p.MustSet("max_files_per_cycle", strconv.Itoa(def.MaxFilesPerCycle))
	p.MustSet("max_retries", strconv.Itoa(def.MaxRetries))
	p.MustSet("initial_inventory_retry_delay_seconds", strconv.Itoa(def.InitialInventoryRetryDelaySeconds))
	p.MustSet("inbox_dir", def.InboxDir)
	p.MustSet("processed_dir", def.ProcessedDir)
	p.MustSet("error_dir", def.ErrorDir)
	p.SetComment("poll_seconds", "Withdrawal plugin config")

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := p.WriteComment(f, "# ", properties.UTF8); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (c *Config) InboxPath() string     { return filepath.Join(c.dataDir, c.InboxDir) }
func (c *Config) ProcessedPath() string { return filepath.Join(c.dataDir, c.ProcessedDir) }
func (c *Config) ErrorPath() string     { return filepath.Join(c.dataDir, c.ErrorDir) }

func (c *Config) PollInterval() time.Duration {
	return time.Duration(max(1, c.PollSeconds)) * time.Second
}

func (c *Config) InitialRetryDelay() time.Duration {
	return time.Duration(c.InitialInventoryRetryDelaySeconds) * time.Second
}

func (c *Config) MaxRetryDelay() time.Duration {
	return time.Duration(c.MaxInventoryRetryDelaySeconds) * time.Second
}

// WithDataDir returns a copy of the config rooted at dataDir. It is meant for tools and tests that
// build a Config without LoadConfig.
func (c *Config) WithDataDir(dataDir string) *Config {
	cp := *c
	cp.dataDir = dataDir
	return &cp
}
