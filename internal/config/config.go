package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the directory under $HOME that holds config.yaml.
const DirName = ".equity"

// Global configuration structure.
type Global struct {
	DatasetPath       string  `mapstructure:"dataset_path" yaml:"dataset_path"`
	MatchThreshold    float64 `mapstructure:"match_threshold" yaml:"match_threshold"`
	PeerMode          string  `mapstructure:"peer_mode" yaml:"peer_mode"`
	KeepEmptyRows     bool    `mapstructure:"keep_empty_rows" yaml:"keep_empty_rows"`
	Delimiter         string  `mapstructure:"delimiter" yaml:"delimiter"`
	Sheet             string  `mapstructure:"sheet" yaml:"sheet"`
	DecimalSeparator  string  `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSep      string  `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	ChartDir          string  `mapstructure:"chart_dir" yaml:"chart_dir"`
	ChartRetentionMin int     `mapstructure:"chart_retention_min" yaml:"chart_retention_min"`
	ListenAddr        string  `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// Keys lists every settable key, in display order.
var Keys = []string{
	"dataset_path",
	"match_threshold",
	"peer_mode",
	"keep_empty_rows",
	"delimiter",
	"sheet",
	"decimal_separator",
	"thousands_separator",
	"chart_dir",
	"chart_retention_min",
	"listen_addr",
}

// DefaultPath returns ~/.equity/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.equity/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing file is not an error;
// command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("EQUITY")
	v.AutomaticEnv()

	v.SetDefault("dataset_path", "school_data.csv")
	v.SetDefault("match_threshold", 0.6)
	v.SetDefault("peer_mode", "auto")
	v.SetDefault("keep_empty_rows", false)
	v.SetDefault("delimiter", "")
	v.SetDefault("sheet", "")
	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("chart_dir", "static")
	v.SetDefault("chart_retention_min", 60)
	v.SetDefault("listen_addr", ":5001")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, DirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Get returns the value of key formatted for display.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "dataset_path":
		return c.DatasetPath, nil
	case "match_threshold":
		return strconv.FormatFloat(c.MatchThreshold, 'f', -1, 64), nil
	case "peer_mode":
		return c.PeerMode, nil
	case "keep_empty_rows":
		return strconv.FormatBool(c.KeepEmptyRows), nil
	case "delimiter":
		return c.Delimiter, nil
	case "sheet":
		return c.Sheet, nil
	case "decimal_separator":
		return c.DecimalSeparator, nil
	case "thousands_separator":
		return c.ThousandsSep, nil
	case "chart_dir":
		return c.ChartDir, nil
	case "chart_retention_min":
		return strconv.Itoa(c.ChartRetentionMin), nil
	case "listen_addr":
		return c.ListenAddr, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// Set validates val and assigns it to key.
func (c *Global) Set(key, val string) error {
	switch key {
	case "dataset_path":
		c.DatasetPath = val
	case "match_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 || f > 1 {
			return fmt.Errorf("invalid float for match_threshold: %v (use 0 < t <= 1)", val)
		}
		c.MatchThreshold = f
	case "peer_mode":
		switch strings.ToLower(val) {
		case "auto", "demographic", "rest":
			c.PeerMode = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid peer_mode: %s (use auto, demographic or rest)", val)
		}
	case "keep_empty_rows":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for keep_empty_rows: %w", err)
		}
		c.KeepEmptyRows = b
	case "delimiter":
		if _, err := ParseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "sheet":
		c.Sheet = val
	case "decimal_separator":
		if _, err := ParseDecimal(val); err != nil {
			return err
		}
		c.DecimalSeparator = val
	case "thousands_separator":
		if _, err := ParseThousands(val); err != nil {
			return err
		}
		c.ThousandsSep = val
	case "chart_dir":
		c.ChartDir = val
	case "chart_retention_min":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for chart_retention_min: %v", val)
		}
		c.ChartRetentionMin = i
	case "listen_addr":
		c.ListenAddr = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// ParseDelimiter maps a delimiter setting to a rune. Empty means auto-detect
// and yields 0.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %s (use ',' | ';' | 'tab' | 'pipe')", s)
	}
}

// ParseDecimal maps a decimal_separator setting to a rune. Empty means
// auto-detect per value and yields 0.
func ParseDecimal(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ".", "dot":
		return '.', nil
	case ",", "comma":
		return ',', nil
	default:
		return 0, fmt.Errorf("unsupported decimal_separator: %s (use '.' | ',')", s)
	}
}

// ParseThousands maps a thousands_separator setting to a rune. Empty yields 0,
// which strips every common grouping character.
func ParseThousands(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ".", "dot":
		return '.', nil
	case " ", "space":
		return ' ', nil
	default:
		return 0, fmt.Errorf("unsupported thousands_separator: %s (use ',' | '.' | 'space')", s)
	}
}
