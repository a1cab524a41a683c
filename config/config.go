package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can say "30s" or "1m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	BaseURL    string `yaml:"base_url"`
	IndexPath  string `yaml:"index_path"`
	IndexQuery string `yaml:"index_query"`

	StartPage      int `yaml:"start_page"`
	EndPage        int `yaml:"end_page"` // 0 = auto-detect from pagination
	DefaultEndPage int `yaml:"default_end_page"`

	MaxConcurrent  int      `yaml:"max_concurrent"`
	MaxRetries     int      `yaml:"max_retries"`
	RetryBaseDelay Duration `yaml:"retry_base_delay"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
	RequestTimeout Duration `yaml:"request_timeout"`
	MinPageDelay   Duration `yaml:"min_page_delay"`
	MaxPageDelay   Duration `yaml:"max_page_delay"`

	Browser bool `yaml:"browser"` // fetch via headless Chrome instead of plain HTTP

	CSVPath   string `yaml:"csv_path"`
	StatePath string `yaml:"state_path"`

	DBHost     string `yaml:"db_host"` // empty disables the Postgres mirror
	DBPort     int    `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_ssl_mode"`
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://arenda.az",
		IndexPath:      "filtirli-axtaris",
		IndexQuery:     "home_search=1&lang=1&site=1&home_s=1",
		StartPage:      1,
		EndPage:        0,
		DefaultEndPage: 10,
		MaxConcurrent:  5,
		MaxRetries:     3,
		RetryBaseDelay: Duration(1 * time.Second),
		ConnectTimeout: Duration(10 * time.Second),
		RequestTimeout: Duration(30 * time.Second),
		MinPageDelay:   Duration(1 * time.Second),
		MaxPageDelay:   Duration(2 * time.Second),
		Browser:        false,
		CSVPath:        "arenda_listings.csv",
		StatePath:      "scraper_state.json",
		DBHost:         "",
		DBPort:         5432,
		DBUser:         "postgres",
		DBPassword:     "postgres",
		DBName:         "arenda_scraper",
		DBSSLMode:      "disable",
	}
}

// LoadFile reads a YAML config file on top of the defaults, so a file
// only needs to name the settings it changes.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file: %w", err)
	}

	return cfg, nil
}
