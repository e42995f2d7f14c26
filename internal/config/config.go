package config

import (
	"flag"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all host configuration.
type Config struct {
	Interface string `yaml:"interface"`
	Addr      string `yaml:"addr"`
	Channel   int    `yaml:"channel"`
	Chatroom  string `yaml:"chatroom"`
	MockMode  bool   `yaml:"mock"`
	DBPath    string `yaml:"db"`
	Debug     bool   `yaml:"debug"`
}

// Load populates Config from built-in defaults, environment variables,
// an optional YAML file, and command line flags, in that order of
// precedence (flags win).
func Load() *Config {
	cfg := &Config{}

	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("DSHOST_CONFIG"), "Path to YAML config file")

	// Defaults and environment variables
	cfg.Interface = getEnv("DSHOST_INTERFACE", "wlan0")
	cfg.Addr = getEnv("DSHOST_ADDR", ":8080")
	cfg.Channel = getEnvInt("DSHOST_CHANNEL", 7)
	cfg.Chatroom = getEnv("DSHOST_ROOM", "A")
	cfg.MockMode = getEnvBool("DSHOST_MOCK", false)
	cfg.DBPath = getEnv("DSHOST_DB", "")

	// Command line flags (override env and file)
	flag.StringVar(&cfg.Interface, "i", cfg.Interface, "Monitor-mode 802.11b interface")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Monitor HTTP server address")
	flag.IntVar(&cfg.Channel, "channel", cfg.Channel, "Radio channel to lock")
	flag.StringVar(&cfg.Chatroom, "room", cfg.Chatroom, "PictoChat room (A-D)")
	flag.BoolVar(&cfg.MockMode, "mock", cfg.MockMode, "Run against the simulator radio")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite session log (empty to disable)")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")

	flag.Parse()

	if configPath != "" {
		if err := loadFile(configPath, cfg); err != nil {
			log.Printf("Warning: could not load config file %s: %v", configPath, err)
		}
		// Re-apply flags so explicit ones still win over the file.
		flag.Parse()
	}

	return cfg
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
