package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		TTL string `yaml:"ttl"`
	} `yaml:"catalog"`
	Game struct {
		Capacity     int    `yaml:"capacity"`
		QuestionTime string `yaml:"questionTime"`
		RevealDelay  string `yaml:"revealDelay"`
		Scoring      struct {
			BasePoints         int `yaml:"basePoints"`
			TimeBonusPerSecond int `yaml:"timeBonusPerSecond"`
			StreakBonus        int `yaml:"streakBonus"`
		} `yaml:"scoring"`
	} `yaml:"game"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// PositiveInt returns raw unless it is zero or negative.
func PositiveInt(raw, fallback int) int {
	if raw > 0 {
		return raw
	}
	return fallback
}
