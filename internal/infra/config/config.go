package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ReminderTime is one configured daily reminder time of day.
type ReminderTime struct {
	Hour   int
	Minute int
}

// Slot returns the slot label used in storage and callbacks, e.g. "09:00".
func (t ReminderTime) Slot() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken   string
	AdminTelegramID int64 // 0 disables admin commands
	Location        *time.Location
	TimezoneName    string
	ReminderTimes   []ReminderTime
	DataFile        string
	SubscribersFile string
	LogLevel        string
	Environment     string
	NagDelay        time.Duration
	NagLimit        int
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		adminID, err := strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
		cfg.AdminTelegramID = adminID
	}

	cfg.TimezoneName = os.Getenv("TIMEZONE")
	if cfg.TimezoneName == "" {
		cfg.TimezoneName = "Europe/Moscow"
	}
	loc, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", cfg.TimezoneName, err)
	}
	cfg.Location = loc

	timesRaw := os.Getenv("REMINDER_TIMES")
	if timesRaw == "" {
		timesRaw = "09:00,15:00,21:00"
	}
	cfg.ReminderTimes, err = ParseReminderTimes(timesRaw)
	if err != nil {
		return nil, err
	}

	cfg.DataFile = os.Getenv("DATA_FILE")
	if cfg.DataFile == "" {
		cfg.DataFile = filepath.Join("data", "confirmations.json")
	}
	cfg.SubscribersFile = filepath.Join(filepath.Dir(cfg.DataFile), "subscribers.json")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.NagDelay = 10 * time.Minute
	if raw := os.Getenv("NAG_DELAY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid NAG_DELAY %q", raw)
		}
		cfg.NagDelay = d
	}

	cfg.NagLimit = 6
	if raw := os.Getenv("NAG_LIMIT"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid NAG_LIMIT %q", raw)
		}
		cfg.NagLimit = n
	}

	return cfg, nil
}

// ParseReminderTimes parses a comma-separated list of HH:MM values.
// At least one valid time is required.
func ParseReminderTimes(raw string) ([]ReminderTime, error) {
	var times []ReminderTime
	for _, chunk := range strings.Split(raw, ",") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		parts := strings.Split(chunk, ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid reminder time %q, expected HH:MM", chunk)
		}
		hour, err := strconv.Atoi(parts[0])
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("invalid reminder time %q, expected HH:MM", chunk)
		}
		minute, err := strconv.Atoi(parts[1])
		if err != nil || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("invalid reminder time %q, expected HH:MM", chunk)
		}
		times = append(times, ReminderTime{Hour: hour, Minute: minute})
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("REMINDER_TIMES must contain at least one HH:MM value")
	}
	sort.Slice(times, func(i, j int) bool {
		if times[i].Hour != times[j].Hour {
			return times[i].Hour < times[j].Hour
		}
		return times[i].Minute < times[j].Minute
	})
	return times, nil
}

// SlotLabels returns the slot labels of all configured reminder times.
func (c *AppConfig) SlotLabels() []string {
	labels := make([]string, 0, len(c.ReminderTimes))
	for _, t := range c.ReminderTimes {
		labels = append(labels, t.Slot())
	}
	return labels
}
