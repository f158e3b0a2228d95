package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"depalletconsole/models"
)

// Slot sources.
const (
	SlotSourceStatic = "static"
	SlotSourceRemote = "remote"
)

var DefaultSlotCandidates = []string{"A-1", "A-3", "B-2", "C-4"}

// Config is the console's runtime configuration.
type Config struct {
	Addr       string
	SQLitePath string
	BackendURL string

	RequestTimeout  time.Duration
	DispatchTimeout time.Duration
	ScanDelay       time.Duration

	SlotCandidates []string
	SlotSource     string
	StatusLabels   models.StatusLabels
	EventLogLimit  int

	ApproveRequiresStatusWrite bool

	AMQPURL      string
	AMQPExchange string

	OperatorPassword string
}

// Load reads an optional .env file and then the process environment. A
// missing .env is not an error; variables already set win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, applying defaults.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	cfg := Config{
		Addr:             get("APP_ADDR", ":8080"),
		SQLitePath:       get("SQLITE_PATH", "depalletconsole.db"),
		BackendURL:       strings.TrimRight(get("BACKEND_URL", "http://127.0.0.1:5000"), "/"),
		SlotSource:       strings.ToLower(get("SLOT_SOURCE", SlotSourceStatic)),
		AMQPURL:          get("AMQP_URL", ""),
		AMQPExchange:     get("AMQP_EXCHANGE", "depalletizer"),
		OperatorPassword: get("OPERATOR_PASSWORD", ""),
	}

	var err error
	// Backend calls always carry a deadline; zero would mean none.
	if cfg.RequestTimeout, err = positiveDuration(get("REQUEST_TIMEOUT", "10s")); err != nil {
		return Config{}, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}
	if cfg.DispatchTimeout, err = positiveDuration(get("DISPATCH_TIMEOUT", "5s")); err != nil {
		return Config{}, fmt.Errorf("DISPATCH_TIMEOUT: %w", err)
	}
	if cfg.ScanDelay, err = duration(get("SCAN_DELAY", "1500ms")); err != nil {
		return Config{}, fmt.Errorf("SCAN_DELAY: %w", err)
	}

	cfg.SlotCandidates = splitList(get("SLOT_CANDIDATES", ""))
	if len(cfg.SlotCandidates) == 0 {
		cfg.SlotCandidates = append([]string(nil), DefaultSlotCandidates...)
	}
	switch cfg.SlotSource {
	case SlotSourceStatic, SlotSourceRemote:
	default:
		return Config{}, fmt.Errorf("SLOT_SOURCE: unknown source %q", cfg.SlotSource)
	}

	if cfg.StatusLabels, err = models.ParseStatusLabels(get("ORDER_STATUS_LABELS", "")); err != nil {
		return Config{}, fmt.Errorf("ORDER_STATUS_LABELS: %w", err)
	}

	if cfg.EventLogLimit, err = strconv.Atoi(get("EVENT_LOG_LIMIT", "500")); err != nil || cfg.EventLogLimit < 0 {
		return Config{}, fmt.Errorf("EVENT_LOG_LIMIT: must be a non-negative integer")
	}

	if cfg.ApproveRequiresStatusWrite, err = strconv.ParseBool(get("APPROVE_REQUIRES_STATUS_WRITE", "false")); err != nil {
		return Config{}, fmt.Errorf("APPROVE_REQUIRES_STATUS_WRITE: %w", err)
	}

	return cfg, nil
}

func duration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", raw)
	}
	return d, nil
}

func positiveDuration(raw string) (time.Duration, error) {
	d, err := duration(raw)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("must be greater than zero")
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
