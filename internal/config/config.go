// Package config loads client and server settings from the environment,
// after reading an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Client holds settings for the learner-facing app.
type Client struct {
	ServerURL    string
	HTTPTimeout  time.Duration
	DBPath       string // empty means the default data dir
	PersistTrend bool
	Log          Log
}

// Server holds settings for the reference backend.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	Store    string // "sqlite" or "mongo"
	DBPath   string
	MongoURI string
	MongoDB  string

	AMQPURL      string
	AMQPExchange string

	Seed bool
	Log  Log
}

// Log selects the slog handler.
type Log struct {
	Level  string
	Format string // "text" or "json"
}

// LoadDotEnv reads .env from the working directory if present. Variables
// already set in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load %s: %w", strings.Join(existing, ", "), err)
	}
	return nil
}

// LoadClient reads client settings.
func LoadClient() (Client, error) {
	timeout, err := getDuration("PRACTEST_HTTP_TIMEOUT", 15*time.Second)
	if err != nil {
		return Client{}, err
	}
	persist, err := getBool("PRACTEST_PERSIST_TREND", false)
	if err != nil {
		return Client{}, err
	}
	return Client{
		ServerURL:    getenvDefault("PRACTEST_SERVER_URL", "http://localhost:8000"),
		HTTPTimeout:  timeout,
		DBPath:       os.Getenv("PRACTEST_DB"),
		PersistTrend: persist,
		Log:          loadLog("info", "text"),
	}, nil
}

// LoadServer reads backend settings.
func LoadServer() (Server, error) {
	shutdown, err := getDuration("PRACTEST_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return Server{}, err
	}
	seed, err := getBool("PRACTEST_SEED", true)
	if err != nil {
		return Server{}, err
	}
	s := Server{
		Addr:            getenvDefault("PRACTEST_ADDR", ":8000"),
		ShutdownTimeout: shutdown,
		CORSOrigins:     splitList(getenvDefault("PRACTEST_CORS_ORIGINS", "*")),
		Store:           getenvDefault("PRACTEST_STORE", "sqlite"),
		DBPath:          os.Getenv("PRACTEST_SERVER_DB"),
		MongoURI:        getenvDefault("PRACTEST_MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getenvDefault("PRACTEST_MONGO_DB", "practest"),
		AMQPURL:         os.Getenv("PRACTEST_AMQP_URL"),
		AMQPExchange:    getenvDefault("PRACTEST_AMQP_EXCHANGE", "practest.events"),
		Seed:            seed,
		Log:             loadLog("info", "json"),
	}
	if s.Store != "sqlite" && s.Store != "mongo" {
		return Server{}, fmt.Errorf("PRACTEST_STORE=%q: want sqlite or mongo", s.Store)
	}
	return s, nil
}

func loadLog(level, format string) Log {
	return Log{
		Level:  getenvDefault("PRACTEST_LOG_LEVEL", level),
		Format: getenvDefault("PRACTEST_LOG_FORMAT", format),
	}
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getDuration(k string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid duration: %w", k, v, err)
	}
	return d, nil
}

func getBool(k string, fallback bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s=%q is not a valid bool: %w", k, v, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
