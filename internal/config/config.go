package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time expresses the TTL and sweep durations
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable; database coordinates are
// required, everything else falls back to a sensible default.
type Config struct {
    Env     string // application environment (e.g. "dev", "prod")
    Port    string // HTTP port to listen on
    DBUser  string // database username
    DBPass  string // database password (optional)
    DBHost  string // database host address
    DBPort  string // database port number
    DBName  string // database name
    AMQPURL string // RabbitMQ URL for the booking pipeline (empty disables it)

    LockTTLSeconds       int // seat lock time-to-live in seconds
    SweepIntervalSeconds int // expiry sweep interval in seconds
}

// Load reads configuration values from environment variables and
// returns a Config.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:                  envOr("APP_ENV", "dev"),
        Port:                 envOr("APP_PORT", "8080"),
        DBUser:               must("DB_USER"),
        DBPass:               os.Getenv("DB_PASS"), // empty allowed
        DBHost:               must("DB_HOST"),
        DBPort:               must("DB_PORT"),
        DBName:               must("DB_NAME"),
        AMQPURL:              os.Getenv("RABBITMQ_URL"),
        LockTTLSeconds:       envOrInt("SEAT_LOCK_TTL_SECONDS", 180),
        SweepIntervalSeconds: envOrInt("SWEEP_INTERVAL_SECONDS", 60),
    }
}

// LockTTL returns the seat lock lifetime as a duration.
func (c Config) LockTTL() time.Duration {
    return time.Duration(c.LockTTLSeconds) * time.Second
}

// SweepInterval returns the sweep cadence as a duration.
func (c Config) SweepInterval() time.Duration {
    return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// envOr returns the variable's value or the given default when unset.
func envOr(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

// envOrInt is like envOr but converts the value into an integer.  An
// unparsable value is a fatal configuration error.
func envOrInt(key string, def int) int {
    s := os.Getenv(key)
    if s == "" {
        return def
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
