package phenyl

import (
	"errors"
	"time"
)

// Config carries construction-time settings. Instances are cloned by the
// Builder and treated as immutable after Build.
type Config struct {
	Session SessionConfig
	Metrics MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session materialization.
type SessionConfig struct {
	// DefaultTTL fills in the expiry when an authenticator returns a
	// pre-session with a zero ExpiredAt.
	DefaultTTL time.Duration
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			DefaultTTL: 365 * 24 * time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.Session.DefaultTTL <= 0 {
		return errors.New("Session.DefaultTTL must be positive")
	}
	return nil
}
