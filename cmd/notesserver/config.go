package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rogpeppe/rjson"
	"golang.org/x/time/rate"
)

type config struct {
	Host            string  `json:"host"`
	Port            int     `json:"port"`
	Cache           string  `json:"cache"`
	Debug           bool    `json:"debug"`
	MaxNoteSize     int64   `json:"max_note_size"`
	RateLimit       float64 `json:"rate_limit"`
	RateBurst       int     `json:"rate_burst"`
	SerializeWrites bool    `json:"serialize_writes"`
	ReadTimeout     string  `json:"read_timeout"`
	WriteTimeout    string  `json:"write_timeout"`

	readTimeout  time.Duration
	writeTimeout time.Duration
}

func loadConfig(pathname string) (*config, error) {
	f, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	var c *config
	if err := rjson.NewDecoder(f).Decode(&c); err != nil {
		return nil, fmt.Errorf("could not decode %q: %w", pathname, err)
	}
	if c == nil {
		c = new(config)
	}
	return c, nil
}

func (c *config) applyDefaultsForMissingProperties() {
	if c.MaxNoteSize == 0 {
		c.MaxNoteSize = 1 << 20
	}
	if c.RateLimit > 0 && c.RateBurst == 0 {
		c.RateBurst = 1
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "10s"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "10s"
	}
	c.Cache = os.ExpandEnv(c.Cache)
}

// validate checks the required properties are there and parses those that
// need parsing. Call after applyDefaultsForMissingProperties.
func (c *config) validate() (err error) {
	switch {
	case c.Host == "":
		return errors.New("host is required")
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("port %d: must be between 1 and 65535", c.Port)
	case c.Cache == "":
		return errors.New("cache directory is required")
	case c.MaxNoteSize < 0:
		return fmt.Errorf("max_note_size %d: must not be negative", c.MaxNoteSize)
	case c.RateLimit < 0:
		return fmt.Errorf("rate_limit %v: must not be negative", c.RateLimit)
	case c.RateBurst < 0:
		return fmt.Errorf("rate_burst %d: must not be negative", c.RateBurst)
	}
	if c.readTimeout, err = time.ParseDuration(c.ReadTimeout); err != nil {
		return fmt.Errorf("read_timeout: %w", err)
	}
	if c.writeTimeout, err = time.ParseDuration(c.WriteTimeout); err != nil {
		return fmt.Errorf("write_timeout: %w", err)
	}
	return nil
}

// limit converts the configured rate to the limiter's, zero meaning no limit.
func (c *config) limit() rate.Limit {
	if c.RateLimit == 0 {
		return rate.Inf
	}
	return rate.Limit(c.RateLimit)
}
