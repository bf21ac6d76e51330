// Package config loads the gateway's environment-variable configuration,
// the way the teacher's main.go does (godotenv.Load + os.Getenv, no config
// framework), and validates it at load time.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"smpp-relay-core/dlr"
	"smpp-relay-core/submit"
)

// ConfigError is a fatal, load-time configuration problem. main should
// log.Fatal on it rather than start the server half-configured.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

func configErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// Config is the recognized configuration surface from spec §6, plus the
// ambient connection settings a runnable process needs.
type Config struct {
	DeliveryReportRegex          string
	DeliveryReportStatusMapping  map[string]dlr.Status
	DataCodingOverrides          map[byte]string
	SubmitEncoding               string
	SubmitDataCoding             byte
	SendLongMessages             bool
	SendMultipartSAR             bool
	SendMultipartUDH             bool

	RedisAddr     string
	PostgresDSN   string
	ListenAddr    string
	MetricsListen string

	compiledRegex *regexp.Regexp
}

// CompiledRegex returns the validated delivery-report regex. Load must have
// succeeded first.
func (c *Config) CompiledRegex() *regexp.Regexp {
	return c.compiledRegex
}

// SubmitConfig projects the submit-relevant fields into submit.Config.
func (c *Config) SubmitConfig() submit.Config {
	return submit.Config{
		SubmitEncoding:   c.SubmitEncoding,
		SubmitDataCoding: c.SubmitDataCoding,
		SendLongMessages: c.SendLongMessages,
		SendMultipartSAR: c.SendMultipartSAR,
		SendMultipartUDH: c.SendMultipartUDH,
	}
}

// Load reads configuration from the environment, loading a local .env file
// first when present (godotenv.Load returns an error when no .env file
// exists, which is not fatal here).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DeliveryReportRegex: envOr("DELIVERY_REPORT_REGEX", dlr.DefaultRegexPattern),
		SubmitEncoding:      envOr("SUBMIT_ENCODING", "utf-8"),
		SendLongMessages:    envBool("SEND_LONG_MESSAGES"),
		SendMultipartSAR:    envBool("SEND_MULTIPART_SAR"),
		SendMultipartUDH:    envBool("SEND_MULTIPART_UDH"),
		RedisAddr:           envOr("REDIS_ADDR", "localhost:6379"),
		PostgresDSN:         os.Getenv("POSTGRES_DSN"),
		ListenAddr:          envOr("LISTEN_ADDR", ":2775"),
		MetricsListen:       envOr("METRICS_LISTEN", ":9150"),
	}

	dataCoding, err := strconv.ParseUint(envOr("SUBMIT_DATA_CODING", "0"), 10, 8)
	if err != nil {
		return nil, configErrorf("SUBMIT_DATA_CODING: %s", err)
	}
	cfg.SubmitDataCoding = byte(dataCoding)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate compiles the delivery-report regex (checking it exposes the
// required named groups) and enforces mutual exclusivity of the
// long-message flags.
func (c *Config) Validate() error {
	re, err := regexp.Compile(c.DeliveryReportRegex)
	if err != nil {
		return configErrorf("delivery_report_regex does not compile: %s", err)
	}
	required := []string{"id", "stat"}
	names := re.SubexpNames()
	for _, r := range required {
		if !containsString(names, r) {
			return configErrorf("delivery_report_regex missing required named group %q", r)
		}
	}
	c.compiledRegex = re

	strategies := 0
	for _, b := range []bool{c.SendLongMessages, c.SendMultipartSAR, c.SendMultipartUDH} {
		if b {
			strategies++
		}
	}
	if strategies > 1 {
		return configErrorf("send_long_messages, send_multipart_sar, send_multipart_udh are mutually exclusive")
	}

	return nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}
