package cliconfig

import (
	"net"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validLogFormats = []string{"text", "json"}
)

// Validate checks the configuration for values that would fail at startup.
func (c *CLIConfig) Validate() error {
	if err := validateHostPort("address", c.Address, false); err != nil {
		return err
	}
	if err := validateHostPort("graphite", c.Graphite, true); err != nil {
		return err
	}
	if c.Refresh <= 0 {
		return errors.Newf("refresh %s must be positive", c.Refresh)
	}
	if !oneOf(c.LogLevel, validLogLevels) {
		return errors.Newf("logLevel %q is not one of %s", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if !oneOf(c.LogFormat, validLogFormats) {
		return errors.Newf("logFormat %q is not one of %s", c.LogFormat, strings.Join(validLogFormats, ", "))
	}
	return nil
}

func validateHostPort(key, value string, optional bool) error {
	if value == "" {
		if optional {
			return nil
		}
		return errors.Newf("%s is required", key)
	}
	_, port, err := net.SplitHostPort(value)
	if err != nil {
		return errors.Wrapf(err, "%s %q is not host:port", key, value)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return errors.Newf("%s port %q is out of range", key, port)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}
