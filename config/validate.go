package config

import (
	"fmt"
	"net"
	"strings"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if err := validateAddr(cfg.ListenAddr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidListenAddr, err)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if err := cfg.Params.Validate(); err != nil {
		return err
	}

	e := cfg.Emission
	if e.BuyerPoolBps+e.SellerPoolBps+e.NetworkerPoolBps != 10_000 {
		return ErrInvalidPoolSplit
	}
	if e.NetworkerImmediateBps > 10_000 {
		return fmt.Errorf("%w: networker immediate share %d", ErrInvalidPoolSplit, e.NetworkerImmediateBps)
	}

	return nil
}

// validateAddr checks that addr is a valid host:port address.
func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	return err
}
