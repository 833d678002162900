// Package config decodes the controller's startup configuration
// (spec.md §6) via viper, the way marmos91-dittofs's pkg/config loads
// its layered YAML/env configuration into a typed struct.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/stev4501/e84ctl/internal/e84"
	"github.com/stev4501/e84ctl/internal/e84err"
)

// Config is the typed decode target for every recognized option in
// spec.md §6.
type Config struct {
	Interface string        `mapstructure:"interface"`
	ASCII     ASCIIConfig   `mapstructure:"ascii"`
	Digital   DigitalConfig `mapstructure:"digital"`
	Timers    TimersConfig  `mapstructure:"timers"`
	Mode      string        `mapstructure:"mode"`
	LogLevel  string        `mapstructure:"log_level"`
}

// ASCIIConfig holds the serial transport parameters for the
// ASCII-protocol Load Port Coordinator variant.
type ASCIIConfig struct {
	Port string `mapstructure:"port"`
	Baud int    `mapstructure:"baud"`
}

// DigitalConfig holds the line-to-signal mapping for the digital-line
// Load Port Coordinator variant.
type DigitalConfig struct {
	Device  string          `mapstructure:"device"`
	Mapping []MappingConfig `mapstructure:"mapping"`
}

// MappingConfig is one row of digital.mapping: {signal_name, card, port,
// bit, polarity}.
type MappingConfig struct {
	SignalName string `mapstructure:"signal_name"`
	Card       uint8  `mapstructure:"card"`
	Port       uint8  `mapstructure:"port"`
	Bit        uint8  `mapstructure:"bit"`
	Polarity   string `mapstructure:"polarity"` // "active_high" | "active_low"
}

// TimersConfig carries TP1..TP5 overrides in milliseconds; a zero value
// means "use the spec default" rather than "zero duration".
type TimersConfig struct {
	TP1Ms int `mapstructure:"tp1_ms"`
	TP2Ms int `mapstructure:"tp2_ms"`
	TP3Ms int `mapstructure:"tp3_ms"`
	TP4Ms int `mapstructure:"tp4_ms"`
	TP5Ms int `mapstructure:"tp5_ms"`
}

// Default returns the configuration spec.md §6 describes as defaults:
// ascii interface disabled in favor of digital, AUTO startup mode, and
// no timer overrides.
func Default() *Config {
	return &Config{
		Interface: "digital",
		ASCII:     ASCIIConfig{Baud: 9600},
		Mode:      "AUTO",
		LogLevel:  "info",
	}
}

// Load reads configuration from configPath (if non-empty) and the
// environment (E84CTL_ prefix), falling back to Default for anything
// unset, mirroring the teacher pack's viper setup in
// marmos91-dittofs/pkg/config.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("E84CTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the decoded configuration for the Configuration error
// kinds spec.md §7 names: DuplicateSignal, UnmappedSignal, and
// InvalidTimerValue, plus InvalidConfigValue for other malformed
// scalar settings (interface, polarity, mode). Configuration errors are
// fatal at startup.
func Validate(cfg *Config) error {
	switch cfg.Interface {
	case "digital", "ascii":
	default:
		return e84err.New(e84err.KindInvalidConfigValue, "interface must be \"digital\" or \"ascii\", got "+cfg.Interface)
	}

	if cfg.Interface == "digital" {
		seenSignal := make(map[string]bool, len(cfg.Digital.Mapping))
		seenLine := make(map[[3]uint8]bool, len(cfg.Digital.Mapping))
		for _, m := range cfg.Digital.Mapping {
			// digital.mapping also carries the two actuator command
			// lines (DOCK_CMD/CLAMP_CMD) the digital-line Load Port
			// Coordinator drives directly; these have no Registry
			// signal of their own, so they are accepted alongside the
			// fixed E84 signal set rather than failing IsKnownSignal.
			if !e84.IsKnownSignal(m.SignalName) && m.SignalName != "DOCK_CMD" && m.SignalName != "CLAMP_CMD" {
				return e84err.New(e84err.KindUnmappedSignal, "unknown signal in digital.mapping: "+m.SignalName)
			}
			if seenSignal[m.SignalName] {
				return e84err.New(e84err.KindDuplicateSignal, "signal mapped twice: "+m.SignalName)
			}
			seenSignal[m.SignalName] = true
			key := [3]uint8{m.Card, m.Port, m.Bit}
			if seenLine[key] {
				return e84err.New(e84err.KindDuplicateSignal, "line mapped twice")
			}
			seenLine[key] = true
			if m.Polarity != "" && m.Polarity != "active_high" && m.Polarity != "active_low" {
				return e84err.New(e84err.KindInvalidConfigValue, "invalid polarity: "+m.Polarity)
			}
		}
	}

	for _, ms := range []int{cfg.Timers.TP1Ms, cfg.Timers.TP2Ms, cfg.Timers.TP3Ms, cfg.Timers.TP4Ms, cfg.Timers.TP5Ms} {
		if ms < 0 {
			return e84err.New(e84err.KindInvalidTimerValue, "timer override must be >= 0")
		}
	}

	switch strings.ToUpper(cfg.Mode) {
	case "AUTO", "MANUAL", "MAINTENANCE":
	default:
		return e84err.New(e84err.KindInvalidConfigValue, "mode must be AUTO, MANUAL, or MAINTENANCE")
	}

	return nil
}

// TimerOverrides converts the configured millisecond values into a
// name->Duration map suitable for e84.Options.WithTimerDuration,
// omitting any timer left at zero (meaning "no override").
func (c *Config) TimerOverrides() map[string]time.Duration {
	out := make(map[string]time.Duration, 5)
	add := func(name string, ms int) {
		if ms > 0 {
			out[name] = time.Duration(ms) * time.Millisecond
		}
	}
	add(e84.TimerTP1, c.Timers.TP1Ms)
	add(e84.TimerTP2, c.Timers.TP2Ms)
	add(e84.TimerTP3, c.Timers.TP3Ms)
	add(e84.TimerTP4, c.Timers.TP4Ms)
	add(e84.TimerTP5, c.Timers.TP5Ms)
	return out
}
