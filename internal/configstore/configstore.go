// Package configstore loads and persists the daemon's configuration
// document and watches it on disk for hot-reload, the JSON-on-disk
// settings idiom common across this domain.
package configstore

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ledgrid/ledctld/internal/layout"
)

// DisplayConfig holds the display-facing settings that are not part of
// the Layout document itself.
type DisplayConfig struct {
	Brightness           uint8   `json:"brightness"`
	PowerCeilingAmps     float64 `json:"power_ceiling_amps"`
	PowerLimitEnabled    bool    `json:"power_limit_enabled"`
	TargetFPS            int     `json:"target_fps"`
	IdleCurrentAmps      float64 `json:"idle_current_amps"`
	MaxCurrentPerLEDAmps float64 `json:"max_current_per_led_amps"`
}

// ScheduleConfig holds the cron expressions driving the Scheduler.
type ScheduleConfig struct {
	WakeCron  string `json:"wake_cron"`
	SleepCron string `json:"sleep_cron"`
	Enabled   bool   `json:"enabled"`
}

// IngressConfig holds the listen addresses for the three ingress
// transports.
type IngressConfig struct {
	UDPAddr    string `json:"udp_addr"`
	PipePath   string `json:"pipe_path"`
	BLEEnabled bool   `json:"ble_enabled"`
}

// DiscoveryConfig controls the LAN peer scan.
type DiscoveryConfig struct {
	Enabled             bool `json:"enabled"`
	ScanIntervalSeconds int  `json:"scan_interval_seconds"`
}

// Config is the full persisted document.
type Config struct {
	Layout    layout.Description `json:"layout"`
	Display   DisplayConfig      `json:"display"`
	Schedule  ScheduleConfig     `json:"schedule"`
	Ingress   IngressConfig      `json:"ingress"`
	Discovery DiscoveryConfig    `json:"discovery"`
}

// Default returns a small, self-consistent starting configuration: a
// single panel, safe power defaults, UDP ingress on :7777 and discovery
// enabled, and the schedule, pipe and BLE ingress disabled.
func Default() Config {
	return Config{
		Layout: layout.Description{
			Grid: layout.GridDescription{
				GridWidth: 1, GridHeight: 1,
				PanelWidth: 16, PanelHeight: 16,
				WiringPattern: string(layout.Snake),
			},
			Panels: []layout.PanelDescription{{ID: 0, Position: [2]int{0, 0}, Rotation: 0}},
		},
		Display: DisplayConfig{
			Brightness:           255,
			PowerCeilingAmps:     5,
			PowerLimitEnabled:    true,
			TargetFPS:            30,
			IdleCurrentAmps:      0,
			MaxCurrentPerLEDAmps: 0.06,
		},
		Schedule: ScheduleConfig{WakeCron: "0 7 * * *", SleepCron: "0 23 * * *", Enabled: false},
		Ingress:  IngressConfig{UDPAddr: ":7777", PipePath: "", BLEEnabled: false},
		Discovery: DiscoveryConfig{Enabled: true, ScanIntervalSeconds: 30},
	}
}

// Store loads and saves a Config document at a fixed path on disk.
type Store struct {
	path string
}

// New returns a Store backed by path. The file need not exist yet; Load
// will fail until Save has been called at least once.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads and parses the configuration document.
func (s *Store) Load() (Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Config{}, fmt.Errorf("configstore: read %s: %w", s.path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("configstore: parse %s: %w", s.path, err)
	}
	return cfg, nil
}

// Save writes cfg to disk as indented JSON, replacing any prior contents.
func (s *Store) Save(cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("configstore: marshal: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("configstore: write %s: %w", s.path, err)
	}
	return nil
}

// SaveLayout updates only the layout section of the document on disk,
// leaving the rest untouched. It implements arbiter.Persister.
func (s *Store) SaveLayout(desc layout.Description) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	cfg.Layout = desc
	return s.Save(cfg)
}
