package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"

	"github.com/stlalpha/petscii/internal/palette"
)

// ScreenConfig describes one screen in the rotation. Exactly one of File or
// Command supplies the text.
type ScreenConfig struct {
	Name           string   `json:"name"`
	File           string   `json:"file,omitempty"`    // relative to screensPath
	Command        string   `json:"command,omitempty"` // run under a pty, output becomes the text
	Args           []string `json:"args,omitempty"`
	Fold           bool     `json:"fold,omitempty"` // map unsupported characters into the charset
	Color          int      `json:"color"`          // starting text color
	X              int      `json:"x"`
	Y              int      `json:"y"`
	Formatted      bool     `json:"formatted"` // interpret {TOKEN} sequences
	TimeoutSeconds int      `json:"timeoutSeconds,omitempty"`
}

// defaultScreen holds the values a screen entry gets for omitted fields.
func defaultScreen() ScreenConfig {
	return ScreenConfig{
		Color:     palette.LightBlue,
		Formatted: true,
	}
}

// UnmarshalJSON fills omitted fields from defaultScreen.
func (s *ScreenConfig) UnmarshalJSON(data []byte) error {
	type plain ScreenConfig
	p := plain(defaultScreen())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = ScreenConfig(p)
	return nil
}

// ServerConfig defines server-wide settings
type ServerConfig struct {
	ScreenWidth     int `json:"screenWidth"`
	ScreenHeight    int `json:"screenHeight"`
	BorderColor     int `json:"borderColor"`
	BackgroundColor int `json:"backgroundColor"`
	CursorColor     int `json:"cursorColor"`

	SSHEnabled          bool   `json:"sshEnabled"`
	SSHHost             string `json:"sshHost"`
	SSHPort             int    `json:"sshPort"`
	SSHHostKeyPath      string `json:"sshHostKeyPath"`      // relative to the config directory
	LegacySSHAlgorithms bool   `json:"legacySSHAlgorithms"` // allow old kex/cipher suites for retro clients

	TelnetEnabled bool   `json:"telnetEnabled"`
	TelnetHost    string `json:"telnetHost"`
	TelnetPort    int    `json:"telnetPort"`

	ScreensPath           string         `json:"screensPath"` // relative to the config directory
	Screens               []ScreenConfig `json:"screens"`
	RotationSchedule      string         `json:"rotationSchedule"`    // cron with seconds, empty disables rotation
	RotationHistoryPath   string         `json:"rotationHistoryPath"` // relative to the config directory
	WatchScreens          bool           `json:"watchScreens"`
	MaxSessions           int            `json:"maxSessions"`
	MaxSessionsPerHost    int            `json:"maxSessionsPerHost"`
	CommandTimeoutSeconds int            `json:"commandTimeoutSeconds"`
}

// Default returns the settings used when config.json is absent.
func Default() ServerConfig {
	return ServerConfig{
		ScreenWidth:           40,
		ScreenHeight:          25,
		BorderColor:           palette.LightBlue,
		BackgroundColor:       palette.Blue,
		CursorColor:           palette.LightBlue,
		SSHEnabled:            true,
		SSHHost:               "0.0.0.0",
		SSHPort:               2464,
		SSHHostKeyPath:        "ssh_host_ed25519_key",
		TelnetEnabled:         true,
		TelnetHost:            "0.0.0.0",
		TelnetPort:            6464,
		ScreensPath:           "screens",
		RotationHistoryPath:   "rotation_history.json",
		WatchScreens:          true,
		MaxSessions:           10,
		MaxSessionsPerHost:    3,
		CommandTimeoutSeconds: DefaultCommandTimeoutSeconds,
	}
}

// DefaultCommandTimeoutSeconds bounds a command screen when nothing else does.
const DefaultCommandTimeoutSeconds = 5

// LoadServerConfig loads config.json from configPath over the defaults and
// resolves relative paths against configPath.
func LoadServerConfig(configPath string) (ServerConfig, error) {
	filePath := filepath.Join(configPath, "config.json")
	log.Printf("INFO: Loading server configuration from %s", filePath)

	defaultConfig := Default()
	defaultConfig.resolvePaths(configPath)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("WARN: config.json not found at %s. Using default settings.", filePath)
			return defaultConfig, nil
		}
		return defaultConfig, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	config := Default()
	if err := json.Unmarshal(data, &config); err != nil {
		log.Printf("ERROR: Failed to parse config JSON from %s: %v. Using default settings.", filePath, err)
		return defaultConfig, fmt.Errorf("failed to parse config JSON from %s: %w", filePath, err)
	}
	config.resolvePaths(configPath)

	log.Printf("INFO: Loaded server configuration from %s: %dx%d, %d screen(s)",
		filePath, config.ScreenWidth, config.ScreenHeight, len(config.Screens))
	return config, nil
}

func (c *ServerConfig) resolvePaths(configPath string) {
	if c.SSHHostKeyPath != "" && !filepath.IsAbs(c.SSHHostKeyPath) {
		c.SSHHostKeyPath = filepath.Join(configPath, c.SSHHostKeyPath)
	}
	if !filepath.IsAbs(c.ScreensPath) {
		c.ScreensPath = filepath.Join(configPath, c.ScreensPath)
	}
	if c.RotationHistoryPath != "" && !filepath.IsAbs(c.RotationHistoryPath) {
		c.RotationHistoryPath = filepath.Join(configPath, c.RotationHistoryPath)
	}
}

// ScreenFile returns the path of a file-backed screen, or "" for a command
// screen.
func (c ServerConfig) ScreenFile(s ScreenConfig) string {
	if s.File == "" {
		return ""
	}
	if filepath.IsAbs(s.File) {
		return s.File
	}
	return filepath.Join(c.ScreensPath, s.File)
}

// Screen finds a screen entry by name.
func (c ServerConfig) Screen(name string) (ScreenConfig, bool) {
	for _, s := range c.Screens {
		if s.Name == name {
			return s, true
		}
	}
	return ScreenConfig{}, false
}

// Validate reports every problem found in the configuration.
func (c ServerConfig) Validate() error {
	var errs []error
	if c.ScreenWidth <= 0 || c.ScreenHeight <= 0 {
		errs = append(errs, fmt.Errorf("invalid screen size %dx%d", c.ScreenWidth, c.ScreenHeight))
	}
	for _, cc := range []struct {
		name  string
		value int
	}{
		{"borderColor", c.BorderColor},
		{"backgroundColor", c.BackgroundColor},
		{"cursorColor", c.CursorColor},
	} {
		if !palette.Valid(cc.value) {
			errs = append(errs, fmt.Errorf("%s %d is not a palette color", cc.name, cc.value))
		}
	}
	if c.SSHEnabled && (c.SSHPort <= 0 || c.SSHPort > 65535) {
		errs = append(errs, fmt.Errorf("invalid sshPort %d", c.SSHPort))
	}
	if c.TelnetEnabled && (c.TelnetPort <= 0 || c.TelnetPort > 65535) {
		errs = append(errs, fmt.Errorf("invalid telnetPort %d", c.TelnetPort))
	}
	if c.MaxSessions < 0 || c.MaxSessionsPerHost < 0 {
		errs = append(errs, fmt.Errorf("session limits must not be negative"))
	}
	if c.CommandTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("commandTimeoutSeconds must be positive, got %d", c.CommandTimeoutSeconds))
	}
	if c.RotationSchedule != "" {
		if _, err := cron.NewParser(CronFields).Parse(c.RotationSchedule); err != nil {
			errs = append(errs, fmt.Errorf("invalid rotationSchedule %q: %w", c.RotationSchedule, err))
		}
	}

	seen := make(map[string]bool, len(c.Screens))
	for i, s := range c.Screens {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("screen %d has no name", i))
		} else if seen[s.Name] {
			errs = append(errs, fmt.Errorf("duplicate screen name %q", s.Name))
		}
		seen[s.Name] = true

		switch {
		case s.File == "" && s.Command == "":
			errs = append(errs, fmt.Errorf("screen %q has neither file nor command", s.Name))
		case s.File != "" && s.Command != "":
			errs = append(errs, fmt.Errorf("screen %q has both file and command", s.Name))
		}
		if s.TimeoutSeconds < 0 {
			errs = append(errs, fmt.Errorf("screen %q: timeoutSeconds must not be negative", s.Name))
		}
		if !palette.Valid(s.Color) {
			errs = append(errs, fmt.Errorf("screen %q: color %d is not a palette color", s.Name, s.Color))
		}
	}
	return errors.Join(errs...)
}

// CronFields is the schedule syntax accepted for rotationSchedule: standard
// five fields with an optional leading seconds field, plus descriptors.
const CronFields = cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor
