package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Preferences holds per-user dashboard settings.
type Preferences struct {
	Dashboard DashboardPrefs `toml:"dashboard"`
	Storage   StoragePrefs   `toml:"storage"`
}

// DashboardPrefs holds front-end defaults.
type DashboardPrefs struct {
	Theme       string `toml:"theme"`
	DefaultMode string `toml:"default_mode"`
	TopN        int    `toml:"top_n"`
}

// StoragePrefs overrides where the terminal client finds the ledger.
type StoragePrefs struct {
	DBPath string `toml:"db_path,omitempty"`
}

// DefaultPreferences returns the built-in preferences.
func DefaultPreferences() Preferences {
	return Preferences{
		Dashboard: DashboardPrefs{
			Theme:       "dark",
			DefaultMode: "daily",
			TopN:        5,
		},
	}
}

// PrefsDir returns the XDG-compliant config directory.
func PrefsDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "budgetbook")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "budgetbook")
}

// PrefsPath returns the full path to the preferences file.
func PrefsPath() string {
	return filepath.Join(PrefsDir(), "dashboard.toml")
}

// LoadPreferences reads the preferences file, returning defaults if it doesn't exist.
func LoadPreferences() (Preferences, error) {
	prefs := DefaultPreferences()

	data, err := os.ReadFile(PrefsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("reading preferences: %w", err)
	}

	if err := toml.Unmarshal(data, &prefs); err != nil {
		return prefs, fmt.Errorf("parsing preferences: %w", err)
	}
	if prefs.Dashboard.TopN < 1 {
		prefs.Dashboard.TopN = DefaultPreferences().Dashboard.TopN
	}
	return prefs, nil
}

// SavePreferences writes the preferences to disk.
func SavePreferences(prefs Preferences) error {
	dir := PrefsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(PrefsPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating preferences file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(prefs)
}
