package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hiesenoether/interpreter-go/pkg/driver"
)

var errManifestNotFound = errors.New(driver.ManifestFileName + " not found")

func findManifest(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start directory %q: %w", start, err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	origin := dir
	for {
		candidate := filepath.Join(dir, driver.ManifestFileName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found from %s upwards: %w", driver.ManifestFileName, origin, errManifestNotFound)
		}
		dir = parent
	}
}

func loadManifestFrom(start string) (*driver.Manifest, error) {
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		start = cwd
	}
	manifestPath, err := findManifest(start)
	if err != nil {
		return nil, err
	}
	return driver.LoadManifest(manifestPath)
}

// loadManifestBeside loads the manifest sitting in the same directory as
// file. Ancestor directories are not searched.
func loadManifestBeside(file string) (*driver.Manifest, error) {
	candidate := filepath.Join(filepath.Dir(file), driver.ManifestFileName)
	info, err := os.Stat(candidate)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, fmt.Errorf("no %s beside %s: %w", driver.ManifestFileName, file, errManifestNotFound)
	}
	if err != nil {
		return nil, err
	}
	return driver.LoadManifest(candidate)
}

// resolveHome returns HN_HOME, defaulting to ~/.hn.
func resolveHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv("HN_HOME")); home != "" {
		abs, err := filepath.Abs(home)
		if err != nil {
			return "", fmt.Errorf("resolve HN_HOME %q: %w", home, err)
		}
		return abs, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(userHome, ".hn"), nil
}

func looksLikePathCandidate(arg string) bool {
	if arg == "" {
		return false
	}
	if strings.Contains(arg, "/") || strings.Contains(arg, "\\") {
		return true
	}
	switch filepath.Ext(arg) {
	case driver.SourceExtension, ".json":
		return true
	}
	return strings.HasPrefix(arg, ".")
}
