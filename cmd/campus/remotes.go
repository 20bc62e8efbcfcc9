package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// RemotesConfig is the on-disk list of named servers.
type RemotesConfig struct {
	Active  string            `toml:"active"`
	Remotes map[string]Remote `toml:"remotes"`
}

// Remote is one named campus server.
type Remote struct {
	URL     string `toml:"url"`
	NATSURL string `toml:"nats_url,omitempty"`
}

// remotesPath locates the remotes file. Tests point it at a temp dir.
var remotesPath = func() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "campus", "remotes.toml"), nil
}

func readRemotes() (RemotesConfig, error) {
	cfg := RemotesConfig{Remotes: map[string]Remote{}}
	path, err := remotesPath()
	if err != nil {
		return cfg, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if cfg.Remotes == nil {
		cfg.Remotes = map[string]Remote{}
	}
	return cfg, nil
}

// writeRemotes replaces the remotes file through a rename so a crash never
// leaves it half written.
func writeRemotes(cfg RemotesConfig) error {
	path, err := remotesPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding remotes: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".remotes-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// editRemotes applies fn to the stored remotes and saves the result unless
// fn fails.
func editRemotes(fn func(*RemotesConfig) error) error {
	cfg, err := readRemotes()
	if err != nil {
		return err
	}
	if err := fn(&cfg); err != nil {
		return err
	}
	return writeRemotes(cfg)
}

// activeRemote returns the selected remote, or the zero Remote when none is
// selected or the file cannot be read.
func activeRemote() Remote {
	cfg, err := readRemotes()
	if err != nil || cfg.Active == "" {
		return Remote{}
	}
	return cfg.Remotes[cfg.Active]
}

// normalizeURL checks that raw is an absolute URL with one of schemes and
// strips any trailing slash.
func normalizeURL(raw string, schemes ...string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if !slices.Contains(schemes, u.Scheme) || u.Host == "" {
		return "", fmt.Errorf("invalid URL %q: want %s://host", raw, strings.Join(schemes, ":// or "))
	}
	return strings.TrimRight(u.String(), "/"), nil
}
