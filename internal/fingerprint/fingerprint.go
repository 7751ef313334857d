// Package fingerprint derives the (model, indexer version, config hash)
// tuple describing the desired index state and decides when the on-disk
// index can no longer be trusted.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/kodflow/indexwatch/internal/config"
)

// Fingerprint identifies the inputs the index was (or would be) built from.
// It is recomputed from disk on every use and never cached.
type Fingerprint struct {
	Model          string
	IndexerVersion string
	ConfigHash     string
}

// Compute derives the current fingerprint from config.yaml and the
// installed indexer binary.
func Compute(s *config.Settings) (Fingerprint, error) {
	inst, err := config.LoadInstance(s.ConfigPath())
	if err != nil {
		return Fingerprint{}, err
	}
	if inst.Embedding.Model == "" {
		return Fingerprint{}, fmt.Errorf("no embedding model in %s", s.ConfigPath())
	}
	version, err := IndexerVersion(s.IndexerBinary)
	if err != nil {
		return Fingerprint{}, err
	}
	hash, err := ConfigHash(s.ConfigPath())
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint{Model: inst.Embedding.Model, IndexerVersion: version, ConfigHash: hash}, nil
}

// ConfigHash hashes the instance configuration with the endpoint line
// excluded, so a network move never looks like a config change.
func ConfigHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read config %s: %w", path, err)
	}
	sum := sha256.Sum256(config.StripEndpoint(data))
	return hex.EncodeToString(sum[:]), nil
}

var versionToken = regexp.MustCompile(`v?\d+\.\d+(\.\d+)?(-[0-9A-Za-z.-]+)?`)

// IndexerVersion runs `<binary> --version` and extracts the version token.
func IndexerVersion(binary string) (string, error) {
	out, err := exec.Command(binary, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("cannot run %s --version: %w", binary, err)
	}
	if tok := versionToken.FindString(string(out)); tok != "" {
		return tok, nil
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	if line == "" {
		return "", fmt.Errorf("%s --version produced no output", binary)
	}
	return line, nil
}
