package config

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Instance is the subset of the instance configuration (config.yaml) that
// indexwatch understands. Every other key is opaque and template-controlled.
type Instance struct {
	Endpoint  string `yaml:"endpoint"`
	Embedding struct {
		Model string `yaml:"model"`
	} `yaml:"embedding"`
}

// endpointLine matches the top-level endpoint scalar. Substitution is done
// textually so that every other byte of the template survives verbatim and
// the config hash stays stable across endpoint changes.
var endpointLine = regexp.MustCompile(`(?m)^endpoint:[^\n]*$`)

// SyncInstance materializes config.yaml from the template with the resolved
// endpoint substituted. The previous config.yaml is always overwritten so it
// cannot drift from the template. When the template is missing, the indexer's
// own generator is invoked and the substitution is applied in place.
func SyncInstance(s *Settings, endpoint string) error {
	data, err := os.ReadFile(s.TemplatePath())
	if os.IsNotExist(err) {
		if genErr := generateInstance(s); genErr != nil {
			return genErr
		}
		if data, err = os.ReadFile(s.ConfigPath()); err != nil {
			return fmt.Errorf("cannot read generated config %s: %w", s.ConfigPath(), err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot read template %s: %w", s.TemplatePath(), err)
	}

	out := SetEndpoint(data, endpoint)
	if err := os.WriteFile(s.ConfigPath(), out, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", s.ConfigPath(), err)
	}
	return nil
}

// generateInstance asks the indexer binary to emit a default configuration.
func generateInstance(s *Settings) error {
	c := exec.Command(s.IndexerBinary, "config", "init", "--path", s.ConfigPath())
	if out, err := c.CombinedOutput(); err != nil {
		return fmt.Errorf("config generator %q failed: %w\n%s", s.IndexerBinary, err, out)
	}
	return nil
}

// SetEndpoint replaces (or appends) the top-level endpoint line.
func SetEndpoint(data []byte, endpoint string) []byte {
	line := []byte("endpoint: " + endpoint)
	if endpointLine.Match(data) {
		return endpointLine.ReplaceAll(data, line)
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	return append(data, append(line, '\n')...)
}

// StripEndpoint removes the endpoint line. The config hash is computed over
// the stripped bytes so that moving between networks never invalidates the
// index.
func StripEndpoint(data []byte) []byte {
	return endpointLine.ReplaceAll(data, nil)
}

// LoadInstance reads and parses config.yaml.
func LoadInstance(path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	var inst Instance
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return &inst, nil
}
