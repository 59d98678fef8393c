package platform

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/notekeeper/pkg/adapters/fs"
	"github.com/aretw0/notekeeper/pkg/api"
)

const (
	// ConfigFileName is the file FindConfig looks for.
	ConfigFileName = ".notekeeper.yaml"

	// EnvAPIURL overrides the configured API origin.
	EnvAPIURL = "NOTEKEEPER_API_URL"
)

// FileConfig is the on-disk YAML configuration.
type FileConfig struct {
	APIURL       string        `yaml:"api_url"`
	Timeout      time.Duration `yaml:"timeout"`
	SessionPath  string        `yaml:"session_path"`
	StrictWrites bool          `yaml:"strict_writes"`
}

// LoadConfig reads a YAML config file. Unknown keys are rejected.
func LoadConfig(path string) (FileConfig, error) {
	var cfg FileConfig

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Timeout < 0 {
		return cfg, fmt.Errorf("invalid config %s: timeout must not be negative", path)
	}
	return cfg, nil
}

// resolved is the final configuration after applying every layer.
type resolved struct {
	baseURL      string
	timeout      time.Duration
	sessionPath  string
	strictWrites bool
}

// resolve merges, in order of precedence: explicit options, the environment,
// the config file, built-in defaults.
func resolve(o *options) (resolved, error) {
	var file FileConfig
	if o.configFile != "" {
		var err error
		file, err = LoadConfig(o.configFile)
		if err != nil {
			return resolved{}, err
		}
	}

	r := resolved{
		baseURL:      firstNonEmpty(o.baseURL, os.Getenv(EnvAPIURL), file.APIURL, api.DefaultBaseURL),
		timeout:      o.timeout,
		sessionPath:  firstNonEmpty(o.sessionPath, file.SessionPath, fs.DefaultPath()),
		strictWrites: o.strictWrites || file.StrictWrites,
	}
	if r.timeout <= 0 {
		r.timeout = file.Timeout
	}
	if r.timeout <= 0 {
		r.timeout = api.DefaultTimeout
	}
	return r, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
