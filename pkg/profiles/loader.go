package profiles

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	DefaultUpdateIntervalSec = 3
	DefaultTimeoutMs         = 10000
	DefaultMaxPeers          = 10000
)

var envRef = regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)

// LoadAll reads every *.yaml in dir; the file name without extension is the
// profile name. ${VAR} references are expanded from the environment.
func LoadAll(dir string, logger *zap.Logger) (map[string]Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := map[string]Profile{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		b = envRef.ReplaceAllFunc(b, func(m []byte) []byte {
			k := string(envRef.FindSubmatch(m)[1])
			val := os.Getenv(k)
			if val == "" {
				logger.Warn("env variable is empty during profile expansion",
					zap.String("file", e.Name()),
					zap.String("var", k))
			}
			return []byte(val)
		})

		var p Profile
		if err := yaml.Unmarshal(b, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		p.Name = strings.TrimSuffix(e.Name(), ".yaml")
		if err := p.normalize(); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out[p.Name] = p
	}
	return out, nil
}

// FromURL builds a profile for a daemon given directly on the command line
// or in the environment.
func FromURL(name, rawURL string) (Profile, error) {
	p := Profile{Name: name, URL: rawURL}
	return p, p.normalize()
}

func (p *Profile) normalize() error {
	u, err := url.Parse(p.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid daemon url %q", p.URL)
	}
	if p.UpdateIntervalSec <= 0 {
		p.UpdateIntervalSec = DefaultUpdateIntervalSec
	}
	if p.TimeoutMs <= 0 {
		p.TimeoutMs = DefaultTimeoutMs
	}
	if p.MaxPeers <= 0 {
		p.MaxPeers = DefaultMaxPeers
	}
	return nil
}
