package version

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed specs/*.yaml
var specFS embed.FS

// SpecManifest describes what a HostLink protocol version requires.
type SpecManifest struct {
	Version     string       `yaml:"version"`
	Description string       `yaml:"description"`
	Operations  OperationSet `yaml:"operations"`
	Limits      LimitSpec    `yaml:"limits"`
}

// OperationSet lists the mandatory and optional operations of a
// protocol version.
type OperationSet struct {
	Mandatory []string `yaml:"mandatory"`
	Optional  []string `yaml:"optional"`
}

// LimitSpec carries the protocol limits of a version.
type LimitSpec struct {
	MaxMessageSize uint32 `yaml:"maxMessageSize"`
	DefaultPort    uint16 `yaml:"defaultPort"`
}

// ---------------------------------------------------------------------------
// Cache
// ---------------------------------------------------------------------------

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]*SpecManifest)
)

// LoadSpec loads a spec manifest by version string (e.g. "1.0").
func LoadSpec(ver string) (*SpecManifest, error) {
	cacheMu.RLock()
	if s, ok := cache[ver]; ok {
		cacheMu.RUnlock()
		return s, nil
	}
	cacheMu.RUnlock()

	data, err := specFS.ReadFile("specs/" + ver + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("spec version %q not found: %w", ver, err)
	}

	var m SpecManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing spec %q: %w", ver, err)
	}

	cacheMu.Lock()
	cache[ver] = &m
	cacheMu.Unlock()

	return &m, nil
}

// LoadCurrentSpec loads the manifest for the current protocol version.
func LoadCurrentSpec() (*SpecManifest, error) {
	return LoadSpec(Current)
}

// AvailableSpecs returns the version strings of all embedded spec manifests.
func AvailableSpecs() ([]string, error) {
	entries, err := specFS.ReadDir("specs")
	if err != nil {
		return nil, fmt.Errorf("reading specs directory: %w", err)
	}

	var versions []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") {
			versions = append(versions, strings.TrimSuffix(name, ".yaml"))
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// MandatoryOperations returns the mandatory operations, sorted.
func (s *SpecManifest) MandatoryOperations() []string {
	out := append([]string(nil), s.Operations.Mandatory...)
	sort.Strings(out)
	return out
}

// SupportsOperation reports whether the version names the operation,
// mandatory or optional.
func (s *SpecManifest) SupportsOperation(op string) bool {
	for _, o := range s.Operations.Mandatory {
		if o == op {
			return true
		}
	}
	for _, o := range s.Operations.Optional {
		if o == op {
			return true
		}
	}
	return false
}
