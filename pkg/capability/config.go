package capability

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk surface configuration. It cannot declare types
// (reachability is code-declared), but it can extend the allowlist with
// extension assemblies the deployment explicitly trusts.
type Config struct {
	// ExtensionAssemblies are additional allowlist entries (names or
	// prefixes) beyond the hosting framework's own assemblies.
	ExtensionAssemblies []string `yaml:"extensionAssemblies"`
}

// LoadConfig reads a YAML surface configuration from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read surface config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse surface config: %w", err)
	}
	return &cfg, nil
}

// Apply adds the config's extension assemblies to the surface allowlist.
func (c *Config) Apply(s *Surface) {
	if len(c.ExtensionAssemblies) > 0 {
		s.Allow(c.ExtensionAssemblies...)
	}
}
