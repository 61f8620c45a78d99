package parallel

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Limit is a level limit read from configuration. It accepts a
// non-negative integer or the word "unbounded".
type Limit int

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Limit) UnmarshalYAML(value *yaml.Node) error {
	if strings.EqualFold(strings.TrimSpace(value.Value), "unbounded") {
		*l = Limit(Unbounded)
		return nil
	}

	var n int
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("line %d: limit must be an integer or \"unbounded\": %w", value.Line, err)
	}

	*l = Limit(n)

	return nil
}

// Config is the file form of a Builder.
//
//	shared_pool: true
//	pool_size: 8
//	suites: 2
//	classes: unbounded
//	methods: 0
type Config struct {
	// SharedPool selects one pool for all levels.
	SharedPool bool `yaml:"shared_pool"`
	// PoolSize is the size of the shared pool; 0 sizes it to the sum of
	// the level limits.
	PoolSize Limit `yaml:"pool_size"`

	Suites  Limit `yaml:"suites"`
	Classes Limit `yaml:"classes"`
	Methods Limit `yaml:"methods"`
}

// ParseConfig decodes a Config from YAML.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse parallel config: %w", err)
	}

	return cfg, nil
}

// LoadConfig reads and decodes the YAML file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parallel config: %w", err)
	}

	return ParseConfig(data)
}

// NewBuilderFromConfig creates a Builder configured by cfg. Invalid values
// are reported by BuildComputer.
func NewBuilderFromConfig(cfg *Config) *Builder {
	b := NewBuilder().
		ParallelSuites(int(cfg.Suites)).
		ParallelClasses(int(cfg.Classes)).
		ParallelMethods(int(cfg.Methods))

	if cfg.SharedPool {
		size := int(cfg.PoolSize)
		if size == 0 {
			size = sumLimits(int(cfg.Suites), int(cfg.Classes), int(cfg.Methods))
		}

		b.UseOnePool(size)
	}

	return b
}

func sumLimits(limits ...int) int {
	sum := 0

	for _, l := range limits {
		if l >= Unbounded-sum {
			return Unbounded
		}

		sum += l
	}

	return sum
}
