// Package models - Detection model configuration.
package models

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name looked up inside a model directory.
const DefaultConfigFile = "model.yml"

const (
	// DefaultMode is the engine run mode used when the document declares none.
	DefaultMode = "fluid"
	// DefaultMinSubgraphSize is the smallest subgraph handed to TensorRT when unset.
	DefaultMinSubgraphSize = 3
	// DefaultDrawThreshold is the detection score threshold used when unset.
	DefaultDrawThreshold float32 = 0.5
)

// TransformSpec is one transform declaration as written in the configuration document.
type TransformSpec struct {
	// Name is the transform name as declared, e.g. "ResizeByShort".
	Name string
	// Params holds the raw parameter mapping. It may be nil when the transform declares none.
	Params *yaml.Node
}

// Config is the immutable configuration of a detection model.
//
// Build one with Load, LoadFile or Parse. Accessors hand out copies so the configuration can be
// shared between goroutines without synchronization.
type Config struct {
	arch            Architecture
	modelName       string
	mode            string
	minSubgraphSize int
	drawThreshold   float32
	withBackground  bool
	transforms      []TransformSpec
	labels          []string
}

// Arch returns the resolved architecture family.
func (c *Config) Arch() Architecture { return c.arch }

// ModelName returns the model name exactly as declared.
func (c *Config) ModelName() string { return c.modelName }

// Mode returns the engine run mode, e.g. "fluid" or "trt_fp16".
func (c *Config) Mode() string { return c.mode }

// MinSubgraphSize returns the minimum subgraph size for TensorRT partitioning.
func (c *Config) MinSubgraphSize() int { return c.minSubgraphSize }

// DrawThreshold returns the detection score threshold.
func (c *Config) DrawThreshold() float32 { return c.drawThreshold }

// WithBackground reports whether the label table's class 0 is a background class.
func (c *Config) WithBackground() bool { return c.withBackground }

// Transforms returns the transform declarations in declared order.
func (c *Config) Transforms() []TransformSpec {
	out := make([]TransformSpec, len(c.transforms))
	copy(out, c.transforms)
	return out
}

// Labels returns the label table, indexed by class id.
func (c *Config) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Load reads the configuration document of a model directory.
//
// Arguments:
//   - dir: The model directory.
//   - file: The configuration file name inside dir. Empty selects DefaultConfigFile.
//
// Returns:
//   - *Config: The parsed configuration.
//   - error: A read error, or a *ConfigError when the document is incomplete or malformed.
func Load(dir, file string) (*Config, error) {
	if file == "" {
		file = DefaultConfigFile
	}
	return LoadFile(filepath.Join(dir, file))
}

// LoadFile reads and parses a configuration document from path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read model config %s", path)
	}
	return Parse(data)
}

// Parse builds a Config from a YAML (or JSON) document.
//
// The keys Model, Transforms and _Attributes.labels are mandatory. mode, min_subgraph_size,
// draw_threshold and with_background fall back to their defaults when absent.
//
// Arguments:
//   - data: The raw document.
//
// Returns:
//   - *Config: The parsed configuration.
//   - error: A *ConfigError wrapping ErrMissingField or ErrMalformedField.
func Parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Field: "", Err: errors.Wrap(ErrMalformedField, err.Error())}
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, &ConfigError{Field: "", Err: errors.Wrap(ErrMalformedField, "document is not a mapping")}
	}

	cfg := &Config{
		mode:            DefaultMode,
		minSubgraphSize: DefaultMinSubgraphSize,
		drawThreshold:   DefaultDrawThreshold,
	}

	if err := decodeOptional(root, "mode", &cfg.mode); err != nil {
		return nil, err
	}

	model := mappingValue(root, "Model")
	if model == nil {
		return nil, missing("Model")
	}
	if err := model.Decode(&cfg.modelName); err != nil || model.Kind != yaml.ScalarNode {
		return nil, malformed("Model", err)
	}
	cfg.arch = ResolveArchitecture(cfg.modelName)

	if err := decodeOptional(root, "min_subgraph_size", &cfg.minSubgraphSize); err != nil {
		return nil, err
	}
	if cfg.minSubgraphSize <= 0 {
		return nil, malformed("min_subgraph_size", fmt.Errorf("must be positive, got %d", cfg.minSubgraphSize))
	}

	if err := decodeOptional(root, "draw_threshold", &cfg.drawThreshold); err != nil {
		return nil, err
	}
	if cfg.drawThreshold < 0 || cfg.drawThreshold > 1 {
		return nil, malformed("draw_threshold", fmt.Errorf("must lie in [0, 1], got %v", cfg.drawThreshold))
	}

	if err := decodeOptional(root, "with_background", &cfg.withBackground); err != nil {
		return nil, err
	}

	transforms := mappingValue(root, "Transforms")
	if transforms == nil {
		return nil, missing("Transforms")
	}
	specs, err := parseTransforms(transforms)
	if err != nil {
		return nil, err
	}
	cfg.transforms = specs

	attrs := mappingValue(root, "_Attributes")
	if attrs == nil {
		return nil, missing("_Attributes.labels")
	}
	labels := mappingValue(attrs, "labels")
	if labels == nil {
		return nil, missing("_Attributes.labels")
	}
	if err := labels.Decode(&cfg.labels); err != nil {
		return nil, malformed("_Attributes.labels", err)
	}

	return cfg, nil
}

// parseTransforms accepts either a sequence of single-key mappings or a plain mapping, and keeps
// the declared order in both cases.
func parseTransforms(node *yaml.Node) ([]TransformSpec, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		specs := make([]TransformSpec, 0, len(node.Content))
		for i, item := range node.Content {
			if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
				return nil, malformed(
					fmt.Sprintf("Transforms[%d]", i),
					fmt.Errorf("expected a single-key mapping"),
				)
			}
			specs = append(specs, transformSpec(item.Content[0], item.Content[1]))
		}
		return specs, nil
	case yaml.MappingNode:
		specs := make([]TransformSpec, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			specs = append(specs, transformSpec(node.Content[i], node.Content[i+1]))
		}
		return specs, nil
	default:
		return nil, malformed("Transforms", fmt.Errorf("expected a sequence or mapping"))
	}
}

func transformSpec(key, value *yaml.Node) TransformSpec {
	spec := TransformSpec{Name: key.Value}
	if value != nil && value.Tag != "!!null" {
		spec.Params = value
	}
	return spec
}

// mappingValue returns the value node stored under key, or nil when the key is absent or null.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != key {
			continue
		}
		value := node.Content[i+1]
		if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
			return nil
		}
		return value
	}
	return nil
}

func decodeOptional(root *yaml.Node, key string, out interface{}) error {
	node := mappingValue(root, key)
	if node == nil {
		return nil
	}
	if err := node.Decode(out); err != nil {
		return malformed(key, err)
	}
	return nil
}
