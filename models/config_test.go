package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yoloConfig = `
Model: YOLOv3
mode: trt_fp16
draw_threshold: 0.3
with_background: false
Transforms:
- Normalize:
    mean: [0.485, 0.456, 0.406]
    std: [0.229, 0.224, 0.225]
- ResizeByShort:
    target_size: 416
    max_size: 608
    interp: CUBIC
- Permute:
    to_bgr: false
_Attributes:
  labels: [person, bicycle, car]
`

// TestParseConfig validates that a complete document is parsed with its declared values.
func TestParseConfig(t *testing.T) {
	cfg, err := Parse([]byte(yoloConfig))
	require.NoError(t, err)

	assert.Equal(t, ArchYOLO, cfg.Arch())
	assert.Equal(t, "YOLOv3", cfg.ModelName())
	assert.Equal(t, "trt_fp16", cfg.Mode())
	assert.Equal(t, DefaultMinSubgraphSize, cfg.MinSubgraphSize())
	assert.InDelta(t, 0.3, cfg.DrawThreshold(), 1e-6)
	assert.False(t, cfg.WithBackground())
	assert.Equal(t, []string{"person", "bicycle", "car"}, cfg.Labels())

	transforms := cfg.Transforms()
	require.Len(t, transforms, 3)
	assert.Equal(t, "Normalize", transforms[0].Name)
	assert.Equal(t, "ResizeByShort", transforms[1].Name)
	assert.Equal(t, "Permute", transforms[2].Name)
	require.NotNil(t, transforms[1].Params)

	var resize struct {
		TargetSize int    `yaml:"target_size"`
		MaxSize    int    `yaml:"max_size"`
		Interp     string `yaml:"interp"`
	}
	require.NoError(t, transforms[1].Params.Decode(&resize))
	assert.Equal(t, 416, resize.TargetSize)
	assert.Equal(t, 608, resize.MaxSize)
	assert.Equal(t, "CUBIC", resize.Interp)
}

// TestParseConfigDefaults validates the fallback values of the optional keys.
func TestParseConfigDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
Model: SSDLite
Transforms:
  Resize: {target_size: 300}
  Permute: ~
_Attributes:
  labels: [background, cat]
`))
	require.NoError(t, err)

	assert.Equal(t, ArchSSD, cfg.Arch())
	assert.Equal(t, DefaultMode, cfg.Mode())
	assert.Equal(t, 3, cfg.MinSubgraphSize())
	assert.Equal(t, float32(0.5), cfg.DrawThreshold())
	assert.False(t, cfg.WithBackground())

	transforms := cfg.Transforms()
	require.Len(t, transforms, 2)
	assert.Equal(t, "Resize", transforms[0].Name)
	assert.NotNil(t, transforms[0].Params)
	assert.Equal(t, "Permute", transforms[1].Name)
	assert.Nil(t, transforms[1].Params)
}

// TestParseConfigErrors validates that incomplete or malformed documents yield a ConfigError.
func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		field    string
		sentinel error
	}{
		{
			name:     "missing Transforms",
			doc:      "Model: YOLOv3\n_Attributes:\n  labels: [a]\n",
			field:    "Transforms",
			sentinel: ErrMissingField,
		},
		{
			name:     "missing Model",
			doc:      "Transforms: []\n_Attributes:\n  labels: [a]\n",
			field:    "Model",
			sentinel: ErrMissingField,
		},
		{
			name:     "missing attributes",
			doc:      "Model: YOLOv3\nTransforms: []\n",
			field:    "_Attributes.labels",
			sentinel: ErrMissingField,
		},
		{
			name:     "missing labels",
			doc:      "Model: YOLOv3\nTransforms: []\n_Attributes:\n  other: 1\n",
			field:    "_Attributes.labels",
			sentinel: ErrMissingField,
		},
		{
			name:     "null labels",
			doc:      "Model: YOLOv3\nTransforms: []\n_Attributes:\n  labels:\n",
			field:    "_Attributes.labels",
			sentinel: ErrMissingField,
		},
		{
			name:     "null Model",
			doc:      "Model:\nTransforms: []\n_Attributes:\n  labels: [a]\n",
			field:    "Model",
			sentinel: ErrMissingField,
		},
		{
			name:     "null Transforms",
			doc:      "Model: YOLOv3\nTransforms: ~\n_Attributes:\n  labels: [a]\n",
			field:    "Transforms",
			sentinel: ErrMissingField,
		},
		{
			name:     "non numeric threshold",
			doc:      "Model: YOLOv3\ndraw_threshold: high\nTransforms: []\n_Attributes:\n  labels: [a]\n",
			field:    "draw_threshold",
			sentinel: ErrMalformedField,
		},
		{
			name:     "threshold out of range",
			doc:      "Model: YOLOv3\ndraw_threshold: 1.5\nTransforms: []\n_Attributes:\n  labels: [a]\n",
			field:    "draw_threshold",
			sentinel: ErrMalformedField,
		},
		{
			name:     "zero subgraph size",
			doc:      "Model: YOLOv3\nmin_subgraph_size: 0\nTransforms: []\n_Attributes:\n  labels: [a]\n",
			field:    "min_subgraph_size",
			sentinel: ErrMalformedField,
		},
		{
			name:     "scalar transforms",
			doc:      "Model: YOLOv3\nTransforms: Resize\n_Attributes:\n  labels: [a]\n",
			field:    "Transforms",
			sentinel: ErrMalformedField,
		},
		{
			name:     "not a mapping",
			doc:      "- just\n- a list\n",
			field:    "",
			sentinel: ErrMalformedField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, cfg)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected *ConfigError, got %T", err)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.True(t, errors.Is(err, tt.sentinel))
		})
	}
}

// TestResolveArchitecture validates the substring scan and its priority order.
func TestResolveArchitecture(t *testing.T) {
	tests := map[string]Architecture{
		"YOLOv3":           ArchYOLO,
		"FasterRCNN":       ArchRCNN,
		"CascadeRCNN":      ArchRCNN,
		"RetinaNet":        ArchRetinaNet,
		"SSDLiteMobileNet": ArchSSD,
		"YOLO_SSD":         ArchYOLO,
		"ssd":              ArchUnknown,
		"FCOS":             ArchUnknown,
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, ResolveArchitecture(name))
		})
	}
	assert.Equal(t, "UNKNOWN", ArchUnknown.String())
	assert.True(t, ArchSSD.IsSSD())
}

// TestLoadConfig validates loading model.yml from a model directory.
func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(yoloConfig), 0o600))

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, ArchYOLO, cfg.Arch())

	_, err = Load(t.TempDir(), "")
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.False(t, errors.As(err, &cfgErr), "I/O failures are not configuration errors")
}

// TestConfigAccessorsCopy validates that callers cannot mutate the configuration.
func TestConfigAccessorsCopy(t *testing.T) {
	cfg, err := Parse([]byte(yoloConfig))
	require.NoError(t, err)

	labels := cfg.Labels()
	labels[0] = "changed"
	assert.Equal(t, "person", cfg.Labels()[0])
}
