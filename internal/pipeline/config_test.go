package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `image_path: reg001_expr.npy
use_wsi: true
MPP: 0.377
channels:
  - name: Hoechst1
    number: 0
  - name: Cytokeratin
    number: 7
markers:
  - name: CD3
  - CD20
`

func TestLoadSampleConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o644))

	cfg, err := LoadSampleConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "reg001_expr.npy", cfg.ImagePath)
	assert.True(t, cfg.UseWSI)
	assert.InDelta(t, 0.377, cfg.MPP, 1e-9)
	require.Len(t, cfg.Channels, 2)
	assert.Equal(t, ChannelSpec{Name: "Hoechst1", Number: 0}, cfg.Channels[0])
	assert.Equal(t, ChannelSpec{Name: "Cytokeratin", Number: 7}, cfg.Channels[1])
	assert.Equal(t, []string{"CD3", "CD20"}, cfg.MarkerNames())
}

func TestLoadSampleConfigJSON(t *testing.T) {
	body := `{"image_path": "img.npy", "use_wsi": false, "MPP": 0.5,
		"channels": [{"name": "A", "number": 1}, {"name": "B", "number": 2}],
		"markers": ["CD3", {"name": "CD20"}]}`
	path := filepath.Join(t.TempDir(), "pipelineConfig.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadSampleConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "img.npy", cfg.ImagePath)
	assert.False(t, cfg.UseWSI)
	assert.Equal(t, []string{"CD3", "CD20"}, cfg.MarkerNames())
}

func TestLoadSampleConfigValidation(t *testing.T) {
	dir := t.TempDir()

	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	_, err := LoadSampleConfig(write("a_config.yaml", "channels: []\nimage_path: x.npy\n"))
	assert.ErrorIs(t, err, ErrConfig, "fewer than two channels")

	_, err = LoadSampleConfig(write("b_config.yaml", "channels:\n  - {name: A, number: 0}\n  - {name: B, number: 1}\n"))
	assert.ErrorIs(t, err, ErrConfig, "missing image_path")

	_, err = LoadSampleConfig(write("c_config.yaml", "image_path: x.npy\nchannels:\n  - {name: A, number: -1}\n  - {name: B, number: 1}\n"))
	assert.ErrorIs(t, err, ErrConfig, "negative channel index")

	_, err = LoadSampleConfig(write("d_config.yaml", "channels: [unclosed"))
	assert.ErrorIs(t, err, ErrConfig, "unparsable file")
}

func TestFindConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := FindConfig(dir)
	assert.ErrorIs(t, err, ErrConfig, "no config file")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("x"), 0o644))
	path, err := FindConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pipelineConfig.json"), []byte("x"), 0o644))
	_, err = FindConfig(dir)
	assert.ErrorIs(t, err, ErrConfig, "ambiguous config files")
}
