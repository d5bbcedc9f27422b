package config_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

func TestParseProperties(t *testing.T) {
	values, err := config.ParseProperties(`
# renderer settings
rendering.ssao = true
rendering.blur.intensity = 1.5
display.resolution = 1280x720
`)
	require.NoError(t, err)

	assert.True(t, values["rendering.ssao"].RawEquals(cty.True))
	assert.True(t, values["rendering.blur.intensity"].RawEquals(cty.NumberFloatVal(1.5)))
	assert.Equal(t, "1280x720", values["display.resolution"].AsString())
}

func TestParseTOML(t *testing.T) {
	values, err := config.ParseTOML([]byte(`
[rendering]
ssao = false
wireframe = true

[rendering.blur]
intensity = 2
`))
	require.NoError(t, err)

	assert.Len(t, values, 3)
	assert.True(t, values["rendering.ssao"].RawEquals(cty.False))
	assert.True(t, values["rendering.wireframe"].RawEquals(cty.True))
	assert.True(t, values["rendering.blur.intensity"].RawEquals(cty.NumberIntVal(2)))
}

func TestParseYAML(t *testing.T) {
	values, err := config.ParseYAML([]byte(`
rendering:
  ssao: true
  blur:
    intensity: 0
display:
  resolution: 800x600
`))
	require.NoError(t, err)

	assert.True(t, values["rendering.ssao"].RawEquals(cty.True))
	assert.True(t, values["rendering.blur.intensity"].RawEquals(cty.NumberIntVal(0)))
	assert.Equal(t, "800x600", values["display.resolution"].AsString())
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		file    string
		content string
		wantErr bool
	}{
		{"a.properties", "rendering.ssao=true\n", false},
		{"b.toml", "[rendering]\nssao = true\n", false},
		{"c.yml", "rendering:\n  ssao: true\n", false},
		{"d.yaml", "rendering:\n  ssao: true\n", false},
		{"e.json", `{"rendering": {"ssao": true}}`, true},
		{"f.toml", "[rendering\n", true},
	}
	for _, tc := range testCases {
		t.Run(tc.file, func(t *testing.T) {
			path := filepath.Join(dir, tc.file)
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			values, err := config.LoadSettings(path)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, values["rendering.ssao"].RawEquals(cty.True))
		})
	}
}

func TestLoadSettings_NaN(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		file    string
		content string
		wantErr string
	}{
		{file: "nan.properties", content: "rendering.blurIntensity=nan\n"},
		{file: "nan.toml", content: "[rendering]\nblurIntensity = nan\n", wantErr: `setting "rendering.blurIntensity"`},
		{file: "nan.yaml", content: "rendering:\n  blurIntensity: .nan\n", wantErr: `setting "rendering.blurIntensity"`},
	}
	for _, tc := range testCases {
		t.Run(tc.file, func(t *testing.T) {
			path := filepath.Join(dir, tc.file)
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			var values map[string]cty.Value
			var err error
			require.NotPanics(t, func() { values, err = config.LoadSettings(path) })
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, cty.String, values["rendering.blurIntensity"].Type())
			assert.Equal(t, "nan", values["rendering.blurIntensity"].AsString())
		})
	}
}

func TestValueOf_RejectsNaN(t *testing.T) {
	_, err := config.ValueOf(math.NaN())
	require.Error(t, err)

	_, err = config.ValueOf([]any{1.0, math.NaN()})
	require.Error(t, err)

	v, err := config.ValueOf(math.Inf(1))
	require.NoError(t, err)
	assert.True(t, v.AsBigFloat().IsInf())
}

func TestLoadSettings_MissingFile(t *testing.T) {
	_, err := config.LoadSettings(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	ctx := testutil.Context()
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("[rendering]\nssao = true\n"), 0o644))

	loaded := make(chan map[string]cty.Value, 8)
	w, err := config.NewWatcher(ctx, path, func(v map[string]cty.Value) { loaded <- v })
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	require.NoError(t, os.WriteFile(path, []byte("[rendering]\nssao = false\n"), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case v := <-loaded:
			if v["rendering.ssao"].RawEquals(cty.False) {
				return
			}
		case <-deadline:
			t.Fatal("watcher did not report the rewritten settings")
		}
	}
}
