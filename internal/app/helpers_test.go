package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/rendergraph/internal/hcl_adapter"
	"github.com/vk/rendergraph/internal/registry"
	"github.com/vk/rendergraph/internal/testutil"
)

const defaultGraph = "../../graphs/default"

// setupAppTest creates a new app instance whose log output is captured.
// Set RG_TEST_LOGS=true to print the logs of every test.
func setupAppTest(t *testing.T, appConfig Config, modules ...registry.Module) (*App, *testutil.LogBuffer) {
	t.Helper()

	logBuffer := &testutil.LogBuffer{}
	appConfig.LogLevel = "debug"
	cfg, err := NewConfig(appConfig)
	require.NoError(t, err)

	testApp, err := NewApp(logBuffer, cfg, hcl_adapter.NewLoader(), modules...)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("RG_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return testApp, logBuffer
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.properties")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
