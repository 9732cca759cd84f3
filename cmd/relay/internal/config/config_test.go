package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the loader reads so host environment
// settings cannot bleed into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DEBUG", "LOCAL_HOST", "LOCAL_PORT", "REMOTE_HOST", "REMOTE_PORT",
		"HOST", "PORT", "HEALTH_SERVER_PORT", "DISCOVERY_MODE", "STREAM_ID",
		"KUBECONFIG", "KUBE_CONTEXT", "RUNTIME", "NAMESPACE", "POD_NAMESPACE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_StaticDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("REMOTE_HOST", "10.0.0.5")
	t.Setenv("REMOTE_PORT", "9092")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DiscoveryStatic, cfg.DiscoveryMode)
	assert.Equal(t, "localhost:8080", cfg.ListenAddr())
	assert.Equal(t, "10.0.0.5:9092", cfg.SourceAddr())
	assert.Equal(t, "8081", cfg.HealthServerPort)
	assert.False(t, cfg.Debug)
}

func TestLoadFromEnv_StaticRequiresRemote(t *testing.T) {
	clearEnv(t)

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REMOTE_HOST and REMOTE_PORT")
}

func TestLoadFromEnv_RejectsInvalidPorts(t *testing.T) {
	clearEnv(t)
	t.Setenv("REMOTE_HOST", "10.0.0.5")
	t.Setenv("REMOTE_PORT", "9092")
	t.Setenv("LOCAL_PORT", "not-a-port")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid LOCAL_PORT")

	t.Setenv("LOCAL_PORT", "8080")
	t.Setenv("REMOTE_PORT", "99999")
	_, err = LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid REMOTE_PORT")
}

func TestLoadFromEnv_LegacyHostPortNames(t *testing.T) {
	clearEnv(t)
	t.Setenv("REMOTE_HOST", "10.0.0.5")
	t.Setenv("REMOTE_PORT", "9092")
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "9000")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddr())
}

func TestLoadFromEnv_NewNamesWinOverLegacy(t *testing.T) {
	clearEnv(t)
	t.Setenv("REMOTE_HOST", "10.0.0.5")
	t.Setenv("REMOTE_PORT", "9092")
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("LOCAL_HOST", "127.0.0.1")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.LocalHost)
}

func TestLoadFromEnv_KubernetesDiscovery(t *testing.T) {
	clearEnv(t)
	t.Setenv("RUNTIME", "vm")
	t.Setenv("DISCOVERY_MODE", "kubernetes")
	t.Setenv("STREAM_ID", "ticks")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DiscoveryKubernetes, cfg.DiscoveryMode)
	assert.Equal(t, "ticks", cfg.StreamID)
}

func TestLoadFromEnv_KubernetesDiscoveryRequiresStreamID(t *testing.T) {
	clearEnv(t)
	t.Setenv("RUNTIME", "vm")
	t.Setenv("DISCOVERY_MODE", "kubernetes")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STREAM_ID")
}

func TestLoadFromEnv_AutoDetectsKubernetesDiscovery(t *testing.T) {
	clearEnv(t)
	t.Setenv("RUNTIME", "vm")
	t.Setenv("STREAM_ID", "ticks")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DiscoveryKubernetes, cfg.DiscoveryMode)
}

func TestLoadFromEnv_ExplicitRuntime(t *testing.T) {
	clearEnv(t)
	t.Setenv("REMOTE_HOST", "10.0.0.5")
	t.Setenv("REMOTE_PORT", "9092")
	t.Setenv("RUNTIME", "k8s")
	t.Setenv("NAMESPACE", "streams")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, RuntimeKubernetes, cfg.Runtime)
	assert.Equal(t, "streams", cfg.Namespace)
}
