package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/eventlogging"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"loguploader"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestLoadConfig_Defaults(t *testing.T) {
	withArgs(t)

	cfg := LoadConfig()
	require.Equal(t, eventlogging.DefaultUploadURL, cfg.UploadURL)
	require.Equal(t, eventlogging.DefaultQueueStorageDir(), cfg.QueueStorageDir)
	require.Empty(t, cfg.EncryptionKey)
	require.Empty(t, cfg.AuthToken)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	withArgs(t, "-k", "cHVibGljLWtleQ==", "-u", "https://logs.example.test/upload", "-q", "/var/queue", "-t", "token-1")

	cfg := LoadConfig()
	require.Equal(t, "cHVibGljLWtleQ==", cfg.EncryptionKey)
	require.Equal(t, "https://logs.example.test/upload", cfg.UploadURL)
	require.Equal(t, "/var/queue", cfg.QueueStorageDir)
	require.Equal(t, "token-1", cfg.AuthToken)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"encryption_key": "anNvbi1rZXk=",
		"upload_url": "https://json.example.test/upload"
	}`), 0o600))

	withArgs(t, "-c", path)

	cfg := LoadConfig()
	require.Equal(t, "anNvbi1rZXk=", cfg.EncryptionKey)
	require.Equal(t, "https://json.example.test/upload", cfg.UploadURL)
	// untouched by the file, still default
	require.Equal(t, eventlogging.DefaultQueueStorageDir(), cfg.QueueStorageDir)
}

func TestLoadConfig_FlagsWinOverJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"auth_token":"from-json"}`), 0o600))

	withArgs(t, "-c", path, "-t", "from-flags")

	cfg := LoadConfig()
	require.Equal(t, "from-flags", cfg.AuthToken)
}
