package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sapauto.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	assert.Equal(t, "EN", cfg.Language)
	assert.Equal(t, 30, cfg.PollAttempts)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, "Logs", cfg.LogDirectory)
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := writeConfigFile(t, `
exe_path = 'C:\Program Files\SAP\saplogon.exe'
system = "QAS - Quality"
client = "300"
user = "robot"
password = "hunter2"
language = "PT"
poll_attempts = 10
poll_interval = "500ms"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, `C:\Program Files\SAP\saplogon.exe`, cfg.ExePath)
	assert.Equal(t, "QAS - Quality", cfg.System)
	assert.Equal(t, "300", cfg.Client)
	assert.Equal(t, "robot", cfg.User)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Equal(t, "PT", cfg.Language)
	assert.Equal(t, 10, cfg.PollAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "Logs", cfg.LogDirectory, "unset keys keep defaults")
}

func TestLoadEnvPasswordOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
exe_path = 'C:\sap\saplogon.exe'
system = "QAS"
client = "300"
user = "robot"
password = "from-file"
`)
	t.Setenv(PasswordEnvVar, "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Password)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat config file")
}

func TestLoadRejectsBadPollInterval(t *testing.T) {
	path := writeConfigFile(t, `poll_interval = "soon"`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval")
}

func TestLoadRejectsNonPositivePollAttempts(t *testing.T) {
	path := writeConfigFile(t, `poll_attempts = 0`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_attempts")
}

func TestValidateReportsEveryMissingField(t *testing.T) {
	t.Parallel()

	err := Defaults().Validate()
	require.Error(t, err)
	for _, field := range []string{"exe_path", "system", "client", "user", "password"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestValidateRejectsEmptyPassword(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.ExePath = `C:\sap\saplogon.exe`
	cfg.System = "QAS"
	cfg.Client = "300"
	cfg.User = "robot"
	cfg.Password = "   "

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.ExePath = `C:\sap\saplogon.exe`
	cfg.System = "QAS"
	cfg.Client = "300"
	cfg.User = "robot"
	cfg.Password = "hunter2"

	require.NoError(t, cfg.Validate())
}

func TestRedactedMasksPassword(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.System = "QAS"
	cfg.User = "robot"
	cfg.Password = "hunter2"

	redacted := cfg.Redacted()
	assert.False(t, strings.Contains(redacted, "hunter2"), "password leaked: %s", redacted)
	assert.Contains(t, redacted, "password=*****")

	cfg.Password = ""
	assert.Contains(t, cfg.Redacted(), "password=(unset)")
}
