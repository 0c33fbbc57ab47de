package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  name: authotp
  maintenance: true
jwt:
  secret: c2VjcmV0
  ttl_minutes: 60
  audiences: "web, mobile,,"
server:
  read_timeout_seconds: 5
otp:
  digits: 6
instrument:
  trace_sample_ratio: 0.25
cors:
  allowed_origins:
    - https://a.example
    - https://b.example
`

func TestNewViperFromBytes(t *testing.T) {
	t.Parallel()

	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "authotp", cfg.GetString("app.name"))
	assert.True(t, cfg.GetBool("app.maintenance"))
	assert.Equal(t, 6, cfg.GetInt("otp.digits"))
	assert.Equal(t, int64(6), cfg.GetInt64("otp.digits"))
	assert.InDelta(t, 0.25, cfg.GetFloat64("instrument.trace_sample_ratio"), 1e-9)
	assert.Equal(t, time.Hour, cfg.GetMinute("jwt.ttl_minutes"))
	assert.Equal(t, 6*time.Hour, cfg.GetHour("otp.digits"))
	assert.Equal(t, 5*time.Second, cfg.GetSecond("server.read_timeout_seconds"))
	assert.Equal(t, []byte("secret"), cfg.GetBinary("jwt.secret"))
	assert.Nil(t, cfg.GetBinary("app.name"))
	assert.Equal(t, []string{"web", "mobile"}, cfg.GetArray("jwt.audiences"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.GetArray("cors.allowed_origins"))
	assert.Empty(t, cfg.GetArray("missing.key"))
	assert.NoError(t, cfg.Close())
}

func TestNewViperFromBytesRequiresType(t *testing.T) {
	t.Parallel()

	_, err := NewViperFromBytes(" ", nil)
	assert.ErrorIs(t, err, ErrConfigTypeRequired)
}

func TestNewViperFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sampleYAML), 0o600))

	t.Setenv("AUTHOTP_APP_NAME", "from-env")
	t.Setenv("AUTHOTP_JWT_SECRET", base64.StdEncoding.EncodeToString([]byte("env-secret")))

	cfg, err := NewViper(file)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.GetString("app.name"))
	assert.Equal(t, []byte("env-secret"), cfg.GetBinary("jwt.secret"))
	assert.Equal(t, 6, cfg.GetInt("otp.digits"))
}

func TestNewViperMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewViper(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
