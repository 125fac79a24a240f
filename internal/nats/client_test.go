package nats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/logger"
)

func TestConnectOptionsPlain(t *testing.T) {
	opts, err := connectOptions(Config{URL: "nats://localhost:4222"}, logger.NewNop())
	require.NoError(t, err)
	assert.Len(t, opts, 6)

	withToken, err := connectOptions(Config{Token: "secret", ReconnectWait: time.Second}, logger.NewNop())
	require.NoError(t, err)
	assert.Len(t, withToken, 7)
}

func TestConnectOptionsTLSRequiresAllFiles(t *testing.T) {
	assert.False(t, Config{CAFile: "ca.pem", CertFile: "cert.pem"}.mutualTLS())
	assert.True(t, Config{CAFile: "ca.pem", CertFile: "cert.pem", KeyFile: "key.pem"}.mutualTLS())
}

func TestConnectOptionsBadCA(t *testing.T) {
	dir := t.TempDir()
	ca := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(ca, []byte("not a certificate"), 0o600))

	_, err := connectOptions(Config{
		CAFile:   ca,
		CertFile: filepath.Join(dir, "cert.pem"),
		KeyFile:  filepath.Join(dir, "key.pem"),
	}, logger.NewNop())
	assert.ErrorIs(t, err, errBadCA)
}

func TestConnectOptionsMissingCA(t *testing.T) {
	_, err := connectOptions(Config{
		CAFile:   filepath.Join(t.TempDir(), "missing.pem"),
		CertFile: "cert.pem",
		KeyFile:  "key.pem",
	}, logger.NewNop())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
