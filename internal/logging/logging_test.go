package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/webmail/internal/model"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "webmail.log")

	log, closeLog, err := New(model.LogConfig{Level: "debug", File: path})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("component", "test").Debug("hello")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "component=test")
}

func TestNew_DefaultsAndDiscard(t *testing.T) {
	log, closeLog, err := New(model.LogConfig{})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.NoError(t, closeLog())
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(model.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
