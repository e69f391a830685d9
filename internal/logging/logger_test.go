package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("router")
	assert.NotNil(t, logger)
	assert.NotNil(t, logger.Logger)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestGetLoggerSingleton(t *testing.T) {
	l1 := GetLogger()
	l2 := GetLogger()
	assert.Same(t, l1, l2)
}

func TestSetupLoggingConsole(t *testing.T) {
	err := SetupLogging(&LoggingConfig{
		Level:          "debug",
		Format:         "text",
		ConsoleEnabled: true,
	})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, GetLogger().GetLevel())
}

func TestSetupLoggingInvalidLevelFallsBackToInfo(t *testing.T) {
	err := SetupLogging(&LoggingConfig{Level: "not-a-level", ConsoleEnabled: true})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, GetLogger().GetLevel())
}

func TestSetupLoggingFileRotation(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "hub.log")

	err := SetupLogging(&LoggingConfig{
		Level:       "info",
		Format:      "json",
		FileEnabled: true,
		FilePath:    logPath,
		MaxFileSize: 10485760,
		BackupCount: 3,
	})
	require.NoError(t, err)

	GetLogger().Info("session registered")

	_, err = os.Stat(logPath)
	assert.NoError(t, err, "log file should have been created by the rotating writer")
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	id := GenerateCorrelationID()
	assert.Len(t, id, 36)

	ctx := WithCorrelationID(context.Background(), id)
	assert.Equal(t, id, GetCorrelationIDFromContext(ctx))
	assert.Empty(t, GetCorrelationIDFromContext(context.Background()))
}

func TestLoggerWithFieldsAndError(t *testing.T) {
	logger := NewLogger("hub")

	withField := logger.WithField("session_id", "device-alpha")
	assert.NotNil(t, withField)

	withFields := logger.WithFields(Fields{"role": "device", "session_id": "alpha"})
	assert.NotNil(t, withFields)

	withErr := logger.WithError(assert.AnError)
	assert.NotNil(t, withErr)
}

func TestLoggerContextConvenienceMethods(t *testing.T) {
	logger := NewLogger("hub")
	ctx := WithCorrelationID(context.Background(), "corr-1")

	logger.DebugWithContext(ctx, "debug")
	logger.InfoWithContext(ctx, "info")
	logger.WarnWithContext(ctx, "warn")
	logger.ErrorWithContext(ctx, "error")
}

func TestLoggerLevelManagement(t *testing.T) {
	logger := NewLogger("hub")

	logger.SetLevel(logrus.DebugLevel)
	assert.True(t, logger.IsLevelEnabled(logrus.DebugLevel))

	logger.SetLevel(logrus.ErrorLevel)
	assert.False(t, logger.IsLevelEnabled(logrus.InfoLevel))
	assert.True(t, logger.IsLevelEnabled(logrus.ErrorLevel))
}
