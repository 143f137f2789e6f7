package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, parseLevel(""))
	assert.Equal(t, logrus.DebugLevel, parseLevel("debug"))
	assert.Equal(t, logrus.ErrorLevel, parseLevel("ERROR"))
}

func TestInitIsIdempotent(t *testing.T) {
	require := assert.New(t)
	require.NoError(Init(Config{LogLevel: "warn"}))
	require.NotNil(Logger)
	require.Equal(logrus.WarnLevel, Logger.Level)

	require.NoError(Init(Config{LogLevel: "debug"}))
	require.Equal(logrus.DebugLevel, Logger.Level)
}
