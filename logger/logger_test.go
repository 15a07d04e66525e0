package logger

import (
	"strings"
	"testing"

	"github.com/cardtracker/cardtracker/config"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogsFiltersByLevel(t *testing.T) {
	Debug("debug line")
	Warning("warning line")
	Errorf("error %d", 42)

	logs := GetLogs(10, "WARNING")
	require.Len(t, logs, 2)
	assert.True(t, strings.HasSuffix(logs[0], "error 42"))
	assert.True(t, strings.HasSuffix(logs[1], "warning line"))

	assert.Len(t, GetLogs(1, "DEBUG"), 1)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel(config.Warn)
	require.NoError(t, err)
	assert.Equal(t, logging.WARNING, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}
