package log_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Mohsinsiddi/icon-cli/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONOutputCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	log.InitWriter(&buf, "debug", true)
	t.Cleanup(func() { log.InitWriter(&bytes.Buffer{}, "warn", false) })

	log.Keystore.Debug().Str("keystore", "alice").Msg("imported")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "keystore", line["component"])
	assert.Equal(t, "alice", line["keystore"])
	assert.Equal(t, "imported", line["message"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log.InitWriter(&buf, "warn", true)
	t.Cleanup(func() { log.InitWriter(&bytes.Buffer{}, "warn", false) })

	log.Config.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Config.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestUnknownLevelFallsBackToWarn(t *testing.T) {
	var buf bytes.Buffer
	log.InitWriter(&buf, "loud", true)
	t.Cleanup(func() { log.InitWriter(&bytes.Buffer{}, "warn", false) })

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
