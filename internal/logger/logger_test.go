package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("formats", func(t *testing.T) {
		_, err := New(Config{Format: "console"})
		assert.NoError(t, err)

		_, err = New(Config{Format: "JSON"})
		assert.NoError(t, err)

		_, err = New(Config{Format: "steve"})
		assert.EqualError(t, err, `invalid logger format "steve"`)
	})

	t.Run("levels", func(t *testing.T) {
		for _, level := range []string{"", "debug", "info", "warn", "error"} {
			_, err := New(Config{Level: level})
			assert.NoError(t, err, level)
		}

		_, err := New(Config{Level: "steve"})
		assert.EqualError(t, err, `cannot set logger level: unrecognized level: "steve"`)
	})

	t.Run("json_output", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := New(Config{Level: "info", Format: "json", Output: &buf})
		require.NoError(t, err)

		log.WithName("pipeline").Info("stage failed", "stage", "add_firebase")

		assert.Contains(t, buf.String(), `"msg":"stage failed"`)
		assert.Contains(t, buf.String(), `"logger":"pipeline"`)
		assert.Contains(t, buf.String(), `"stage":"add_firebase"`)
	})

	t.Run("default_level_hides_info", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := New(Config{Output: &buf})
		require.NoError(t, err)

		log.Info("quiet")
		assert.Empty(t, buf.String())

		log.Error(nil, "loud")
		assert.Contains(t, buf.String(), "loud")
	})

	t.Run("verbosity_maps_to_debug", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := New(Config{Level: "debug", Output: &buf})
		require.NoError(t, err)

		log.V(1).Info("check finished")
		assert.Contains(t, buf.String(), "check finished")
	})
}
