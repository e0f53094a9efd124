package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedErrorFrame(t *testing.T) {
	tests := []string{
		"unavailable",
		`too many "live" connections`,
		"path C:\\feed\nline two",
	}

	for _, msg := range tests {
		t.Run(msg, func(t *testing.T) {
			frame := feedErrorFrame(msg)
			require.True(t, json.Valid(frame), string(frame))

			var body map[string]string
			require.NoError(t, json.Unmarshal(frame, &body))
			assert.Equal(t, map[string]string{"error": msg}, body)
		})
	}
}
