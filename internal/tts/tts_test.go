package tts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		path string
		kind string
		want string
	}{
		{"launched", "/tmp/prog_v12.py", "", "Launched prog version 12"},
		{"spawn", "game_v1.sh", "spawn", "Wrote game version 1 but could not start it"},
		{"failed", "", "invalid_request", "Change failed: invalid request"},
		{"unversioned", "my_tool.py", "", "Launched my tool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.path, tt.kind))
		})
	}
}

func TestSpeakEmpty(t *testing.T) {
	assert.NoError(t, Speak("   ", "en"))
}

func TestSpeakUnavailable(t *testing.T) {
	if Available {
		t.Skip("built with espeak")
	}
	assert.ErrorIs(t, Speak("hello", ""), ErrUnavailable)
}
