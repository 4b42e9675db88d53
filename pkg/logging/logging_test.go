package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{in: "debug", want: LevelDebug},
		{in: "INFO", want: LevelInfo},
		{in: "", want: LevelInfo},
		{in: "warning", want: LevelWarn},
		{in: "error", want: LevelError},
		{in: "loud", want: LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInitForCLI_FiltersAndTagsSubsystem(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Debug("Agent", "hidden %d", 1)
	Info("Agent", "service %s started", "db")
	Error("Coordinator", errors.New("boom"), "run failed")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	assert.Contains(t, out, "service db started")
	assert.Contains(t, out, "subsystem=Agent")
	assert.Contains(t, out, "subsystem=Coordinator")
	assert.Contains(t, out, "error=boom")
}
