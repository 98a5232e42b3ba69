package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"email", "login for a@b.com", "login for [REDACTED_EMAIL]"},
		{"bearer", "Authorization: Bearer abc.def.ghi", "Authorization: Bearer [REDACTED_TOKEN]"},
		{"jwt", "token eyJhbGciOi.x.y stored", "token [REDACTED_TOKEN] stored"},
		{"user id", "liked by user_id=u1", "liked by user_id=[USER_ID]"},
		{"plain", "feed loaded", "feed loaded"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Anonymize(tc.in))
		})
	}
}

func TestLogger_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	l.Info("feed", "loaded")
	l.Warn("session", "token read failed", errors.New("disk gone"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, InfoLevel, first.Level)
	assert.Equal(t, "feed", first.Module)
	assert.Empty(t, first.Error)
	assert.Equal(t, WarnLevel, second.Level)
	assert.Equal(t, "disk gone", second.Error)
}

func TestSetLevel_DropsLowerEntries(t *testing.T) {
	t.Cleanup(func() { SetLevel(DebugLevel) })

	var buf bytes.Buffer
	l := NewWithWriter(&buf)
	SetLevel(WarnLevel)

	l.Debug("feed", "stale response")
	l.Info("feed", "loaded")
	assert.Empty(t, buf.String())

	l.Warn("session", "token read failed", nil)
	l.Error("session", "token write failed", errors.New("disk gone"))
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 2)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{" Info ", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"ERROR", ErrorLevel, false},
		{"verbose", "", true},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}
