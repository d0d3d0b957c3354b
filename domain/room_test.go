package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeRoomID(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		name     string
		input    string
		expected RoomID
	}{
		{
			name:     "Allowed characters pass through",
			input:    "team-standup.2024_A",
			expected: "team-standup.2024_A",
		},
		{
			name:     "Spaces and punctuation become underscores",
			input:    "room one!!",
			expected: "room_one__",
		},
		{
			name:     "Unicode is replaced per rune",
			input:    "café",
			expected: "caf_",
		},
		{
			name:     "Empty id falls back to the default room",
			input:    "",
			expected: DefaultRoomID,
		},
		{
			name:     "Slashes and colons cannot reach the key space",
			input:    "a/b:c",
			expected: "a_b_c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, SanitizeRoomID(tt.input))
		})
	}

	// Long ids are truncated, never rejected
	long := strings.Repeat("x", 200)
	req.Len(string(SanitizeRoomID(long)), 80)
}

func TestRoomID_GroupName(t *testing.T) {
	require.Equal(t, "video_room.daily", RoomID("daily").GroupName())
}

func TestDefaultDisplayName(t *testing.T) {
	req := require.New(t)

	// Long ids keep only the tail
	req.Equal("User-f00d42", DefaultDisplayName("abcdef-f00d42"))

	// Short ids are used whole
	req.Equal("User-abc", DefaultDisplayName("abc"))
}

func TestSession_DisplayName(t *testing.T) {
	req := require.New(t)

	named := Session{ID: "123456789", Name: "Alice"}
	req.Equal("Alice", named.DisplayName())

	anonymous := Session{ID: "123456789"}
	req.Equal("User-456789", anonymous.DisplayName())
}
