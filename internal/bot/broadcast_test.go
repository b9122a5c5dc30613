package bot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBroadcastSession_FullFlow(t *testing.T) {
	var s broadcastSession
	require.False(t, s.active())

	s.begin()
	require.True(t, s.active())

	require.NoError(t, s.inputText("hello everyone"))
	require.NoError(t, s.inputPhoto("file-abc"))

	text, photoID, err := s.confirm()
	require.NoError(t, err)
	require.Equal(t, "hello everyone", text)
	require.Equal(t, "file-abc", photoID)
	require.False(t, s.active(), "confirm resets the session")
}

func TestBroadcastSession_SkipImage(t *testing.T) {
	var s broadcastSession
	s.begin()
	require.NoError(t, s.inputText("text only"))
	require.NoError(t, s.skipImage())

	text, photoID, err := s.confirm()
	require.NoError(t, err)
	require.Equal(t, "text only", text)
	require.Empty(t, photoID)
}

func TestBroadcastSession_OutOfOrderInputs(t *testing.T) {
	var s broadcastSession

	require.ErrorIs(t, s.inputText("too early"), errBroadcastState)
	require.ErrorIs(t, s.inputPhoto("file-abc"), errBroadcastState)
	require.ErrorIs(t, s.skipImage(), errBroadcastState)
	_, _, err := s.confirm()
	require.ErrorIs(t, err, errBroadcastState)

	s.begin()
	require.ErrorIs(t, s.inputPhoto("file-abc"), errBroadcastState, "photo before text")
	require.ErrorIs(t, s.inputText(""), errBroadcastState, "empty text rejected")

	require.NoError(t, s.inputText("body"))
	require.ErrorIs(t, s.inputText("body again"), errBroadcastState, "text accepted only once")
}

func TestBroadcastSession_ResetAbandons(t *testing.T) {
	var s broadcastSession
	s.begin()
	require.NoError(t, s.inputText("draft"))

	s.reset()
	require.False(t, s.active())
	require.ErrorIs(t, s.skipImage(), errBroadcastState)
	require.Empty(t, s.text)
}

func TestBroadcastPreviewText_Truncates(t *testing.T) {
	short := broadcastPreviewText("short message")
	require.Contains(t, short, "short message")

	long := make([]byte, 3000)
	for i := range long {
		long[i] = 'a'
	}
	preview := broadcastPreviewText(string(long))
	require.LessOrEqual(t, len(preview), 1100)
}
