package web

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-arview/pkg/session"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"q", 'q', false},
		{"]", ']', false},
		{"left", session.KeyLeft, false},
		{"esc", session.KeyEsc, false},
		{"", 0, true},
		{"enter", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseKey(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestHandleMessage(t *testing.T) {
	sess := session.New(session.DefaultThreshold, session.DefaultScale)
	h := NewControlHub(sess)

	var quit bool
	h.OnAction(func(a session.Action) { quit = a == session.ActionQuit })

	reply := h.handleMessage([]byte(`{"type":"controls","data":{"scale":0,"translate_x":3}}`))
	require.Equal(t, TypeControls, reply.Type)
	var c session.Controls
	require.NoError(t, json.Unmarshal(reply.Data, &c))
	assert.Equal(t, session.MinScale, c.Scale)
	assert.Equal(t, 3.0, c.TranslateX)

	reply = h.handleMessage([]byte(`{"type":"key","key":"left"}`))
	require.Equal(t, TypeControls, reply.Type)
	assert.Equal(t, -1.0, sess.Controls().RotateY)

	h.handleMessage([]byte(`{"type":"key","key":"q"}`))
	assert.True(t, quit, "quit action forwarded")

	assert.Equal(t, TypePong, h.handleMessage([]byte(`{"type":"ping"}`)).Type)
	assert.Equal(t, TypeError, h.handleMessage([]byte(`{"type":"dance"}`)).Type)
	assert.Equal(t, TypeError, h.handleMessage([]byte(`not json`)).Type)
	assert.Equal(t, TypeError, h.handleMessage([]byte(`{"type":"key","key":"enter"}`)).Type)
}
