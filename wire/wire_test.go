package wire_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zteradb/zteradb-go/wire"
)

func TestFrameRoundTrip(t *testing.T) {
	obj := map[string]any{"error": false, "response_code": float64(7), "data": map[string]any{"row": "x"}}
	payload, err := wire.EncodeRequest(obj)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, wire.WriteFrame(&buf, payload))

	got, err := wire.ReadFrame(&buf)
	require.NoError(t, err)

	resp, err := wire.DecodeResponse(got)
	require.NoError(t, err)
	assert.Equal(t, 7, resp.ResponseCode)
	assert.False(t, resp.Error)
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	oversized := make([]byte, wire.MaxFrameSize+1)
	err := wire.WriteFrame(&buf, oversized)
	assert.Error(t, err)
}

func TestReadFrameFailsOnShortHeader(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00})
	_, err := wire.ReadFrame(buf)
	assert.Error(t, err)
}

func TestReadFrameFailsOnShortPayload(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x05})
	buf.Write([]byte("ab"))
	_, err := wire.ReadFrame(&buf)
	assert.Error(t, err)
}

func TestIsQueryComplete(t *testing.T) {
	r := &wire.Response{ResponseCode: wire.ResponseCodeQueryComplete}
	assert.True(t, r.IsQueryComplete())

	r2 := &wire.Response{ResponseCode: wire.ResponseCodeQueryData}
	assert.False(t, r2.IsQueryComplete())
}
