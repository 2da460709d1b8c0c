package wire

import (
	"encoding/json"

	"github.com/zteradb/zteradb-go/zterr"
)

// Codec only handles JSON objects; any binary payload must be pre-encoded
// (e.g. base64) by the caller before it becomes a Value.

// EncodeRequest marshals a request payload (a plain map or struct) to the
// UTF-8 JSON bytes that WriteFrame will wrap in a length prefix.
func EncodeRequest(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, zterr.Wrap(zterr.KindConnection, err, "failed to encode request payload")
	}
	return b, nil
}

// DecodeResponse parses a frame's payload bytes into a Response.
func DecodeResponse(payload []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, zterr.Wrap(zterr.KindConnection, err, "failed to decode response frame")
	}
	return &resp, nil
}
