package inventory

import (
	"bytes"
	"encoding/json"
)

// The two Proxmox command families wrap their JSON differently: list commands
// emit either a bare array or {"data": [...]}, the guest agent emits
// {"result": ...} or {"data": ...}. These helpers normalize both shapes before
// any typed decoding happens.

// extractList returns the JSON array carried by payload: the payload itself
// when it is a bare array, otherwise the array under its "data" key.
func extractList(payload json.RawMessage) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return trimmed, true
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, false
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) > 0 && data[0] == '[' {
		return data, true
	}
	return nil, false
}

// extractAgentPayload unwraps a guest agent response: "result" wins over
// "data"; objects with neither key, and non-objects, pass through untouched.
func extractAgentPayload(payload json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return trimmed
	}
	if result, ok := envelope["result"]; ok {
		return result
	}
	if data, ok := envelope["data"]; ok {
		return data
	}
	return trimmed
}
