package inventory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractList(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
		ok       bool
	}{
		{"bare array", `[{"vmid": 100}]`, `[{"vmid": 100}]`, true},
		{"data envelope", `{"data": [{"vmid": 100}]}`, `[{"vmid": 100}]`, true},
		{"empty array", `[]`, `[]`, true},
		{"data is object", `{"data": {"vmid": 100}}`, "", false},
		{"missing data key", `{"other": []}`, "", false},
		{"scalar", `42`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, ok := extractList(json.RawMessage(tt.payload))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.JSONEq(t, tt.expected, string(list))
			}
		})
	}
}

func TestExtractAgentPayload(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
	}{
		{"result key", `{"result": [{"name": "eth0"}]}`, `[{"name": "eth0"}]`},
		{"data key", `{"data": [{"name": "eth0"}]}`, `[{"name": "eth0"}]`},
		{"result wins over data", `{"result": [1], "data": [2]}`, `[1]`},
		{"bare array passes through", `[{"name": "eth0"}]`, `[{"name": "eth0"}]`},
		{"object without keys passes through", `{"name": "eth0"}`, `{"name": "eth0"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unwrapped := extractAgentPayload(json.RawMessage(tt.payload))
			require.NotNil(t, unwrapped)
			assert.JSONEq(t, tt.expected, string(unwrapped))
		})
	}
}
