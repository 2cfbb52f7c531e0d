package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvetools/proxmoxctl/internal/manifest"
)

func TestGuestDiscoveryLabel(t *testing.T) {
	vm := GuestDiscovery{Kind: "vm", Identifier: "100", Name: "web"}
	assert.Equal(t, "VM web (100)", vm.Label())

	ct := GuestDiscovery{Kind: "ct", Identifier: "200", Name: "cache"}
	assert.Equal(t, "CT cache (200)", ct.Label())
}

func TestManagedGuestToMap(t *testing.T) {
	guest := ManagedGuest{
		Discovery:   GuestDiscovery{Kind: "vm", Identifier: "100", Name: "web", Status: "running", IP: "10.0.0.5"},
		Managed:     true,
		Notes:       "primary web server",
		LastChecked: "2026-08-29T12:00:00Z",
	}

	payload := guest.toMap()
	assert.Equal(t, "vm", payload["kind"])
	assert.Equal(t, "100", payload["id"])
	assert.Equal(t, "web", payload["name"])
	assert.Equal(t, "running", payload["status"])
	assert.Equal(t, "10.0.0.5", payload["ip"])
	assert.Equal(t, true, payload["managed"])
	assert.Equal(t, "primary web server", payload["notes"])
	assert.Equal(t, "2026-08-29T12:00:00Z", payload["last_checked"])
}

func TestManagedGuestToMapOmitsEmptyNotes(t *testing.T) {
	guest := ManagedGuest{Discovery: GuestDiscovery{Kind: "ct", Identifier: "200"}}
	assert.NotContains(t, guest.toMap(), "notes")
}

func TestUpdateHostInventory(t *testing.T) {
	host := manifest.HostForm{Name: "lab", Host: "pve1"}
	guests := []ManagedGuest{
		{Discovery: GuestDiscovery{Kind: "vm", Identifier: "100"}, Managed: true},
		{Discovery: GuestDiscovery{Kind: "ct", Identifier: "200"}},
	}

	updateHostInventory(&host, guests)

	entries, ok := host.Extras[GuestInventoryKey].([]any)
	require.True(t, ok)
	require.Len(t, entries, 2)
	first, ok := entries[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "100", first["id"])
	assert.Equal(t, true, first["managed"])
}

func TestLoadExistingGuestMap(t *testing.T) {
	host := manifest.HostForm{
		Extras: map[string]any{
			GuestInventoryKey: []any{
				map[string]any{"id": "100", "managed": true, "notes": "keep"},
				map[string]any{"id": "200", "managed": false},
				map[string]any{"managed": true}, // no id, skipped
				"not a table",                   // malformed, skipped
			},
		},
	}

	existing := loadExistingGuestMap(host)
	require.Len(t, existing, 2)
	assert.Equal(t, "keep", existing["100"]["notes"])
	assert.Equal(t, false, existing["200"]["managed"])
}

func TestLoadExistingGuestMapMissing(t *testing.T) {
	assert.Empty(t, loadExistingGuestMap(manifest.HostForm{}))
	assert.Empty(t, loadExistingGuestMap(manifest.HostForm{Extras: map[string]any{GuestInventoryKey: "bogus"}}))
}
