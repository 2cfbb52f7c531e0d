// Package inventory lists virtual machines, containers, and guest network
// interfaces by shelling out to the Proxmox CLI tools over SSH.
package inventory

import (
	"fmt"
	"strings"
)

// VirtualMachine is one QEMU guest as reported by `qm list`. Status is mutated
// in place by the reconciler as the guest transitions; no live re-query
// happens mid-reconciliation.
type VirtualMachine struct {
	VMID   string
	Name   string
	Status string
}

// IsRunning reports the locally observed power state.
func (v *VirtualMachine) IsRunning() bool {
	return strings.EqualFold(v.Status, "running")
}

// Container is one LXC guest as reported by `pct list`.
type Container struct {
	CTID   string
	Name   string
	Status string
}

// IsRunning reports the locally observed power state.
func (c *Container) IsRunning() bool {
	return strings.EqualFold(c.Status, "running")
}

// InterfaceAddress is one address reported by the QEMU guest agent.
type InterfaceAddress struct {
	IPAddress     string `json:"ip-address" validate:"required"`
	IPAddressType string `json:"ip-address-type" validate:"required"`
}

// GuestInterface is one network interface reported by the QEMU guest agent.
// Addresses are returned unfiltered; IPv4 selection is the caller's concern.
type GuestInterface struct {
	Name        string             `json:"name"`
	IPAddresses []InterfaceAddress `json:"ip-addresses" validate:"dive"`
}

// Raw wire records. Identifiers arrive numeric and names/statuses may be
// absent; normalization happens in the client.

type vmRecord struct {
	VMID   *int64 `json:"vmid" validate:"required"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type containerRecord struct {
	VMID   *int64 `json:"vmid" validate:"required"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Error classifies a failed or malformed inventory query.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

func wrapError(err error, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Err: err}
}
