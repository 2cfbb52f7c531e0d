package inventory

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pvetools/proxmoxctl/internal/sshexec"
)

// Client issues read-only Proxmox CLI commands over an SSH session and parses
// their JSON output into typed records.
type Client struct {
	session  sshexec.Runner
	validate *validator.Validate
}

// NewClient builds an inventory client on top of session. The validator is
// constructed once and treated as read-only afterwards.
func NewClient(session sshexec.Runner) *Client {
	return &Client{
		session:  session,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ListVMs returns all QEMU guests known to the host.
func (c *Client) ListVMs(ctx context.Context) ([]*VirtualMachine, error) {
	payload, err := c.runJSON(ctx, sshexec.ShellJoin("qm", "list", "--full", "--output-format", "json"), "VM list")
	if err != nil {
		return nil, err
	}
	list, ok := extractList(payload)
	if !ok {
		return nil, newError("VM list output could not be parsed as a list")
	}
	var records []vmRecord
	if err := json.Unmarshal(list, &records); err != nil {
		return nil, wrapError(err, "invalid VM payload")
	}
	vms := make([]*VirtualMachine, 0, len(records))
	for i, record := range records {
		if err := c.validate.Struct(record); err != nil {
			return nil, wrapError(err, "invalid VM payload at index %d", i)
		}
		vmid := strconv.FormatInt(*record.VMID, 10)
		vms = append(vms, &VirtualMachine{
			VMID:   vmid,
			Name:   defaultName(record.Name, vmid),
			Status: defaultStatus(record.Status),
		})
	}
	return vms, nil
}

// ListContainers returns all LXC guests known to the host.
func (c *Client) ListContainers(ctx context.Context) ([]*Container, error) {
	payload, err := c.runJSON(ctx, sshexec.ShellJoin("pct", "list", "--output-format", "json"), "container list")
	if err != nil {
		return nil, err
	}
	list, ok := extractList(payload)
	if !ok {
		return nil, newError("container list output could not be parsed as a list")
	}
	var records []containerRecord
	if err := json.Unmarshal(list, &records); err != nil {
		return nil, wrapError(err, "invalid container payload")
	}
	containers := make([]*Container, 0, len(records))
	for i, record := range records {
		if err := c.validate.Struct(record); err != nil {
			return nil, wrapError(err, "invalid container payload at index %d", i)
		}
		ctid := strconv.FormatInt(*record.VMID, 10)
		containers = append(containers, &Container{
			CTID:   ctid,
			Name:   defaultName(record.Name, ctid),
			Status: defaultStatus(record.Status),
		})
	}
	return containers, nil
}

// FetchVMInterfaces queries the QEMU guest agent for the VM's network
// interfaces. The full address list is returned unfiltered.
func (c *Client) FetchVMInterfaces(ctx context.Context, vmid string) ([]GuestInterface, error) {
	payload, err := c.runJSON(ctx, sshexec.ShellJoin("qm", "agent", vmid, "network-get-interfaces"), "VM "+vmid+" guest interfaces")
	if err != nil {
		return nil, err
	}
	var interfaces []GuestInterface
	if err := json.Unmarshal(extractAgentPayload(payload), &interfaces); err != nil {
		return nil, wrapError(err, "invalid interface payload")
	}
	for i, iface := range interfaces {
		if err := c.validate.Struct(iface); err != nil {
			return nil, wrapError(err, "invalid interface payload at index %d", i)
		}
	}
	return interfaces, nil
}

func (c *Client) runJSON(ctx context.Context, command, label string) (json.RawMessage, error) {
	result, err := c.session.Run(ctx, command, sshexec.RunOpts{Capture: true})
	if err != nil {
		return nil, wrapError(err, "%s command failed", label)
	}
	text := strings.TrimSpace(result.Stdout)
	if text == "" {
		return nil, newError("%s returned no data", label)
	}
	if !json.Valid([]byte(text)) {
		return nil, newError("%s returned invalid JSON", label)
	}
	return json.RawMessage(text), nil
}

func defaultName(name, id string) string {
	if name == "" {
		return id
	}
	return name
}

func defaultStatus(status string) string {
	if status == "" {
		return "unknown"
	}
	return status
}
