package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvetools/proxmoxctl/internal/sshexec"
)

type fakeRunner struct {
	commands []string
	stdout   map[string]string
	fail     map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{stdout: map[string]string{}, fail: map[string]error{}}
}

func (f *fakeRunner) Run(ctx context.Context, remoteCmd string, opts sshexec.RunOpts) (sshexec.CommandResult, error) {
	f.commands = append(f.commands, remoteCmd)
	if err, ok := f.fail[remoteCmd]; ok {
		return sshexec.CommandResult{}, err
	}
	return sshexec.CommandResult{Stdout: f.stdout[remoteCmd]}, nil
}

func (f *fakeRunner) User() string  { return "root" }
func (f *fakeRunner) DryRun() bool  { return false }
func (f *fakeRunner) Label() string { return "test" }

const vmListCommand = "qm list --full --output-format json"
const containerListCommand = "pct list --output-format json"

func TestListVMs(t *testing.T) {
	runner := newFakeRunner()
	runner.stdout[vmListCommand] = `[
		{"vmid": 100, "name": "web", "status": "running"},
		{"vmid": 101, "status": "stopped"}
	]`

	vms, err := NewClient(runner).ListVMs(context.Background())
	require.NoError(t, err)
	require.Len(t, vms, 2)

	assert.Equal(t, "100", vms[0].VMID)
	assert.Equal(t, "web", vms[0].Name)
	assert.True(t, vms[0].IsRunning())

	// Missing name falls back to the identifier.
	assert.Equal(t, "101", vms[1].Name)
	assert.Equal(t, "stopped", vms[1].Status)
	assert.False(t, vms[1].IsRunning())
}

func TestListVMsDataEnvelope(t *testing.T) {
	runner := newFakeRunner()
	runner.stdout[vmListCommand] = `{"data": [{"vmid": 100, "name": "web", "status": "running"}]}`

	vms, err := NewClient(runner).ListVMs(context.Background())
	require.NoError(t, err)
	require.Len(t, vms, 1)
	assert.Equal(t, "100", vms[0].VMID)
}

func TestListVMsMissingVMID(t *testing.T) {
	runner := newFakeRunner()
	runner.stdout[vmListCommand] = `[{"name": "web", "status": "running"}]`

	_, err := NewClient(runner).ListVMs(context.Background())
	require.Error(t, err)
	var invErr *Error
	assert.ErrorAs(t, err, &invErr)
}

func TestListVMsEmptyOutput(t *testing.T) {
	runner := newFakeRunner()
	runner.stdout[vmListCommand] = "   \n"

	_, err := NewClient(runner).ListVMs(context.Background())
	assert.Error(t, err)
}

func TestListVMsInvalidJSON(t *testing.T) {
	runner := newFakeRunner()
	runner.stdout[vmListCommand] = "not json at all"

	_, err := NewClient(runner).ListVMs(context.Background())
	assert.Error(t, err)
}

func TestListVMsCommandFailure(t *testing.T) {
	runner := newFakeRunner()
	cmdErr := &sshexec.CommandError{Session: "test", Command: vmListCommand, ExitCode: 255}
	runner.fail[vmListCommand] = cmdErr

	_, err := NewClient(runner).ListVMs(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, cmdErr)
}

func TestListContainers(t *testing.T) {
	runner := newFakeRunner()
	runner.stdout[containerListCommand] = `[
		{"vmid": 200, "name": "cache", "status": "running"},
		{"vmid": 201}
	]`

	containers, err := NewClient(runner).ListContainers(context.Background())
	require.NoError(t, err)
	require.Len(t, containers, 2)

	assert.Equal(t, "200", containers[0].CTID)
	assert.Equal(t, "cache", containers[0].Name)
	assert.True(t, containers[0].IsRunning())

	// Missing status normalizes to unknown, which is not running.
	assert.Equal(t, "201", containers[1].Name)
	assert.Equal(t, "unknown", containers[1].Status)
	assert.False(t, containers[1].IsRunning())
}

func TestFetchVMInterfaces(t *testing.T) {
	runner := newFakeRunner()
	runner.stdout["qm agent 100 network-get-interfaces"] = `{"result": [
		{"name": "lo", "ip-addresses": [{"ip-address": "127.0.0.1", "ip-address-type": "ipv4"}]},
		{"name": "eth0", "ip-addresses": [
			{"ip-address": "fe80::1", "ip-address-type": "ipv6"},
			{"ip-address": "192.168.1.50", "ip-address-type": "ipv4"}
		]}
	]}`

	interfaces, err := NewClient(runner).FetchVMInterfaces(context.Background(), "100")
	require.NoError(t, err)
	require.Len(t, interfaces, 2)
	assert.Equal(t, "eth0", interfaces[1].Name)
	require.Len(t, interfaces[1].IPAddresses, 2)
	assert.Equal(t, "192.168.1.50", interfaces[1].IPAddresses[1].IPAddress)
	assert.Equal(t, "ipv4", interfaces[1].IPAddresses[1].IPAddressType)
}

func TestFetchVMInterfacesAgentUnavailable(t *testing.T) {
	runner := newFakeRunner()
	runner.fail["qm agent 100 network-get-interfaces"] = &sshexec.CommandError{
		Session: "test", Command: "qm agent", ExitCode: 255, Stderr: "QEMU guest agent is not running",
	}

	_, err := NewClient(runner).FetchVMInterfaces(context.Background(), "100")
	assert.Error(t, err)
}
