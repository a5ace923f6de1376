package main

import (
	"bufio"
	"net"
	"os"
	"strings"
	"testing"
)

func TestParseFlags_Defaults(t *testing.T) {
	opts, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if opts.masterPort != 30001 || opts.holepunch != 30002 {
		t.Errorf("ports = %d/%d, want 30001/30002", opts.masterPort, opts.holepunch)
	}
	if opts.logPackets {
		t.Error("logPackets = true, want false by default")
	}
}

func TestParseFlags_ShortAndLong(t *testing.T) {
	opts, err := parseFlags([]string{"-i", "10.0.0.5", "-p", "40001", "--log-packets"})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if opts.ipAddress != "10.0.0.5" {
		t.Errorf("ipAddress = %q, want 10.0.0.5", opts.ipAddress)
	}
	if opts.masterPort != 40001 {
		t.Errorf("masterPort = %d, want 40001", opts.masterPort)
	}
	if !opts.logPackets {
		t.Error("logPackets = false, want true")
	}
}

func TestResolveHostname_BothFlagsIsExitTwo(t *testing.T) {
	opts := &cliOptions{ipAddress: "1.2.3.4", interfaceArg: "eth0"}
	_, code := resolveHostname(opts, bufio.NewReader(strings.NewReader("")), devNull(t))
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestResolveHostname_ExplicitIPAddress(t *testing.T) {
	opts := &cliOptions{ipAddress: "1.2.3.4"}
	host, code := resolveHostname(opts, bufio.NewReader(strings.NewReader("")), devNull(t))
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if host != "1.2.3.4" {
		t.Errorf("host = %q, want 1.2.3.4", host)
	}
}

func TestResolveHostname_NoFlagsFallsBackToDefault(t *testing.T) {
	host, code := resolveHostname(&cliOptions{}, bufio.NewReader(strings.NewReader("")), devNull(t))
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if host != "" {
		t.Errorf("host = %q, want empty so the caller keeps its configured default", host)
	}
}

func TestResolveHostname_UnknownInterfaceIsExitOne(t *testing.T) {
	opts := &cliOptions{interfaceArg: "definitely-not-a-real-interface0"}
	_, code := resolveHostname(opts, bufio.NewReader(strings.NewReader("")), devNull(t))
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestResolveHostname_InterfaceWithSingleAddress(t *testing.T) {
	name, addr := firstInterfaceWithOneIPv4(t)
	if name == "" {
		t.Skip("no loopback-style interface with exactly one IPv4 address on this host")
	}

	opts := &cliOptions{interfaceArg: name}
	host, code := resolveHostname(opts, bufio.NewReader(strings.NewReader("")), devNull(t))
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if host != addr {
		t.Errorf("host = %q, want %q", host, addr)
	}
}

func TestPromptForAddress_SelectsByIndex(t *testing.T) {
	addrs := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}
	selected, err := promptForAddress(addrs, bufio.NewReader(strings.NewReader("2\n")), devNull(t))
	if err != nil {
		t.Fatalf("promptForAddress() error = %v", err)
	}
	if selected != "10.0.0.2" {
		t.Errorf("selected = %q, want 10.0.0.2", selected)
	}
}

func TestPromptForAddress_InvalidSelection(t *testing.T) {
	addrs := []string{"10.0.0.1", "10.0.0.2"}
	_, err := promptForAddress(addrs, bufio.NewReader(strings.NewReader("9\n")), devNull(t))
	if err == nil {
		t.Fatal("promptForAddress() error = nil, want an error for an out-of-range selection")
	}
}

func devNull(t *testing.T) *os.File {
	t.Helper()
	f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("opening %s: %v", os.DevNull, err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

// firstInterfaceWithOneIPv4 finds a real local interface carrying exactly
// one IPv4 address, so the single-address resolveHostname path can be
// exercised against actual host state without hardcoding an interface
// name that may not exist on the test runner.
func firstInterfaceWithOneIPv4(t *testing.T) (string, string) {
	t.Helper()
	ifaces, err := net.Interfaces()
	if err != nil {
		t.Fatalf("net.Interfaces() error = %v", err)
	}
	for _, iface := range ifaces {
		addrs, err := interfaceIPv4Addrs(iface.Name)
		if err != nil || len(addrs) != 1 {
			continue
		}
		return iface.Name, addrs[0]
	}
	return "", ""
}
