package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// cliOptions is the parsed result of the command line flags from spec §6.
type cliOptions struct {
	ipAddress    string
	interfaceArg string
	masterPort   int
	holepunch    int
	logPackets   bool
}

func parseFlags(args []string) (*cliOptions, error) {
	fs := pflag.NewFlagSet("masterd", pflag.ContinueOnError)

	ip := fs.StringP("ip-address", "i", "", "IP address to bind to; exclusive of --interface")
	iface := fs.StringP("interface", "I", "", "named network interface to bind to")
	masterPort := fs.IntP("port-master", "p", 30001, "TCP port for the framed session protocol")
	holepunch := fs.IntP("port-holepunch", "P", 30002, "UDP port for the hole-punch echo endpoint")
	logPackets := fs.BoolP("log-packets", "l", false, "dump raw inbound/outbound frames to disk")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &cliOptions{
		ipAddress:    *ip,
		interfaceArg: *iface,
		masterPort:   *masterPort,
		holepunch:    *holepunch,
		logPackets:   *logPackets,
	}, nil
}

// resolveHostname applies the exit-code contract from spec §6: exit 2 if
// both --ip-address and --interface were supplied, exit 1 if --interface
// names an interface that can't be found or has no address the operator
// selects. An empty result with exit code 0 means neither flag was given
// and the caller should fall back to its configured default.
func resolveHostname(opts *cliOptions, in *bufio.Reader, out *os.File) (string, int) {
	if opts.ipAddress != "" && opts.interfaceArg != "" {
		fmt.Fprintln(out, "error: --ip-address and --interface are mutually exclusive")
		return "", 2
	}

	if opts.ipAddress != "" {
		return opts.ipAddress, 0
	}

	if opts.interfaceArg == "" {
		return "", 0
	}

	addrs, err := interfaceIPv4Addrs(opts.interfaceArg)
	if err != nil {
		fmt.Fprintf(out, "error: interface %q not found: %s\n", opts.interfaceArg, err)
		return "", 1
	}
	if len(addrs) == 0 {
		fmt.Fprintf(out, "error: interface %q has no IPv4 address\n", opts.interfaceArg)
		return "", 1
	}
	if len(addrs) == 1 {
		return addrs[0], 0
	}

	selected, err := promptForAddress(addrs, in, out)
	if err != nil {
		fmt.Fprintf(out, "error: no address selected: %s\n", err)
		return "", 1
	}
	return selected, 0
}

func interfaceIPv4Addrs(name string) ([]string, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, err
	}

	var out []string
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			out = append(out, ip4.String())
		}
	}
	return out, nil
}

// promptForAddress asks the operator to pick one of several addresses
// bound to the requested interface, covering spec §6's "interface not
// found or user failed to select one" exit-1 case.
func promptForAddress(addrs []string, in *bufio.Reader, out *os.File) (string, error) {
	fmt.Fprintln(out, "multiple addresses found on the requested interface:")
	for i, addr := range addrs {
		fmt.Fprintf(out, "  [%d] %s\n", i+1, addr)
	}
	fmt.Fprint(out, "select one: ")

	line, err := in.ReadString('\n')
	if err != nil {
		return "", err
	}

	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || idx < 1 || idx > len(addrs) {
		return "", fmt.Errorf("invalid selection %q", strings.TrimSpace(line))
	}
	return addrs[idx-1], nil
}
