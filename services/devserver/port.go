// Copyright 2023 AI Redefined Inc. <dev+cogment@ai-r.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package devserver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
)

type NetChecker struct {
	host string
}

func NewNetChecker(host string) *NetChecker {
	nc := new(NetChecker)
	nc.host = host
	return nc
}

func (nc *NetChecker) TCPPort(port uint) error {
	listener, err := net.Listen("tcp", net.JoinHostPort(nc.host, strconv.FormatUint(uint64(port), 10)))
	if err != nil {
		return err
	}
	listener.Close()

	return nil
}

// FreePort returns the first available port starting at from
func (nc *NetChecker) FreePort(from uint) (uint, error) {
	var lastErr error
	for port := from; port <= 65535; port++ {
		lastErr = nc.TCPPort(port)
		if lastErr == nil {
			return port, nil
		}
		if !isAddrInUse(lastErr) {
			return 0, lastErr
		}
	}
	return 0, fmt.Errorf("no available port above %d: %w", from, lastErr)
}

func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}

// ChoosePort checks that the requested port is available.
//
// When it isn't, an interactive user is offered to use the next available
// one. A zero port is returned when the user declines or isn't asked.
func ChoosePort(host string, port uint, interactive bool, in io.Reader, out io.Writer) (uint, error) {
	nc := NewNetChecker(host)
	err := nc.TCPPort(port)
	if err == nil {
		return port, nil
	}
	if !isAddrInUse(err) {
		return 0, fmt.Errorf("could not find an open port at %s: %w", color.New(color.Bold).Sprint(host), err)
	}

	nextPort, err := nc.FreePort(port + 1)
	if err != nil {
		return 0, fmt.Errorf("could not find an open port at %s: %w", color.New(color.Bold).Sprint(host), err)
	}

	message := fmt.Sprintf("Something is already running on port %d.", port)
	if !interactive {
		color.New(color.FgYellow).Fprintln(out, message)
		return 0, nil
	}

	color.New(color.FgYellow).Fprintf(out, "%s\n\nWould you like to run the app on another port instead? (Y/n) ", message)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "", "y", "yes":
		return nextPort, nil
	}
	return 0, nil
}

type URLs struct {
	LanURLForConfig     string
	LocalURLForTerminal string
	LocalURLForBrowser  string
	LanURLForTerminal   string
}

// PrepareURLs computes the urls the dev server is reachable at
func PrepareURLs(protocol string, host string, port uint) URLs {
	format := func(hostname string) string {
		return fmt.Sprintf("%s://%s/", protocol, net.JoinHostPort(hostname, strconv.FormatUint(uint64(port), 10)))
	}
	prettyFormat := func(hostname string) string {
		return fmt.Sprintf("%s://%s:%s/", protocol, hostname, color.New(color.Bold).Sprint(port))
	}

	isUnspecified := host == "0.0.0.0" || host == "::"
	prettyHost := host
	if isUnspecified {
		prettyHost = "localhost"
	}

	urls := URLs{
		LocalURLForTerminal: prettyFormat(prettyHost),
		LocalURLForBrowser:  format(prettyHost),
	}

	if isUnspecified {
		if lanIP := privateIPv4(); lanIP != nil {
			urls.LanURLForConfig = lanIP.String()
			urls.LanURLForTerminal = prettyFormat(lanIP.String())
		}
	}
	return urls
}

func privateIPv4() net.IP {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		log.WithField("error", err).Debug("Unable to list the network interfaces")
		return nil
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil && ip.IsPrivate() {
			return ip
		}
	}
	return nil
}
