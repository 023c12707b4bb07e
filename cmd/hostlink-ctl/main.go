// Command hostlink-ctl is an interactive HostLink controller.
//
// It connects to a running application host over TLS, authenticates
// with a session token, and drives the host's capability surface from
// a REPL: creating remote objects, invoking methods, and reading and
// writing properties.
//
// Usage:
//
//	hostlink-ctl [flags]
//
// Flags:
//
//	-address string      Host address (host:port); skips discovery
//	-app string          Discover the host by application name via mDNS
//	-fingerprint string  Expected SHA-256 certificate fingerprint (hex)
//	-token string        Session token printed by the host
//	-protocol-log string Write protocol events to this .hlog file
//	-log-level string    Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Connect directly
//	hostlink-ctl -address 192.168.1.10:8460 -fingerprint ab12... -token s3cret
//
//	# Discover by app name (fingerprint comes from the TXT record)
//	hostlink-ctl -app shop -token s3cret
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hostlink-protocol/hostlink-go/cmd/hostlink-ctl/interactive"
	"github.com/hostlink-protocol/hostlink-go/pkg/bridge"
	"github.com/hostlink-protocol/hostlink-go/pkg/discovery"
	hlog "github.com/hostlink-protocol/hostlink-go/pkg/log"
)

// Config holds the controller configuration.
type Config struct {
	Address     string
	AppName     string
	Fingerprint string
	Token       string
	ProtocolLog string
	LogLevel    string
}

var config Config

func init() {
	flag.StringVar(&config.Address, "address", "", "Host address (host:port); skips discovery")
	flag.StringVar(&config.AppName, "app", "", "Discover the host by application name via mDNS")
	flag.StringVar(&config.Fingerprint, "fingerprint", "", "Expected SHA-256 certificate fingerprint (hex)")
	flag.StringVar(&config.Token, "token", "", "Session token printed by the host")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "Write protocol events to this .hlog file")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()
	setupLogging(config.LogLevel)

	address, fingerprint, err := resolveTarget()
	if err != nil {
		log.Fatalf("Failed to resolve host: %v", err)
	}

	var protocolLog hlog.Logger
	if config.ProtocolLog != "" {
		fileLogger, err := hlog.NewFileLogger(config.ProtocolLog)
		if err != nil {
			log.Fatalf("Failed to open protocol log: %v", err)
		}
		defer fileLogger.Close()
		protocolLog = fileLogger
	}

	ic, err := interactive.New(address, bridge.ClientConfig{
		Fingerprint: fingerprint,
		Token:       config.Token,
		AppName:     config.AppName,
		Logger:      protocolLog,
	})
	if err != nil {
		log.Fatalf("Failed to create interactive controller: %v", err)
	}
	defer ic.Close()

	// Route log output through readline so it does not clobber the
	// prompt.
	log.SetOutput(ic.Stdout())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Printf("Connecting to %s...", address)
	if err := ic.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	log.Printf("Connected to %s", address)

	ic.Run(ctx, cancel)
}

func setupLogging(level string) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case "warn", "error":
		log.SetFlags(log.Ltime)
	}
}

// resolveTarget determines the host address and pinned fingerprint,
// either from flags or via mDNS discovery.
func resolveTarget() (address, fingerprint string, err error) {
	if config.Address != "" {
		if config.Fingerprint == "" {
			return "", "", fmt.Errorf("-fingerprint is required with -address")
		}
		return config.Address, config.Fingerprint, nil
	}

	if config.AppName == "" {
		flag.Usage()
		os.Exit(2)
	}

	log.Printf("Discovering %q via mDNS...", config.AppName)
	browser := discovery.NewMDNSBrowser(discovery.BrowserConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), discovery.BrowseTimeout)
	defer cancel()

	svc, err := browser.FindByApp(ctx, config.AppName)
	if err != nil {
		return "", "", err
	}
	if len(svc.Addresses) == 0 {
		return "", "", fmt.Errorf("no addresses for %q", config.AppName)
	}

	fingerprint = svc.Fingerprint
	if config.Fingerprint != "" {
		fingerprint = config.Fingerprint
	}

	address = fmt.Sprintf("%s:%d", svc.Addresses[0], svc.Port)
	log.Printf("Found %s at %s (fingerprint %s...)", svc.InstanceName, address, shorten(fingerprint, 16))
	return address, fingerprint, nil
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
