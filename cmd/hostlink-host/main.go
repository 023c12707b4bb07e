// Command hostlink-host is a reference HostLink application host.
//
// It serves a sample application model (a resource builder with
// containers, executables, and parameters) over the capability bridge
// so a controller can drive it remotely.
//
// Usage:
//
//	hostlink-host [flags]
//
// Flags:
//
//	-app string        Application name advertised via mDNS (default "hostlink-app")
//	-port int          Listen port (default 8460)
//	-state-dir string  Directory for the TLS identity (default "hostlink-state")
//	-token string      Session token (random if empty)
//	-config string     Surface configuration file (YAML)
//	-protocol-log string  Write protocol events to this .hlog file
//	-no-mdns           Disable mDNS advertisement
//	-log-level string  Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Start with a generated identity and a random session token
//	hostlink-host -app shop
//
//	# Allow extension assemblies from a config file, record traffic
//	hostlink-host -app shop -config surface.yaml -protocol-log session.hlog
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"strconv"
	"syscall"

	"github.com/hostlink-protocol/hostlink-go/pkg/bridge"
	"github.com/hostlink-protocol/hostlink-go/pkg/capability"
	"github.com/hostlink-protocol/hostlink-go/pkg/cert"
	"github.com/hostlink-protocol/hostlink-go/pkg/discovery"
	"github.com/hostlink-protocol/hostlink-go/pkg/dispatch"
	"github.com/hostlink-protocol/hostlink-go/pkg/handle"
	"github.com/hostlink-protocol/hostlink-go/pkg/intrinsics"
	hlog "github.com/hostlink-protocol/hostlink-go/pkg/log"
	"github.com/hostlink-protocol/hostlink-go/pkg/marshal"
	"github.com/hostlink-protocol/hostlink-go/pkg/policy"
	"github.com/hostlink-protocol/hostlink-go/pkg/resource"
	"github.com/hostlink-protocol/hostlink-go/pkg/session"
	"github.com/hostlink-protocol/hostlink-go/pkg/version"
)

// Config holds the host configuration.
type Config struct {
	AppName     string
	Port        int
	StateDir    string
	Token       string
	ConfigFile  string
	ProtocolLog string
	NoMDNS      bool
	LogLevel    string
}

var config Config

func init() {
	flag.StringVar(&config.AppName, "app", "hostlink-app", "Application name advertised via mDNS")
	flag.IntVar(&config.Port, "port", 8460, "Listen port")
	flag.StringVar(&config.StateDir, "state-dir", "hostlink-state", "Directory for the TLS identity")
	flag.StringVar(&config.Token, "token", "", "Session token (random if empty)")
	flag.StringVar(&config.ConfigFile, "config", "", "Surface configuration file (YAML)")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "Write protocol events to this .hlog file")
	flag.BoolVar(&config.NoMDNS, "no-mdns", false, "Disable mDNS advertisement")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()
	setupLogging(config.LogLevel)

	log.Println("HostLink Reference Host")
	log.Println("=======================")
	log.Printf("App: %s", config.AppName)
	log.Printf("Port: %d", config.Port)
	log.Printf("Protocol version: %s", version.Current)

	identity, err := loadOrCreateIdentity(config.StateDir)
	if err != nil {
		log.Fatalf("Failed to load TLS identity: %v", err)
	}
	fingerprint := cert.Fingerprint(identity.Certificate)
	log.Printf("Certificate fingerprint: %s", fingerprint)

	sess, err := createSession(config.Token)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	fmt.Printf("\nSession token: %s\n\n", sess.Token())

	surface, err := buildSurface(config.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to build capability surface: %v", err)
	}
	log.Printf("Allowed assemblies: %v", surface.Allowlist())

	m := marshal.New(surface, handle.NewRegistry(), intrinsics.NewRegistry())
	d := dispatch.New(surface, policy.FromSurface(surface), m)
	d.SetAuthenticator(sess)

	var protocolLog hlog.Logger
	if config.ProtocolLog != "" {
		fileLogger, err := hlog.NewFileLogger(config.ProtocolLog)
		if err != nil {
			log.Fatalf("Failed to open protocol log: %v", err)
		}
		defer fileLogger.Close()
		protocolLog = fileLogger
		log.Printf("Recording protocol events to %s", config.ProtocolLog)
	}

	host, err := bridge.NewHost(bridge.HostConfig{
		Dispatcher: d,
		Marshaller: m,
		Identity:   identity,
		Address:    fmt.Sprintf(":%d", config.Port),
		AppName:    config.AppName,
		Logger:     protocolLog,
	})
	if err != nil {
		log.Fatalf("Failed to create host: %v", err)
	}

	if err := host.Start(); err != nil {
		log.Fatalf("Failed to start host: %v", err)
	}
	log.Printf("Listening on %s", host.Address())

	var advertiser discovery.Advertiser
	if !config.NoMDNS {
		advertiser, err = startAdvertisement(host.Address(), fingerprint)
		if err != nil {
			log.Printf("Warning: mDNS advertisement failed: %v", err)
			advertiser = nil
		} else {
			log.Printf("Advertising %s via mDNS", config.AppName)
		}
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Printf("Received signal: %v", sig)
	log.Println("Shutting down...")

	if advertiser != nil {
		advertiser.Stop()
	}
	if err := host.Stop(); err != nil {
		log.Printf("Error stopping host: %v", err)
	}

	log.Println("Goodbye!")
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

// loadOrCreateIdentity loads the host certificate from the state
// directory, generating and persisting a fresh one on first run.
func loadOrCreateIdentity(stateDir string) (*cert.Identity, error) {
	certPath := filepath.Join(stateDir, "host.crt")
	keyPath := filepath.Join(stateDir, "host.key")

	if identity, err := cert.Load(certPath, keyPath); err == nil {
		return identity, nil
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	identity, err := cert.Generate("hostlink-host", hostname, "localhost", "127.0.0.1")
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, err
	}
	if err := identity.Save(certPath, keyPath); err != nil {
		return nil, err
	}
	log.Printf("Generated new identity in %s", stateDir)
	return identity, nil
}

func createSession(token string) (*session.Session, error) {
	if token != "" {
		return session.New(token)
	}
	return session.NewRandom()
}

// buildSurface declares the sample application model. An optional
// config file extends the allowlist with extension assemblies.
func buildSurface(configFile string) (*capability.Surface, error) {
	surface := capability.NewSurface()

	hosting := surface.AddAssembly("HostLink.Hosting")
	hosting.AddType("Builder", reflect.TypeOf((*resource.Builder)(nil))).
		SetConstructor(resource.NewBuilder)
	hosting.AddType("Container", reflect.TypeOf((*resource.ContainerResource)(nil))).
		SetConstructor(resource.NewContainerResource)
	hosting.AddType("Executable", reflect.TypeOf((*resource.ExecutableResource)(nil))).
		SetConstructor(func(name, command string) *resource.ExecutableResource {
			return resource.NewExecutableResource(name, command)
		})
	hosting.AddType("Environment", reflect.TypeOf(struct{}{})).
		AddStaticMethod("hostname", func() string {
			name, err := os.Hostname()
			if err != nil {
				return "unknown"
			}
			return name
		}).
		AddStaticProperty("protocolVersion",
			func() string { return version.Current },
			nil)

	surface.Allow("HostLink.Hosting")

	if configFile != "" {
		cfg, err := capability.LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
		cfg.Apply(surface)
		log.Printf("Loaded surface config from %s", configFile)
	}

	if err := surface.Freeze(); err != nil {
		return nil, err
	}
	return surface, nil
}

func startAdvertisement(addr net.Addr, fingerprint string) (discovery.Advertiser, error) {
	_, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	info := &discovery.HostInfo{
		AppName:         config.AppName,
		Fingerprint:     fingerprint,
		ProtocolVersion: version.Current,
		Port:            uint16(port),
	}

	advertiser := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{})
	if err := advertiser.Advertise(context.Background(), info); err != nil {
		return nil, err
	}
	return advertiser, nil
}
