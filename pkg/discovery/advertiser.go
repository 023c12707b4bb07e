package discovery

import (
	"context"
	"time"
)

// AdvertiserConfig configures a host advertiser.
type AdvertiserConfig struct {
	// Interface restricts advertising to a named network interface.
	// Empty means all interfaces.
	Interface string

	// TTL is the mDNS record TTL. Zero uses the library default.
	TTL time.Duration
}

// Advertiser announces a HostLink host on the local network.
type Advertiser interface {
	// Advertise starts announcing the host. Replaces any previous
	// announcement.
	Advertise(ctx context.Context, info *HostInfo) error

	// Update replaces the TXT records of the running announcement.
	Update(info *HostInfo) error

	// Stop withdraws the announcement.
	Stop() error
}
