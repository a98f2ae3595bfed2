// Package ipfilter allows or denies connections by the network of their
// remote address.
package ipfilter

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"sync"
)

var (
	ErrIPNotAllowed = errors.New("ip not allowed")
	ErrUnknownMode  = errors.New("unknown ip filter mode")
)

type Mode string

const (
	// ModeAllow only lets listed networks through.
	ModeAllow Mode = "allow"
	// ModeDeny lets everyone through except listed networks.
	ModeDeny Mode = "deny"
)

type Config struct {
	Mode  Mode     `mapstructure:"mode"`
	CIDRs []string `mapstructure:"cidrs"`
}

type IPFilter struct {
	mode Mode

	mu       sync.RWMutex
	prefixes map[netip.Prefix]struct{}
}

func New(cfg Config) (*IPFilter, error) {
	switch cfg.Mode {
	case ModeAllow, ModeDeny:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}

	f := &IPFilter{
		mode:     cfg.Mode,
		prefixes: map[netip.Prefix]struct{}{},
	}

	for _, cidr := range cfg.CIDRs {
		if err := f.Add(cidr); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// parsePrefix accepts CIDR notation as well as single addresses.
func parsePrefix(s string) (netip.Prefix, error) {
	if !strings.Contains(s, "/") {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return netip.Prefix{}, err
		}
		addr = addr.Unmap()
		return netip.PrefixFrom(addr, addr.BitLen()), nil
	}

	prefix, err := netip.ParsePrefix(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	return prefix.Masked(), nil
}

func (f *IPFilter) Add(cidr string) error {
	prefix, err := parsePrefix(cidr)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.prefixes[prefix] = struct{}{}
	f.mu.Unlock()
	return nil
}

func (f *IPFilter) Remove(cidr string) error {
	prefix, err := parsePrefix(cidr)
	if err != nil {
		return err
	}

	f.mu.Lock()
	delete(f.prefixes, prefix)
	f.mu.Unlock()
	return nil
}

func (f *IPFilter) listed(ip netip.Addr) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for prefix := range f.prefixes {
		if prefix.Contains(ip) {
			return true
		}
	}
	return false
}

func (f *IPFilter) IsAllowed(ip netip.Addr) bool {
	listed := f.listed(ip.Unmap())
	if f.mode == ModeAllow {
		return listed
	}
	return !listed
}

// Filter rejects c if its remote IP is not allowed. Addresses that are
// not IPs are rejected in allow mode and let through in deny mode.
func (f *IPFilter) Filter(c net.Conn) error {
	addrPort, err := netip.ParseAddrPort(c.RemoteAddr().String())
	if err != nil {
		if f.mode == ModeDeny {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrIPNotAllowed, c.RemoteAddr())
	}

	if !f.IsAllowed(addrPort.Addr()) {
		return fmt.Errorf("%w: %s", ErrIPNotAllowed, addrPort.Addr())
	}
	return nil
}
