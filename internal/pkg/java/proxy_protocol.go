package java

import (
	"errors"
	"net"
	"net/netip"

	"github.com/pires/go-proxyproto"
)

var (
	ErrUpstreamNotTrusted = errors.New("upstream not trusted")
	ErrNoTrustedCIDRs     = errors.New("no trusted CIDRs")
)

type ProxyProtocolConfig struct {
	Receive      bool     `mapstructure:"receive"`
	TrustedCIDRs []string `mapstructure:"trustedCIDRs"`
}

// NewProxyProtocolListener requires a PROXY protocol header from upstreams
// inside trustedCIDRs and rejects everyone else. RemoteAddr of accepted
// connections is the client address from the header.
func NewProxyProtocolListener(l net.Listener, trustedCIDRs []string) (net.Listener, error) {
	if len(trustedCIDRs) == 0 {
		return nil, ErrNoTrustedCIDRs
	}

	prefixes := make([]netip.Prefix, len(trustedCIDRs))
	for i, cidr := range trustedCIDRs {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, err
		}
		prefixes[i] = prefix
	}

	return &proxyproto.Listener{
		Listener: l,
		Policy: func(upstream net.Addr) (proxyproto.Policy, error) {
			tcpAddr, ok := upstream.(*net.TCPAddr)
			if !ok {
				return proxyproto.REJECT, errors.New("not a tcp conn")
			}

			ip, ok := netip.AddrFromSlice(tcpAddr.IP)
			if !ok {
				return proxyproto.REJECT, ErrUpstreamNotTrusted
			}
			ip = ip.Unmap()

			for _, prefix := range prefixes {
				if prefix.Contains(ip) {
					return proxyproto.REQUIRE, nil
				}
			}
			return proxyproto.REJECT, ErrUpstreamNotTrusted
		},
	}, nil
}
