package java

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/pires/go-proxyproto"
)

func TestNewProxyProtocolListener(t *testing.T) {
	tt := []struct {
		name         string
		trustedCIDRs []string
		err          error
		wantAddr     string
	}{
		{
			name:         "trusted upstream",
			trustedCIDRs: []string{"127.0.0.0/8"},
			wantAddr:     "203.0.113.7:41000",
		},
		{
			name:         "untrusted upstream",
			trustedCIDRs: []string{"10.0.0.0/8"},
			err:          ErrUpstreamNotTrusted,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			l, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				t.Fatal(err)
			}
			defer l.Close()

			ppl, err := NewProxyProtocolListener(l, tc.trustedCIDRs)
			if err != nil {
				t.Fatal(err)
			}

			go func() {
				c, err := net.Dial("tcp", l.Addr().String())
				if err != nil {
					return
				}
				defer c.Close()

				header := &proxyproto.Header{
					Version:           2,
					Command:           proxyproto.PROXY,
					TransportProtocol: proxyproto.TCPv4,
					SourceAddr:        &net.TCPAddr{IP: net.IPv4(203, 0, 113, 7).To4(), Port: 41000},
					DestinationAddr:   &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1).To4(), Port: 25565},
				}
				_, _ = header.WriteTo(c)
				time.Sleep(100 * time.Millisecond)
			}()

			c, err := ppl.Accept()
			if !errors.Is(err, tc.err) {
				t.Fatalf("got: %v, want: %v", err, tc.err)
			}
			if tc.err != nil {
				return
			}
			defer c.Close()

			if got := c.RemoteAddr().String(); got != tc.wantAddr {
				t.Errorf("got: %s, want: %s", got, tc.wantAddr)
			}
		})
	}
}

func TestNewProxyProtocolListener_InvalidConfig(t *testing.T) {
	if _, err := NewProxyProtocolListener(nil, nil); !errors.Is(err, ErrNoTrustedCIDRs) {
		t.Errorf("got: %v, want: %v", err, ErrNoTrustedCIDRs)
	}
	if _, err := NewProxyProtocolListener(nil, []string{"not a cidr"}); err == nil {
		t.Error("expected a parse error")
	}
}
