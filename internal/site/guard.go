package site

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

const maxRedirects = 5

// ErrBlockedAddress is returned when a website resolves to an address the
// inspector refuses to contact, such as loopback or a private network.
var ErrBlockedAddress = errors.New("website address not allowed")

// sharedAddressSpace is the carrier-grade NAT range (RFC 6598), which
// netip does not classify as private.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// publicTransport returns a transport that only dials public unicast
// addresses. The check runs on the resolved address at connect time, so a
// hostname pointing at an internal IP is refused too. Proxies are disabled
// because a proxy would connect on our behalf.
func publicTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   refuseInternal,
	}
	return &http.Transport{
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// refuseInternal is a net.Dialer Control hook.
func refuseInternal(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	if !publicAddr(addr) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, addr)
	}
	return nil
}

// publicAddr reports whether addr is a globally routable unicast address.
func publicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	switch {
	case !addr.IsValid(),
		addr.IsUnspecified(),
		addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast(),
		sharedAddressSpace.Contains(addr):
		return false
	}
	return addr.IsGlobalUnicast()
}

// limitRedirects stops after maxRedirects hops and refuses redirects that
// leave http(s).
func limitRedirects(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("redirect to %q: unsupported scheme", req.URL.Scheme)
	}
	return nil
}
