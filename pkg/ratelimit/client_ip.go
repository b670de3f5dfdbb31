package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// IPResolver picks the client address that limiters key on. Forwarding
// headers are only believed when the direct peer is a trusted proxy, so a
// client cannot pick its own bucket by sending X-Forwarded-For.
type IPResolver struct {
	trusted []*net.IPNet
}

// NewIPResolver parses trusted proxies given as single IPs or CIDR blocks.
// An empty list trusts nobody and always uses RemoteAddr.
func NewIPResolver(proxies []string) (*IPResolver, error) {
	r := &IPResolver{}
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", p)
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			p = fmt.Sprintf("%s/%d", ip.String(), bits)
		}
		_, network, err := net.ParseCIDR(p)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		r.trusted = append(r.trusted, network)
	}
	return r, nil
}

// ClientIP returns the address of the request's originator. A nil resolver
// behaves like one with no trusted proxies.
//
// When the peer is trusted, X-Forwarded-For is walked from the right and
// the first hop that is not itself a trusted proxy wins. X-Real-IP is the
// fallback for proxies that only set that header.
func (r *IPResolver) ClientIP(req *http.Request) string {
	peer := remoteHost(req.RemoteAddr)
	if r == nil || !r.isTrusted(peer) {
		return peer
	}

	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				break
			}
			if !r.isTrusted(hop) {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(req.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return peer
}

func (r *IPResolver) isTrusted(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, network := range r.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
