package http

import (
	"net"
	"net/http"
	"strings"
)

const maxUserAgentLen = 256

// IPConfig lists the proxies whose forwarding headers are believed
type IPConfig struct {
	TrustedProxies []*net.IPNet
}

// NewIPConfig parses comma-separated CIDR ranges. Invalid entries are skipped
// and returned so the caller can log them.
func NewIPConfig(cidrs string) (*IPConfig, []string) {
	cfg := &IPConfig{}
	var invalid []string

	for _, raw := range strings.Split(cidrs, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		_, ipNet, err := net.ParseCIDR(raw)
		if err != nil {
			invalid = append(invalid, raw)
			continue
		}
		cfg.TrustedProxies = append(cfg.TrustedProxies, ipNet)
	}

	return cfg, invalid
}

// ExtractClientIP returns the client address. X-Forwarded-For and X-Real-IP
// are only read when the direct peer is a trusted proxy. X-Forwarded-For is
// walked from the right, skipping trusted proxies: entries left of the first
// untrusted hop were written by the client and are ignored.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	remoteIP := remoteAddr(r)

	if config == nil || !config.trusts(remoteIP) {
		return remoteIP
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip := strings.TrimSpace(hops[i])
			if net.ParseIP(ip) == nil {
				break
			}
			if !config.trusts(ip) {
				return ip
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}

	return remoteIP
}

// UserAgent returns the request's user agent, truncated for storage
func UserAgent(r *http.Request) string {
	ua := r.UserAgent()
	if len(ua) > maxUserAgentLen {
		ua = ua[:maxUserAgentLen]
	}
	return ua
}

func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

func (c *IPConfig) trusts(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, ipNet := range c.TrustedProxies {
		if ipNet.Contains(parsed) {
			return true
		}
	}
	return false
}
