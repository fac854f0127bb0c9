package gateway

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// ClientInfo is the classifier output: the stable client identifier plus the
// request surfaces the threat matcher scans.
type ClientInfo struct {
	IP        string
	UserAgent string
	Referer   string
	// Query is the URL-decoded query string. When decoding fails the raw
	// query is kept and Malformed is set.
	Query     string
	Malformed bool
}

// Classify extracts a deterministic client identifier and scan surfaces from
// a request. IP precedence handles common proxy layers: Cloudflare first,
// then X-Real-IP, then the first X-Forwarded-For hop, then the direct
// connection address. Pure function, no side effects.
func Classify(r *http.Request) ClientInfo {
	info := ClientInfo{
		IP:        clientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
		Referer:   r.Header.Get("Referer"),
	}

	raw := ""
	if r.URL != nil {
		raw = r.URL.RawQuery
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		info.Query = raw
		info.Malformed = true
	} else {
		info.Query = decoded
	}

	return info
}

func clientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return "127.0.0.1"
}
