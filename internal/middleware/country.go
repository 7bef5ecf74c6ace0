package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type countryKey struct{}

// CountryLookup resolves an ISO country code for an IP address.
type CountryLookup func(ip string) (string, error)

// edge proxies that already geolocate the client
var countryHeaders = []string{"CF-IPCountry", "X-Country-Code", "X-Vercel-IP-Country", "X-Appengine-Country"}

// Country stores a best-effort ISO country code in the request context for
// analytics. Proxy headers win over the GeoIP lookup.
func Country(lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if country := ResolveCountry(r, lookup); country != "" {
				r = r.WithContext(context.WithValue(r.Context(), countryKey{}, country))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ResolveCountry returns an upper-case country code or "".
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	for _, key := range countryHeaders {
		// XX and T1 are the unknown and Tor markers some proxies send.
		if v := strings.ToUpper(strings.TrimSpace(r.Header.Get(key))); len(v) == 2 && v != "XX" && v != "T1" {
			return v
		}
	}
	if lookup == nil {
		return ""
	}
	ip := ClientIP(r)
	if ip == "" {
		return ""
	}
	country, err := lookup(ip)
	if err != nil {
		return ""
	}
	return strings.ToUpper(country)
}

// CountryFromContext returns the code stored by Country.
func CountryFromContext(ctx context.Context) string {
	v, _ := ctx.Value(countryKey{}).(string)
	return v
}

// ClientIP returns the first valid X-Forwarded-For address, else the remote host.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			if ip := strings.TrimSpace(part); net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
