package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Location is the best-effort geographic attribution of a network address.
type Location struct {
	IP      string
	City    string
	Region  string
	Country string
	Org     string
}

// Resolver turns a remote address into a Location. Implementations never fail
// the caller: on any error they return a placeholder Location.
type Resolver interface {
	Lookup(ctx context.Context, ip string) Location
}

// Unknown returns the placeholder used when the lookup fails.
func Unknown(ip string) Location {
	return Location{IP: ip, City: "Unknown", Region: "Unknown", Country: "Unknown", Org: "Unknown"}
}

// Local returns the placeholder used for private and loopback addresses.
func Local(ip string) Location {
	if ip == "" {
		ip = "local"
	}
	return Location{IP: ip, City: "Local", Region: "Local", Country: "Local", Org: "Localhost"}
}

// IsLocalIP reports whether the address is loopback or private and not worth
// sending to the lookup service.
func IsLocalIP(ip string) bool {
	if ip == "" {
		return true
	}
	return ip == "127.0.0.1" ||
		ip == "::1" ||
		strings.HasPrefix(ip, "10.") ||
		strings.HasPrefix(ip, "192.168.") ||
		strings.HasPrefix(ip, "172.")
}

// HTTPResolver looks addresses up against the ipapi.co JSON endpoint.
// Cancellation and deadlines are the caller's responsibility via ctx.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
	log     *zerolog.Logger
}

// NewHTTPResolver builds a resolver against baseURL (e.g. "https://ipapi.co").
func NewHTTPResolver(baseURL string, logger *zerolog.Logger) *HTTPResolver {
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		log:     logger,
	}
}

type lookupResponse struct {
	CountryName string `json:"country_name"`
	Region      string `json:"region"`
	City        string `json:"city"`
	Org         string `json:"org"`
}

// Lookup resolves the address, degrading to Local or Unknown placeholders.
func (r *HTTPResolver) Lookup(ctx context.Context, ip string) Location {
	if IsLocalIP(ip) {
		return Local(ip)
	}

	url := fmt.Sprintf("%s/%s/json/", r.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		r.log.Warn().Err(err).Str("ip", ip).Msg("build geo lookup request")
		return Unknown(ip)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warn().Err(err).Str("ip", ip).Msg("geo lookup failed")
		return Unknown(ip)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.log.Warn().Int("status", resp.StatusCode).Str("ip", ip).Msg("geo lookup non-200")
		return Unknown(ip)
	}

	var data lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		r.log.Warn().Err(err).Str("ip", ip).Msg("decode geo lookup response")
		return Unknown(ip)
	}

	loc := Location{
		IP:      ip,
		City:    data.City,
		Region:  data.Region,
		Country: data.CountryName,
		Org:     data.Org,
	}
	if loc.City == "" {
		loc.City = "Unknown"
	}
	if loc.Region == "" {
		loc.Region = "Unknown"
	}
	if loc.Country == "" {
		loc.Country = "Unknown"
	}
	if loc.Org == "" {
		loc.Org = "Unknown"
	}
	return loc
}

// StaticResolver returns a fixed location; used when lookups are disabled.
type StaticResolver struct{}

// Lookup returns the Local placeholder for local addresses and Unknown otherwise.
func (StaticResolver) Lookup(_ context.Context, ip string) Location {
	if IsLocalIP(ip) {
		return Local(ip)
	}
	return Unknown(ip)
}
