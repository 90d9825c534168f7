package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/jwebster45206/critfumble/pkg/narrative"
)

// DefaultGeoAPIURL is the ip-api.com JSON endpoint.
const DefaultGeoAPIURL = "http://ip-api.com/json"

const geoFields = "status,message,city,regionName,query"

// Placeholder locations, one per way a lookup can end without a real place.
var (
	LocalLocation     = narrative.Location{City: "their cozy terminal", Region: "the digital ether"}
	AnonymousLocation = narrative.Location{City: "an anonymous user", Region: "somewhere out there"}
	FailedLocation    = narrative.Location{City: "parts unknown", Region: "a mysterious land"}
	TimeoutLocation   = narrative.Location{City: "a realm beyond reach", Region: "the mists of time"}
	RequestLocation   = narrative.Location{City: "a digital realm", Region: "the boundless interwebs"}
	UnknownLocation   = narrative.Location{City: "a place beyond perception", Region: "the void"}
)

var cgnat = netip.MustParsePrefix("100.64.0.0/10")

// LocationResolver maps a caller address to a display-safe location. It
// never fails; degraded lookups return a placeholder.
type LocationResolver interface {
	Resolve(ctx context.Context, addr string) narrative.Location
}

// GeoResolver resolves public addresses through an ip-api compatible
// endpoint, optionally caching answers.
type GeoResolver struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// Ensure GeoResolver implements LocationResolver interface
var _ LocationResolver = (*GeoResolver)(nil)

// NewGeoResolver creates a resolver. cache may be nil.
func NewGeoResolver(baseURL string, timeout time.Duration, cache Cache, cacheTTL time.Duration, logger *slog.Logger) *GeoResolver {
	if baseURL == "" {
		baseURL = DefaultGeoAPIURL
	}
	return &GeoResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

type geoResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	City       string `json:"city"`
	RegionName string `json:"regionName"`
}

// IsLocalAddr reports whether addr never leaves the local network.
func IsLocalAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsUnspecified() || cgnat.Contains(addr)
}

// Resolve returns the location for addr.
func (g *GeoResolver) Resolve(ctx context.Context, addr string) narrative.Location {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return AnonymousLocation
	}
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		g.logger.Debug("Unparseable client address", "error", err)
		return AnonymousLocation
	}
	if IsLocalAddr(ip) {
		return LocalLocation
	}

	key := geoCacheKey(ip)
	if g.cache != nil {
		var cached narrative.Location
		hit, err := getJSON(ctx, g.cache, key, &cached)
		if err != nil {
			g.logger.Warn("Geolocation cache read failed", "error", err)
		} else if hit {
			return cached
		}
	}

	loc, ok := g.lookup(ctx, ip)
	if ok && g.cache != nil {
		if err := setJSON(ctx, g.cache, key, loc, g.cacheTTL); err != nil {
			g.logger.Warn("Geolocation cache write failed", "error", err)
		}
	}
	return loc
}

// lookup calls the external service. ok is false for placeholders.
func (g *GeoResolver) lookup(ctx context.Context, ip netip.Addr) (narrative.Location, bool) {
	endpoint := fmt.Sprintf("%s/%s?fields=%s", g.baseURL, url.PathEscape(ip.String()), geoFields)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		g.logger.Error("Failed to build geolocation request", "error", err)
		return UnknownLocation, false
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			g.logger.Warn("Geolocation lookup timed out")
			return TimeoutLocation, false
		}
		g.logger.Warn("Geolocation request failed", "error", err)
		return RequestLocation, false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("Geolocation service returned error", "status_code", resp.StatusCode)
		return RequestLocation, false
	}

	var body geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if isTimeout(err) {
			return TimeoutLocation, false
		}
		g.logger.Warn("Failed to decode geolocation response", "error", err)
		return UnknownLocation, false
	}

	if body.Status != "success" {
		g.logger.Info("Geolocation lookup unsuccessful", "message", body.Message)
		return FailedLocation, false
	}

	loc := narrative.Location{City: body.City, Region: body.RegionName}
	if loc.City == "" && loc.Region == "" {
		return FailedLocation, false
	}
	return loc, true
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func geoCacheKey(ip netip.Addr) string {
	sum := sha256.Sum256([]byte(ip.String()))
	return "geo:" + hex.EncodeToString(sum[:])
}

// ClientAddr extracts the caller address from a request, preferring the
// first X-Forwarded-For hop.
func ClientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
