package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jwebster45206/critfumble/pkg/narrative"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const publicAddr = "8.8.8.8"

func geoServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestIsLocalAddr(t *testing.T) {
	for addr, want := range map[string]bool{
		"127.0.0.1":       true,
		"::1":             true,
		"10.1.2.3":        true,
		"172.16.0.9":      true,
		"192.168.1.1":     true,
		"100.64.0.1":      true,
		"100.127.255.254": true,
		"169.254.10.10":   true,
		"0.0.0.0":         true,
		"::ffff:10.0.0.1": true,
		"100.128.0.1":     false,
		"8.8.8.8":         false,
		"2001:4860::8888": false,
	} {
		assert.Equal(t, want, IsLocalAddr(netip.MustParseAddr(addr)), addr)
	}
}

func TestGeoResolver_LocalNeverCallsOut(t *testing.T) {
	srv, calls := geoServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected lookup for %s", r.URL.Path)
	})
	g := NewGeoResolver(srv.URL, time.Second, nil, 0, quietLogger())

	for _, addr := range []string{"127.0.0.1", "192.168.0.4", "100.70.1.1"} {
		assert.Equal(t, LocalLocation, g.Resolve(context.Background(), addr))
	}
	assert.Equal(t, AnonymousLocation, g.Resolve(context.Background(), ""))
	assert.Equal(t, AnonymousLocation, g.Resolve(context.Background(), "not-an-ip"))
	assert.Zero(t, calls.Load())
}

func TestGeoResolver_Success(t *testing.T) {
	srv, _ := geoServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+publicAddr, r.URL.Path)
		assert.Equal(t, geoFields, r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(`{"status":"success","city":"Mountain View","regionName":"California","query":"8.8.8.8"}`))
	})
	g := NewGeoResolver(srv.URL, time.Second, nil, 0, quietLogger())

	loc := g.Resolve(context.Background(), publicAddr)
	assert.Equal(t, narrative.Location{City: "Mountain View", Region: "California"}, loc)
}

func TestGeoResolver_Degraded(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    narrative.Location
	}{
		{
			name: "status fail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
			},
			want: FailedLocation,
		},
		{
			name: "http error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			want: RequestLocation,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
			want: UnknownLocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := geoServer(t, tt.handler)
			g := NewGeoResolver(srv.URL, time.Second, nil, 0, quietLogger())
			assert.Equal(t, tt.want, g.Resolve(context.Background(), publicAddr))
		})
	}
}

func TestGeoResolver_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv, _ := geoServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	g := NewGeoResolver(srv.URL, 50*time.Millisecond, nil, 0, quietLogger())
	start := time.Now()
	loc := g.Resolve(context.Background(), publicAddr)

	assert.Equal(t, TimeoutLocation, loc)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGeoResolver_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g := NewGeoResolver(url, time.Second, nil, 0, quietLogger())
	assert.Equal(t, RequestLocation, g.Resolve(context.Background(), publicAddr))
}

func TestGeoResolver_CachesSuccess(t *testing.T) {
	_, cache := setupTestRedis(t)
	srv, calls := geoServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","city":"Lyon","regionName":"Auvergne"}`))
	})
	g := NewGeoResolver(srv.URL, time.Second, cache, time.Hour, quietLogger())

	first := g.Resolve(context.Background(), publicAddr)
	second := g.Resolve(context.Background(), publicAddr)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	raw, ok, err := cache.Get(context.Background(), geoCacheKey(netip.MustParseAddr(publicAddr)))
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, publicAddr)
}

func TestGeoResolver_DoesNotCacheFailures(t *testing.T) {
	cache := NewMockCache()
	srv, calls := geoServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail"}`))
	})
	g := NewGeoResolver(srv.URL, time.Second, cache, time.Hour, quietLogger())

	g.Resolve(context.Background(), publicAddr)
	g.Resolve(context.Background(), publicAddr)
	assert.Equal(t, int32(2), calls.Load())
	assert.Empty(t, cache.SetCalls)
	for _, key := range cache.GetCalls {
		assert.True(t, strings.HasPrefix(key, "geo:"))
		assert.NotContains(t, key, publicAddr)
	}
}

func TestClientAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/roll", nil)
	r.RemoteAddr = "203.0.113.7:5150"
	assert.Equal(t, "203.0.113.7", ClientAddr(r))

	r.Header.Set("X-Forwarded-For", " 198.51.100.4 , 10.0.0.1")
	assert.Equal(t, "198.51.100.4", ClientAddr(r))
}
