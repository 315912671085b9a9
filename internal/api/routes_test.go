package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"wahlkreis-api/internal/catalog"
	"wahlkreis-api/internal/geo"
	"wahlkreis-api/internal/geocode"
	"wahlkreis-api/internal/geoip"
	"wahlkreis-api/internal/logger"
	"wahlkreis-api/internal/recommend"
	"wahlkreis-api/internal/resolve"
	"wahlkreis-api/internal/topic"
)

type stubGeocoder struct{}

func (stubGeocoder) Geocode(_ context.Context, address, _ string) geocode.Result {
	if strings.Contains(address, "Platz der Republik") {
		return geocode.Result{Lat: 52.5186, Lon: 13.3761, Success: true}
	}
	return geocode.Result{Reason: geocode.ReasonNoMatch}
}

type stubHinter map[string]geoip.Hint

func (s stubHinter) PostalHint(ip string) (geoip.Hint, error) {
	if h, ok := s[ip]; ok {
		return h, nil
	}
	return geoip.Hint{}, geoip.ErrNoHint
}

type APISuite struct {
	suite.Suite
	ready atomic.Bool
	srv   *httptest.Server
}

func (s *APISuite) SetupSuite() {
	logger.Use(logger.Discard())
	now := func() time.Time { return time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC) }

	idx, err := geo.LoadIndex(
		filepath.Join("..", "geo", "testdata", "federal.geojson"),
		filepath.Join("..", "geo", "testdata", "states"),
		geo.DefaultFields(),
	)
	s.Require().NoError(err)
	store, err := catalog.LoadFixture(filepath.Join("..", "catalog", "testdata", "catalog.yaml"))
	s.Require().NoError(err)
	tx, err := topic.DefaultTaxonomy()
	s.Require().NoError(err)

	cl := topic.NewClassifier(tx)
	res := resolve.NewResolver(stubGeocoder{}, idx, store, resolve.Options{NearestMaxKm: 2, Now: now})
	eng := recommend.NewEngine(cl, res, store, recommend.Options{Now: now})

	s.ready.Store(true)
	s.srv = httptest.NewServer(NewHandler(Deps{
		Suggester:  eng,
		Resolver:   res,
		Classifier: cl,
		Locator:    idx,
		GeoIP:      stubHinter{"93.184.216.34": {PostalCode: "10115", Country: "DE"}},
		Ready:      s.ready.Load,
	}, "/api/", logger.AccessMiddleware(logger.Discard())))
}

func (s *APISuite) TearDownSuite() { s.srv.Close() }

func (s *APISuite) post(path, body string, hdr ...string) (int, map[string]any) {
	req, err := http.NewRequest(http.MethodPost, s.srv.URL+path, strings.NewReader(body))
	s.Require().NoError(err)
	req.Header.Set("content-type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	return s.do(req)
}

func (s *APISuite) get(path string) (int, map[string]any) {
	req, err := http.NewRequest(http.MethodGet, s.srv.URL+path, nil)
	s.Require().NoError(err)
	return s.do(req)
}

func (s *APISuite) do(req *http.Request) (int, map[string]any) {
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal("application/json; charset=utf-8", resp.Header.Get("content-type"))
	var m map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&m))
	return resp.StatusCode, m
}

func (s *APISuite) TestSuggest() {
	code, m := s.post("/api/suggest", `{"concern":"Deutsche Bahn is always late","address":{"line":"Platz der Republik 1, 11011 Berlin"}}`)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(false, m["low_confidence"])
	s.Equal("federal", m["inferred_level"])
	s.NotEmpty(m["id"])
	cands := m["candidates"].([]any)
	s.Require().NotEmpty(cands)
	first := cands[0].(map[string]any)
	s.Equal("Anna Direkt", first["representative"].(map[string]any)["name"])
	s.NotEmpty(first["explanations"])
	s.Nil(m["location_source"])
}

func (s *APISuite) TestSuggestErrors() {
	cases := []struct {
		name, body, code string
	}{
		{"blank concern", `{"concern":"   "}`, "empty_concern"},
		{"missing concern", `{}`, "invalid_request"},
		{"bad json", `{"concern":`, "invalid_json"},
		{"bad postal code", `{"concern":"Mieten","address":{"postal_code":"1011"}}`, "invalid_request"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			status, m := s.post("/api/suggest", tc.body)
			s.Equal(http.StatusBadRequest, status)
			s.Equal(tc.code, m["error"])
		})
	}
}

func (s *APISuite) TestSuggestWithoutAddressIsLowConfidence() {
	code, m := s.post("/api/suggest", `{"concern":"Zu hohe Mieten"}`)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(true, m["low_confidence"])
	s.Empty(m["candidates"])
	s.Nil(m["resolution"])
}

func (s *APISuite) TestSuggestIPHint() {
	code, m := s.post("/api/suggest", `{"concern":"Zu hohe Mieten","use_ip_hint":true}`, "x-forwarded-for", "93.184.216.34, 10.0.0.1")
	s.Require().Equal(http.StatusOK, code)
	s.Equal(sourceIPHint, m["location_source"])
	s.Equal(true, m["low_confidence"])
	s.Equal("postal_prefix", m["resolution"].(map[string]any)["strategy"])
	s.NotEmpty(m["candidates"])

	code, m = s.post("/api/suggest", `{"concern":"Zu hohe Mieten","use_ip_hint":true}`, "x-forwarded-for", "198.51.100.1")
	s.Require().Equal(http.StatusOK, code)
	s.Nil(m["location_source"])
	s.Nil(m["resolution"])
}

func (s *APISuite) TestResolve() {
	code, m := s.post("/api/resolve", `{"address":{"postal_code":"10115"}}`)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(true, m["low_confidence"])
	res := m["resolution"].(map[string]any)
	s.Equal("coarse", res["confidence"])
	s.Equal("Berlin", res["region"])

	code, m = s.post("/api/resolve", `{"address":{"line":"Platz der Republik 1, 11011 Berlin"}}`)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(false, m["low_confidence"])
	s.Equal("precise", m["resolution"].(map[string]any)["confidence"])

	code, m = s.post("/api/resolve", `{"address":{}}`)
	s.Equal(http.StatusBadRequest, code)
	s.Equal("empty_address", m["error"])
}

func (s *APISuite) TestClassify() {
	code, m := s.post("/api/classify", `{"text":"Deutsche Bahn is always late"}`)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("federal", m["inferred_level"])
	topics := m["topics"].([]any)
	s.Require().NotEmpty(topics)
	s.Equal("transport", topics[0].(map[string]any)["topic"].(map[string]any)["id"])

	code, m = s.post("/api/classify", `{"text":" "}`)
	s.Equal(http.StatusBadRequest, code)
	s.Equal("empty_text", m["error"])
}

func (s *APISuite) TestLocate() {
	code, m := s.get("/api/locate?lat=52.5186&lon=13.3761")
	s.Require().Equal(http.StatusOK, code)
	fed := m["location"].(map[string]any)["federal"].(map[string]any)
	s.Equal(float64(75), fed["number"])
	s.Equal("coordinates", m["resolution"].(map[string]any)["strategy"])

	code, m = s.get("/api/locate?lat=48.8566&lon=2.3522")
	s.Require().Equal(http.StatusOK, code)
	s.Nil(m["location"].(map[string]any)["federal"])

	for _, q := range []string{"lat=100&lon=13", "lat=abc&lon=13", "lon=13"} {
		code, _ = s.get("/api/locate?" + q)
		s.Equal(http.StatusBadRequest, code, q)
	}
}

func (s *APISuite) TestProbes() {
	code, m := s.get("/healthz")
	s.Equal(http.StatusOK, code)
	s.Equal("ok", m["status"])

	code, _ = s.get("/readyz")
	s.Equal(http.StatusOK, code)

	s.ready.Store(false)
	defer s.ready.Store(true)
	code, m = s.get("/readyz")
	s.Equal(http.StatusServiceUnavailable, code)
	s.Equal("starting", m["status"])
}

func (s *APISuite) TestMetrics() {
	resp, err := http.Get(s.srv.URL + "/api/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name   string
		header [2]string
		remote string
		want   string
	}{
		{"forwarded-for first hop", [2]string{"x-forwarded-for", " 93.184.216.34 , 10.0.0.1"}, "10.0.0.2:1234", "93.184.216.34"},
		{"real ip", [2]string{"x-real-ip", "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"rfc 7239", [2]string{"forwarded", `for="[2001:db8::1]";proto=https`}, "10.0.0.2:1234", "2001:db8::1"},
		{"remote addr", [2]string{}, "203.0.113.5:5555", "203.0.113.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			if tc.header[0] != "" {
				r.Header.Set(tc.header[0], tc.header[1])
			}
			assert.Equal(t, tc.want, clientIP(r))
		})
	}
}

func TestNewHandlerWithoutBase(t *testing.T) {
	h := NewHandler(Deps{Classifier: classifierOnly(t)}, "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader(`{"text":"Rente"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pension"`)
}

func classifierOnly(t *testing.T) *topic.Classifier {
	t.Helper()
	tx, err := topic.DefaultTaxonomy()
	require.NoError(t, err)
	return topic.NewClassifier(tx)
}
