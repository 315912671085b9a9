package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type GeocoderSuite struct {
	suite.Suite
	calls   atomic.Int32
	respond func(w http.ResponseWriter, r *http.Request)
	srv     *httptest.Server
	cache   *MemoryCache
}

func TestGeocoderSuite(t *testing.T) {
	suite.Run(t, new(GeocoderSuite))
}

func (s *GeocoderSuite) SetupTest() {
	s.calls.Store(0)
	s.respond = func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"52.5186","lon":"13.3761","display_name":"Platz der Republik"}]`))
	}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		s.respond(w, r)
	}))
	var err error
	s.cache, err = NewMemoryCache(64)
	s.Require().NoError(err)
}

func (s *GeocoderSuite) TearDownTest() {
	s.srv.Close()
}

func (s *GeocoderSuite) geocoder(opts Options) *Geocoder {
	return NewGeocoder(NewClient(s.srv.URL, "wahlkreis-test", time.Second), s.cache, NewLocalThrottle(0), opts)
}

func (s *GeocoderSuite) TestIdempotent() {
	g := s.geocoder(Options{})
	ctx := context.Background()

	first := g.Geocode(ctx, "Platz der Republik 1, 11011 Berlin", "DE")
	second := g.Geocode(ctx, "  platz der republik 1 11011   BERLIN ", "de")

	s.True(first.Success)
	s.False(first.Cached)
	s.True(second.Cached)
	s.Equal(first.Lat, second.Lat)
	s.Equal(first.Lon, second.Lon)
	s.EqualValues(1, s.calls.Load())
	s.Equal(1, s.cache.Len())
}

func (s *GeocoderSuite) TestRequestShape() {
	var got *http.Request
	s.respond = func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = w.Write([]byte(`[{"lat":"1","lon":"2"}]`))
	}
	s.geocoder(Options{}).Geocode(context.Background(), "Unter den Linden 1", "")

	s.Require().NotNil(got)
	s.Equal("/search", got.URL.Path)
	s.Equal("de", got.URL.Query().Get("countrycodes"))
	s.Equal("jsonv2", got.URL.Query().Get("format"))
	s.Equal("1", got.URL.Query().Get("limit"))
	s.Equal("Unter den Linden 1", got.URL.Query().Get("q"))
	s.Equal("wahlkreis-test", got.Header.Get("User-Agent"))
}

func (s *GeocoderSuite) TestNoMatchIsCached() {
	s.respond = func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`[]`)) }
	g := s.geocoder(Options{})

	r1 := g.Geocode(context.Background(), "Nirgendwo 99", "DE")
	r2 := g.Geocode(context.Background(), "Nirgendwo 99", "DE")

	s.False(r1.Success)
	s.Equal(ReasonNoMatch, r1.Reason)
	s.True(r2.Cached)
	s.Equal(ReasonNoMatch, r2.Reason)
	s.EqualValues(1, s.calls.Load())
}

func (s *GeocoderSuite) TestUpstreamFailuresAreCachedAsUnavailable() {
	s.respond = func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) }
	g := s.geocoder(Options{})
	r := g.Geocode(context.Background(), "Hauptstr. 1", "DE")
	s.Equal(ReasonUnavailable, r.Reason)

	r = g.Geocode(context.Background(), "Hauptstr. 1", "DE")
	s.True(r.Cached)
	s.EqualValues(1, s.calls.Load())
}

func (s *GeocoderSuite) TestNonNumericCoordinatesFail() {
	s.respond = func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`[{"lat":"north","lon":"13.1"}]`)) }
	r := s.geocoder(Options{}).Geocode(context.Background(), "Hauptstr. 2", "DE")
	s.False(r.Success)
	s.Equal(ReasonUnavailable, r.Reason)
	s.Zero(r.Lat)
	s.Zero(r.Lon)
}

func (s *GeocoderSuite) TestInvalidCoordinatesFailAndAreCached() {
	for _, body := range []string{
		`[{"lat":"NaN","lon":"Inf"}]`,
		`[{"lat":"52.5","lon":"-Infinity"}]`,
		`[{"lat":"123.4","lon":"13.1"}]`,
		`[{"lat":"52.5","lon":"181"}]`,
	} {
		s.Run(body, func() {
			s.calls.Store(0)
			body := body
			s.respond = func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(body)) }
			g := s.geocoder(Options{})
			addr := "Grenzfall " + body

			r := g.Geocode(context.Background(), addr, "DE")
			s.False(r.Success)
			s.Equal(ReasonUnavailable, r.Reason)
			s.Zero(r.Lat)
			s.Zero(r.Lon)

			r = g.Geocode(context.Background(), addr, "DE")
			s.True(r.Cached)
			s.False(r.Success)
			s.EqualValues(1, s.calls.Load())
		})
	}
}

func (s *GeocoderSuite) TestCancellationIsNotCached() {
	g := s.geocoder(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := g.Geocode(ctx, "Hauptstr. 3", "DE")
	s.Equal(ReasonUnavailable, r.Reason)
	s.Zero(s.cache.Len())

	r = g.Geocode(context.Background(), "Hauptstr. 3", "DE")
	s.True(r.Success)
	s.EqualValues(1, s.calls.Load())
}

func (s *GeocoderSuite) TestEmptyAddressSkipsLookup() {
	r := s.geocoder(Options{}).Geocode(context.Background(), " , ", "DE")
	s.Equal(ReasonNoMatch, r.Reason)
	s.Zero(s.calls.Load())
	s.Zero(s.cache.Len())
}

func (s *GeocoderSuite) TestConcurrentCallsCollapse() {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	s.respond = func(w http.ResponseWriter, _ *http.Request) {
		once.Do(func() { close(started) })
		<-release
		_, _ = w.Write([]byte(`[{"lat":"52.5","lon":"13.4"}]`))
	}
	g := s.geocoder(Options{})

	var wg sync.WaitGroup
	results := make([]Result, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = g.Geocode(context.Background(), "Alexanderplatz 1 Berlin", "DE")
		}(i)
	}
	<-started
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	s.EqualValues(1, s.calls.Load())
	for _, r := range results {
		s.True(r.Success)
		s.Equal(52.5, r.Lat)
	}
}

func (s *GeocoderSuite) TestCancelledCallerDoesNotFailSharedLookup() {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	s.respond = func(w http.ResponseWriter, _ *http.Request) {
		once.Do(func() { close(started) })
		<-release
		_, _ = w.Write([]byte(`[{"lat":"52.5","lon":"13.4"}]`))
	}
	g := s.geocoder(Options{})
	const addr = "Alexanderplatz 2 Berlin"

	ctxA, cancelA := context.WithCancel(context.Background())
	resA := make(chan Result, 1)
	go func() { resA <- g.Geocode(ctxA, addr, "DE") }()
	<-started

	resB := make(chan Result, 1)
	go func() { resB <- g.Geocode(context.Background(), addr, "DE") }()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	a := <-resA
	s.False(a.Success)
	s.Equal(ReasonUnavailable, a.Reason)

	close(release)
	b := <-resB
	s.True(b.Success)
	s.Equal(52.5, b.Lat)
	s.EqualValues(1, s.calls.Load())

	c := g.Geocode(context.Background(), addr, "DE")
	s.True(c.Cached, "the shared lookup completes and is cached after the first caller left")
}

func (s *GeocoderSuite) TestFailureRefreshAfterMaxAge() {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s.respond = func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`[]`)) }
	g := s.geocoder(Options{FailureMaxAge: time.Hour, Now: clock})

	s.False(g.Geocode(context.Background(), "Neubaugebiet 1", "DE").Success)

	now = now.Add(30 * time.Minute)
	s.True(g.Geocode(context.Background(), "Neubaugebiet 1", "DE").Cached)
	s.EqualValues(1, s.calls.Load())

	s.respond = func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`[{"lat":"50.1","lon":"8.6"}]`)) }
	now = now.Add(2 * time.Hour)
	r := g.Geocode(context.Background(), "Neubaugebiet 1", "DE")
	s.True(r.Success)
	s.False(r.Cached)
	s.EqualValues(2, s.calls.Load())

	r = g.Geocode(context.Background(), "Neubaugebiet 1", "DE")
	s.True(r.Cached)
	s.True(r.Success)
}

func (s *GeocoderSuite) TestSuccessNeverRefreshed() {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	g := s.geocoder(Options{FailureMaxAge: time.Minute, Now: func() time.Time { return now }})
	s.True(g.Geocode(context.Background(), "Hauptstr. 4", "DE").Success)
	now = now.Add(24 * time.Hour)
	s.True(g.Geocode(context.Background(), "Hauptstr. 4", "DE").Cached)
	s.EqualValues(1, s.calls.Load())
}
