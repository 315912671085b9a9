package resolve

import (
	"context"
	"time"

	"wahlkreis-api/internal/geo"
	"wahlkreis-api/internal/geocode"
	"wahlkreis-api/internal/gov"
	"wahlkreis-api/internal/metrics"
)

// Geocoder 地址 → 坐标
type Geocoder interface {
	Geocode(ctx context.Context, address, country string) geocode.Result
}

// Locator 坐标 → 选区
type Locator interface {
	Locate(lat, lon float64) geo.Location
	Nearest(lat, lon, maxKm float64) (gov.DistrictID, float64, bool)
}

// attempt 在策略之间传递的中间状态
type attempt struct {
	addr     Address
	point    *geo.Point
	reason   geocode.Reason
	warnings []string
}

// outcome 策略命中时的地理结果
type outcome struct {
	federal    *gov.DistrictID
	state      *gov.DistrictID
	region     string
	confidence Confidence
}

// strategy 返回 true 表示已解析，链条终止
type strategy interface {
	name() string
	apply(ctx context.Context, a *attempt) (outcome, bool)
}

type geocodeStrategy struct {
	geocoder Geocoder
	locator  Locator
}

func (geocodeStrategy) name() string { return "geocode" }

func (s geocodeStrategy) apply(ctx context.Context, a *attempt) (outcome, bool) {
	if !a.addr.Domestic() || !a.addr.Geocodable() {
		return outcome{}, false
	}
	res := s.geocoder.Geocode(ctx, a.addr.Query(), a.addr.CountryCode())
	if !res.Success {
		a.reason = res.Reason
		a.warnings = append(a.warnings, "geocode_"+string(res.Reason))
		return outcome{}, false
	}
	a.point = &geo.Point{Lat: res.Lat, Lon: res.Lon}
	t0 := time.Now()
	loc := s.locator.Locate(res.Lat, res.Lon)
	metrics.LocateDurationMs.Observe(float64(time.Since(t0).Microseconds()) / 1000)
	if loc.Federal == nil {
		return outcome{}, false
	}
	return outcome{federal: loc.Federal, state: loc.State, region: loc.Region(), confidence: ConfidencePrecise}, true
}

type nearestStrategy struct {
	locator Locator
	maxKm   float64
}

func (nearestStrategy) name() string { return "nearest" }

func (s nearestStrategy) apply(_ context.Context, a *attempt) (outcome, bool) {
	if a.point == nil || s.maxKm <= 0 {
		return outcome{}, false
	}
	id, _, ok := s.locator.Nearest(a.point.Lat, a.point.Lon, s.maxKm)
	if !ok {
		return outcome{}, false
	}
	a.warnings = append(a.warnings, "nearest_boundary")
	return outcome{federal: &id, region: id.Region, confidence: ConfidenceApproximate}, true
}

// postalPrefixStrategy 地理编码失败或坐标未落入任何边界时，按国内邮编前缀归属到州
type postalPrefixStrategy struct{}

func (postalPrefixStrategy) name() string { return "postal_prefix" }

func (postalPrefixStrategy) apply(_ context.Context, a *attempt) (outcome, bool) {
	if !a.addr.Domestic() {
		return outcome{}, false
	}
	st, ok := StateForPostalCode(a.addr.Postal())
	if !ok {
		return outcome{}, false
	}
	if a.point != nil {
		a.warnings = append(a.warnings, "boundary_miss")
	}
	return outcome{region: st, confidence: ConfidenceCoarse}, true
}
