package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"wahlkreis-api/internal/gov"
)

// Fields 边界数据属性名候选，按顺序取第一个存在的键
type Fields struct {
	FederalNumber []string
	StateNumber   []string
	Region        []string
	Name          []string
}

// DefaultFields 兼容联邦选举委员会发布的 shapefile 转换结果与常见的小写导出
func DefaultFields() Fields {
	return Fields{
		FederalNumber: []string{"WKR_NR", "wkr_nr", "number"},
		StateNumber:   []string{"WK_NR", "wk_nr", "number"},
		Region:        []string{"LAND_NAME", "land_name", "region"},
		Name:          []string{"WKR_NAME", "WK_NAME", "wkr_name", "wk_name", "name"},
	}
}

type featureCollection struct {
	Type     string        `json:"type"`
	Features []featureJSON `json:"features"`
}

type featureJSON struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   *geometryJSON  `json:"geometry"`
}

type geometryJSON struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// 文档注释：读取一个 GeoJSON FeatureCollection 并转换为选区要素
// 背景：联邦层每个要素携带编号与州名；州层文件按州拆分，州名由文件名决定（region 非空时覆盖属性）。
// 约束：文件缺失、JSON 损坏、缺少编号或几何时返回 ErrBoundaryData，不做部分加载。
func loadFeatures(path string, level gov.Level, numberKeys []string, f Fields, region string) ([]Feature, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", path, gov.ErrBoundaryData, err)
	}
	var fc featureCollection
	if err := json.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %v", path, gov.ErrBoundaryData, err)
	}
	if !strings.EqualFold(fc.Type, "FeatureCollection") {
		return nil, fmt.Errorf("%s: type %q is not a FeatureCollection: %w", path, fc.Type, gov.ErrBoundaryData)
	}
	out := make([]Feature, 0, len(fc.Features))
	for i, fj := range fc.Features {
		num, ok := propInt(fj.Properties, numberKeys)
		if !ok || num <= 0 {
			return nil, fmt.Errorf("%s: feature %d has no district number (%s): %w", path, i, strings.Join(numberKeys, "/"), gov.ErrBoundaryData)
		}
		if fj.Geometry == nil {
			return nil, fmt.Errorf("%s: feature %d has no geometry: %w", path, i, gov.ErrBoundaryData)
		}
		polys, err := decodeGeometry(fj.Geometry)
		if err != nil {
			return nil, fmt.Errorf("%s: feature %d: %w: %v", path, i, gov.ErrBoundaryData, err)
		}
		reg := region
		if reg == "" {
			reg = gov.CanonicalRegion(propStr(fj.Properties, f.Region))
		}
		ft := Feature{
			ID:    gov.DistrictID{Level: level, Number: num, Region: reg, Name: propStr(fj.Properties, f.Name)},
			Polys: polys,
			BBox:  [4]float64{180, 90, -180, -90},
		}
		for _, p := range polys {
			ft.BBox = unionBBox(ft.BBox, p.BBox)
		}
		out = append(out, ft)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no features: %w", path, gov.ErrBoundaryData)
	}
	return out, nil
}

func decodeGeometry(g *geometryJSON) ([]Polygon, error) {
	switch strings.ToLower(g.Type) {
	case "polygon":
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, err
		}
		p, err := toPolygon(rings)
		if err != nil {
			return nil, err
		}
		return []Polygon{p}, nil
	case "multipolygon":
		var parts [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &parts); err != nil {
			return nil, err
		}
		out := make([]Polygon, 0, len(parts))
		for _, rings := range parts {
			p, err := toPolygon(rings)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("empty multipolygon")
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
}

func toPolygon(rings [][][]float64) (Polygon, error) {
	var p Polygon
	for _, ring := range rings {
		rr := make([]Point, 0, len(ring))
		for _, c := range ring {
			if len(c) < 2 || math.IsNaN(c[0]) || math.IsNaN(c[1]) {
				return Polygon{}, fmt.Errorf("invalid position")
			}
			rr = append(rr, Point{Lat: c[1], Lon: c[0]})
		}
		p.Rings = append(p.Rings, rr)
	}
	if len(p.Rings) == 0 || len(p.Rings[0]) < 4 {
		return Polygon{}, fmt.Errorf("outer ring needs at least 4 positions")
	}
	p.BBox = computeBBox(p.Rings[:1])
	return p, nil
}

func propStr(m map[string]any, keys []string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// propInt 编号可能以数字或补零字符串（"075"）出现
func propInt(m map[string]any, keys []string) (int, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			if v == math.Trunc(v) {
				return int(v), true
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
