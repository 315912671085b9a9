// 包 geo：选区边界的加载与点查询（联邦选区层 + 按州加载的州选区层）
package geo

import "wahlkreis-api/internal/gov"

// 文档注释：选区几何的最小数据结构
// 背景：加载后常驻内存、只读共享；查询路径上不做任何写入，故无需加锁。
// 约束：几何仅支持 GeoJSON 的 Polygon/MultiPolygon；第一环为外环，其余为洞。
type Feature struct {
	ID    gov.DistrictID
	Polys []Polygon
	BBox  [4]float64 // minLon, minLat, maxLon, maxLat（所有多边形的并）
}

// Polygon：按 GeoJSON 约定的环集合，第一环是外环，其后为洞
type Polygon struct {
	Rings [][]Point
	BBox  [4]float64 // minLon, minLat, maxLon, maxLat
}

// 点坐标（WGS84）
type Point struct {
	Lat float64
	Lon float64
}

// Location 一次点查询的结果；坐标不在任何联邦选区内时两者皆为 nil
type Location struct {
	Federal *gov.DistrictID `json:"federal,omitempty"`
	State   *gov.DistrictID `json:"state,omitempty"`
}

// Region 命中的州名；未命中时为空
func (l Location) Region() string {
	if l.Federal == nil {
		return ""
	}
	return l.Federal.Region
}

// Contains 判断点是否落在要素的任一多边形内
func (f *Feature) Contains(pt Point) bool {
	if !inBBox(pt, f.BBox) {
		return false
	}
	for _, p := range f.Polys {
		if inBBox(pt, p.BBox) && pointInPoly(pt, p) {
			return true
		}
	}
	return false
}
