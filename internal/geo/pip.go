package geo

// 文档注释：点入多边形判定（Even-Odd）
// 背景：联邦与州选区均为面状几何，含飞地（MultiPolygon）与内嵌的其他选区（洞）。
// 约束：输入为经纬度坐标（WGS84）；恰好落在边上的点结果取决于射线方向，由解析层的 nearest 策略兜底。
func pointInPoly(pt Point, poly Polygon) bool {
	// 外环命中且不在洞内视为命中
	if len(poly.Rings) == 0 {
		return false
	}
	if !pointInRing(pt, poly.Rings[0]) {
		return false
	}
	for i := 1; i < len(poly.Rings); i++ {
		if pointInRing(pt, poly.Rings[i]) {
			return false
		}
	}
	return true
}

// 射线法判定点是否在环内
func pointInRing(pt Point, ring []Point) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	x, y := pt.Lon, pt.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[j].Lon, ring[j].Lat
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// 快速包围盒过滤
func inBBox(pt Point, b [4]float64) bool {
	return pt.Lon >= b[0] && pt.Lon <= b[2] && pt.Lat >= b[1] && pt.Lat <= b[3]
}

func computeBBox(rings [][]Point) [4]float64 {
	b := [4]float64{180, 90, -180, -90}
	for _, r := range rings {
		for _, pt := range r {
			b = extend(b, pt)
		}
	}
	return b
}

func extend(b [4]float64, pt Point) [4]float64 {
	if pt.Lon < b[0] {
		b[0] = pt.Lon
	}
	if pt.Lat < b[1] {
		b[1] = pt.Lat
	}
	if pt.Lon > b[2] {
		b[2] = pt.Lon
	}
	if pt.Lat > b[3] {
		b[3] = pt.Lat
	}
	return b
}

func unionBBox(a, b [4]float64) [4]float64 {
	a = extend(a, Point{Lon: b[0], Lat: b[1]})
	return extend(a, Point{Lon: b[2], Lat: b[3]})
}
