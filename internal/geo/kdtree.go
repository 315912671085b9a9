package geo

import "math"

// 文档注释：KD-Tree 最近邻（二维经纬）
// 背景：点恰好落在边界缝隙、或地理编码结果略偏出边界时，以最近的边界采样点归属选区。
// 约束：树由联邦边界外环按固定步长加密后的采样点构建；仅支持最近一个点查询，距离误差不超过半个步长。
type sample struct {
	Lat, Lon float64
	feature  int
}

type kdNode struct {
	s  sample
	ax int // 0:lon,1:lat
	l  *kdNode
	r  *kdNode
}

// sampleStepKm 边界加密步长
const sampleStepKm = 0.2

func buildKD(ss []sample, depth int) *kdNode {
	if len(ss) == 0 {
		return nil
	}
	ax := depth % 2
	mid := len(ss) / 2
	selectNth(ss, mid, ax)
	node := &kdNode{s: ss[mid], ax: ax}
	node.l = buildKD(ss[:mid], depth+1)
	node.r = buildKD(ss[mid+1:], depth+1)
	return node
}

// 原地 nth 元素选择（轴为经度/纬度）
func selectNth(a []sample, n int, ax int) {
	lo, hi := 0, len(a)-1
	for lo < hi {
		p := partition(a, lo, hi, (lo+hi)/2, ax)
		if p == n {
			return
		}
		if n < p {
			hi = p - 1
		} else {
			lo = p + 1
		}
	}
}

func partition(a []sample, lo, hi, pivot, ax int) int {
	pv := a[pivot]
	a[pivot], a[hi] = a[hi], a[pivot]
	i := lo
	for j := lo; j < hi; j++ {
		if lessSample(a[j], pv, ax) {
			a[i], a[j] = a[j], a[i]
			i++
		}
	}
	a[i], a[hi] = a[hi], a[i]
	return i
}

func lessSample(x, y sample, ax int) bool {
	if ax == 0 {
		return x.Lon < y.Lon
	}
	return x.Lat < y.Lat
}

// 最近邻查询，返回采样点与距离（千米）
func nearest(node *kdNode, pt Point) (sample, float64) {
	best := sample{feature: -1}
	bestD := math.MaxFloat64
	var dfs func(n *kdNode)
	dfs = func(n *kdNode) {
		if n == nil {
			return
		}
		d := haversine(pt.Lat, pt.Lon, n.s.Lat, n.s.Lon)
		if d < bestD {
			bestD = d
			best = n.s
		}
		key, q := pt.Lat, n.s.Lat
		if n.ax == 0 {
			key, q = pt.Lon, n.s.Lon
		}
		first, second := n.l, n.r
		if key > q {
			first, second = n.r, n.l
		}
		dfs(first)
		// 仅当分割平面到查询点的距离下界小于当前最优距离时才遍历另一侧
		if planeBound(pt, n.ax, math.Abs(key-q), bestD) < bestD {
			dfs(second)
		}
	}
	dfs(node)
	return best, bestD
}

// 文档注释：查询点到分割平面另一侧任意点的球面距离下界（千米）
// 背景：由 Haversine 公式得 d ≥ R·|Δφ|，以及 d ≥ 2R·cosφmax·sin(|Δλ|/2)；
// φmax 为可能优于 bestD 的点的最高纬度（查询点纬度加上 bestD 对应的纬度跨度）。
// 约束：结果不大于真实距离，剪枝不会漏掉最近点。
func planeBound(pt Point, ax int, deltaDeg, bestD float64) float64 {
	const R = 6371.0
	rad := deltaDeg * math.Pi / 180
	if ax == 1 {
		return R * rad
	}
	if bestD >= math.MaxFloat64 {
		return 0
	}
	if rad > math.Pi {
		rad = 2*math.Pi - rad
	}
	phiMax := math.Min(math.Abs(pt.Lat)*math.Pi/180+bestD/R, math.Pi/2)
	return 2 * R * math.Cos(phiMax) * math.Sin(rad/2)
}

// densify 沿环按步长插值，生成边界采样点
func densify(ring []Point, feature int, out []sample) []sample {
	for i := 0; i+1 < len(ring); i++ {
		a, b := ring[i], ring[i+1]
		d := haversine(a.Lat, a.Lon, b.Lat, b.Lon)
		steps := int(math.Ceil(d / sampleStepKm))
		if steps < 1 {
			steps = 1
		}
		for k := 0; k < steps; k++ {
			t := float64(k) / float64(steps)
			out = append(out, sample{
				Lat:     a.Lat + (b.Lat-a.Lat)*t,
				Lon:     a.Lon + (b.Lon-a.Lon)*t,
				feature: feature,
			})
		}
	}
	return out
}

// 球面距离（Haversine），返回千米
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
