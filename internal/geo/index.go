package geo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"wahlkreis-api/internal/gov"
	"wahlkreis-api/internal/logger"
)

// 文档注释：选区边界索引
// 背景：启动时构建一次，之后只读；由 main 构造并注入解析器，进程内不存在全局边界状态。
// 约束：州层按州名分组，仅在联邦命中后于该州范围内查找；州层缺失时 Locate 只返回联邦结果。
type Index struct {
	federal []Feature
	states  map[string][]Feature // key: gov.FoldRegion(州名)
	kd      *kdNode
}

// NewIndex 由已解析的要素构建索引
func NewIndex(federal []Feature, states map[string][]Feature) *Index {
	x := &Index{federal: federal, states: make(map[string][]Feature, len(states))}
	for region, layer := range states {
		x.states[gov.FoldRegion(region)] = layer
	}
	var ss []sample
	for i := range federal {
		for _, p := range federal[i].Polys {
			ss = densify(p.Rings[0], i, ss)
		}
	}
	x.kd = buildKD(ss, 0)
	return x
}

// 文档注释：从磁盘加载联邦与州选区边界
// 背景：联邦文件是唯一硬依赖；州目录下按 <州代码>.geojson 命名，例如 BE.geojson。
// 约束：联邦文件缺失或损坏返回 ErrBoundaryData，调用方应终止启动；州目录不存在时记录告警并继续。
func LoadIndex(federalPath, stateDir string, fields Fields) (*Index, error) {
	federal, err := loadFeatures(federalPath, gov.LevelFederal, fields.FederalNumber, fields, "")
	if err != nil {
		return nil, err
	}
	states := map[string][]Feature{}
	if stateDir != "" {
		entries, err := os.ReadDir(stateDir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.L().Warn("boundary_state_dir_missing", "dir", stateDir)
		case err != nil:
			return nil, fmt.Errorf("read state dir %s: %w: %v", stateDir, gov.ErrBoundaryData, err)
		}
		for _, ent := range entries {
			name := ent.Name()
			if ent.IsDir() || !strings.EqualFold(filepath.Ext(name), ".geojson") {
				continue
			}
			code := strings.TrimSuffix(name, filepath.Ext(name))
			st, ok := gov.StateByCode(code)
			if !ok {
				logger.L().Warn("boundary_state_unknown_code", "file", name)
				continue
			}
			layer, err := loadFeatures(filepath.Join(stateDir, name), gov.LevelState, fields.StateNumber, fields, st.Name)
			if err != nil {
				return nil, err
			}
			states[st.Name] = layer
		}
	}
	x := NewIndex(federal, states)
	logger.L().Info("boundary_loaded", "federal", len(federal), "state_layers", len(states))
	return x, nil
}

// 文档注释：坐标 → 联邦/州选区
// 背景：取第一个包含该点的联邦要素（包围盒预过滤 + Even-Odd）；再在该州的州层中查找。
// 约束：不在任何联邦选区内时返回零值 Location（两者皆为 nil）。
func (x *Index) Locate(lat, lon float64) Location {
	pt := Point{Lat: lat, Lon: lon}
	var loc Location
	for i := range x.federal {
		if x.federal[i].Contains(pt) {
			id := x.federal[i].ID
			loc.Federal = &id
			break
		}
	}
	if loc.Federal == nil {
		return loc
	}
	loc.State = x.StateDistrictAt(loc.Federal.Region, lat, lon)
	return loc
}

// 文档注释：最近联邦边界归属
// 背景：用于点落在两选区间缝隙或略偏出边界的情况；超过 maxKm 视为覆盖范围之外。
// 约束：maxKm <= 0 时禁用；返回的选区不保证包含该点，调用方须按“近似”处理。
func (x *Index) Nearest(lat, lon, maxKm float64) (gov.DistrictID, float64, bool) {
	if maxKm <= 0 || x.kd == nil {
		return gov.DistrictID{}, 0, false
	}
	s, d := nearest(x.kd, Point{Lat: lat, Lon: lon})
	if s.feature < 0 || d > maxKm {
		return gov.DistrictID{}, d, false
	}
	return x.federal[s.feature].ID, d, true
}

// StateDistrictAt 在指定州层中查找包含该点的州选区
func (x *Index) StateDistrictAt(region string, lat, lon float64) *gov.DistrictID {
	pt := Point{Lat: lat, Lon: lon}
	layer := x.states[gov.FoldRegion(region)]
	for i := range layer {
		if layer[i].Contains(pt) {
			id := layer[i].ID
			return &id
		}
	}
	return nil
}

// Stats 已加载的联邦要素数与州层数
func (x *Index) Stats() (federal, stateLayers int) {
	return len(x.federal), len(x.states)
}
