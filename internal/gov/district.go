package gov

import "fmt"

// 文档注释：选区标识
// 背景：几何命中后按层级输出统一标识；联邦与州选区编号从 1 起，对外以定宽补零形式展示（如 "075"）。
// 约束：EU 层级不依赖几何，Code 恒为国家代码。
type DistrictID struct {
	Level  Level  `json:"level"`
	Number int    `json:"number,omitempty"`
	Region string `json:"region,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Code 规范化标识
func (d DistrictID) Code() string {
	if d.Level == LevelEU {
		return EUCountryCode
	}
	return fmt.Sprintf("%03d", d.Number)
}

func (d DistrictID) String() string {
	if d.Region == "" {
		return d.Level.String() + ":" + d.Code()
	}
	return d.Level.String() + ":" + d.Region + ":" + d.Code()
}

// EUDistrict EU 层级的唯一选区
func EUDistrict() DistrictID {
	return DistrictID{Level: LevelEU, Region: EUCountryCode}
}
