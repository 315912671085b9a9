package api

import (
	"wahlkreis-api/internal/geo"
	"wahlkreis-api/internal/gov"
	"wahlkreis-api/internal/recommend"
	"wahlkreis-api/internal/resolve"
	"wahlkreis-api/internal/topic"
)

// 来源标记：请求未带地址、由 IP 提示补全时返回
const sourceIPHint = "ip_hint"

type suggestRequest struct {
	Concern   string           `json:"concern" validate:"required,max=5000"`
	Address   *resolve.Address `json:"address,omitempty"`
	UseIPHint bool             `json:"use_ip_hint,omitempty"`
}

// 文档注释：推荐返回结构（对外）
// 背景：在推荐结果之上附加地址来源，前端据此提示用户补全精确地址。
// 约束：字段稳定；low_confidence 恒输出。
type suggestResponse struct {
	recommend.Suggestion
	LocationSource string `json:"location_source,omitempty"`
}

type resolveRequest struct {
	Address   resolve.Address `json:"address"`
	UseIPHint bool            `json:"use_ip_hint,omitempty"`
}

type resolveResponse struct {
	Resolution     resolve.Resolution `json:"resolution"`
	LowConfidence  bool               `json:"low_confidence"`
	LocationSource string             `json:"location_source,omitempty"`
}

type classifyRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

type classifyResponse struct {
	Topics        []topic.Match `json:"topics"`
	InferredLevel gov.Level     `json:"inferred_level"`
}

type locateQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

type locateResponse struct {
	Location   geo.Location       `json:"location"`
	Resolution resolve.Resolution `json:"resolution"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
