// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"wahlkreis-api/internal/geo"
	"wahlkreis-api/internal/geoip"
	"wahlkreis-api/internal/logger"
	"wahlkreis-api/internal/metrics"
	"wahlkreis-api/internal/recommend"
	"wahlkreis-api/internal/resolve"
	"wahlkreis-api/internal/topic"
)

const maxBody = 64 << 10

var validate = validator.New(validator.WithRequiredStructEnabled())

type Suggester interface {
	Suggest(ctx context.Context, concern string, addr *resolve.Address) (recommend.Suggestion, error)
}

type AddressResolver interface {
	Resolve(ctx context.Context, addr resolve.Address) resolve.Resolution
	Lookup(ctx context.Context, loc geo.Location) resolve.Resolution
}

type Classifier interface {
	Classify(text string) topic.Classification
}

type Locator interface {
	Locate(lat, lon float64) geo.Location
}

type PostalHinter interface {
	PostalHint(ip string) (geoip.Hint, error)
}

// 文档注释：路由依赖
// 背景：主入口与测试各自注入实现；GeoIP 可为 nil，表示不提供 IP 提示。
// 约束：Ready 为 nil 时视为始终就绪。
type Deps struct {
	Suggester  Suggester
	Resolver   AddressResolver
	Classifier Classifier
	Locator    Locator
	GeoIP      PostalHinter
	Ready      func() bool
}

// 文档注释：构建完整路由
// 背景：/healthz 与 /readyz 挂在根路径供编排探针使用；业务接口与指标挂在 base 前缀下。
// 约束：中间件按传入顺序生效，对探针同样生效。
func NewHandler(d Deps, base string, mws ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	for _, m := range mws {
		r.Use(m)
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if d.Ready != nil && !d.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	base = strings.Trim(base, "/")
	if base == "" {
		BuildRoutes(r, d)
		return r
	}
	r.Route("/"+base, func(sr chi.Router) { BuildRoutes(sr, d) })
	return r
}

// BuildRoutes 在给定路由上注册业务接口
func BuildRoutes(r chi.Router, d Deps) {
	h := &handlers{d: d}
	r.Post("/suggest", h.suggest)
	r.Post("/resolve", h.resolve)
	r.Post("/classify", h.classify)
	r.Get("/locate", h.locate)
	r.Handle("/metrics", metrics.Handler())
}

type handlers struct {
	d Deps
}

func (h *handlers) suggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Address != nil && req.Address.Empty() {
		req.Address = nil
	}
	var source string
	if req.Address == nil && req.UseIPHint {
		if a, ok := h.hintAddress(r); ok {
			req.Address, source = &a, sourceIPHint
		}
	}
	s, err := h.d.Suggester.Suggest(r.Context(), req.Concern, req.Address)
	if errors.Is(err, recommend.ErrEmptyConcern) {
		writeError(w, http.StatusBadRequest, "empty_concern", "concern must contain text")
		return
	}
	if err != nil {
		logger.L().Error("suggest_error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "")
		return
	}
	writeJSON(w, http.StatusOK, suggestResponse{Suggestion: s, LocationSource: source})
}

func (h *handlers) resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decode(w, r, &req) {
		return
	}
	var resp resolveResponse
	if req.Address.Empty() {
		a, ok := resolve.Address{}, false
		if req.UseIPHint {
			a, ok = h.hintAddress(r)
		}
		if !ok {
			writeError(w, http.StatusBadRequest, "empty_address", "address must contain a street, postal code or free-form line")
			return
		}
		req.Address, resp.LocationSource = a, sourceIPHint
	}
	res := h.d.Resolver.Resolve(r.Context(), req.Address)
	resp.Resolution, resp.LowConfidence = res, res.LowConfidence()
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "empty_text", "text must not be blank")
		return
	}
	c := h.d.Classifier.Classify(req.Text)
	writeJSON(w, http.StatusOK, classifyResponse{Topics: c.Topics, InferredLevel: c.InferredLevel})
}

func (h *handlers) locate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(q.Get("lon"), 64)
	if err := errors.Join(err1, err2); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "lat and lon must be numbers")
		return
	}
	lq := locateQuery{Lat: lat, Lon: lon}
	if err := validate.Struct(lq); err != nil {
		writeValidation(w, err)
		return
	}
	loc := h.d.Locator.Locate(lq.Lat, lq.Lon)
	writeJSON(w, http.StatusOK, locateResponse{Location: loc, Resolution: h.d.Resolver.Lookup(r.Context(), loc)})
}

// hintAddress 由访问者 IP 推断仅含邮编的地址；IP 本身不写日志
func (h *handlers) hintAddress(r *http.Request) (resolve.Address, bool) {
	if h.d.GeoIP == nil {
		return resolve.Address{}, false
	}
	hint, err := h.d.GeoIP.PostalHint(clientIP(r))
	if err != nil {
		logger.L().Debug("geoip_hint_miss", "err", err)
		return resolve.Address{}, false
	}
	return resolve.Address{PostalCode: hint.PostalCode, Country: hint.Country}, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be a JSON object")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeValidation(w, err)
		return false
	}
	return true
}

func writeValidation(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed rule %q", fe.Namespace(), fe.Tag()))
	}
	writeError(w, http.StatusBadRequest, "invalid_request", strings.Join(msgs, "; "))
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Error("response_encode_error", "status", status, "err", err)
	}
}
