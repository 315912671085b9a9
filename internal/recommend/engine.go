// 包 recommend：结合话题与地理解析，为诉求推荐最合适的议员
package recommend

import (
	"context"
	"crypto/rand"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"wahlkreis-api/internal/catalog"
	"wahlkreis-api/internal/config"
	"wahlkreis-api/internal/gov"
	"wahlkreis-api/internal/logger"
	"wahlkreis-api/internal/metrics"
	"wahlkreis-api/internal/resolve"
	"wahlkreis-api/internal/topic"
)

// ErrEmptyConcern 诉求文本为空
var ErrEmptyConcern = errors.New("recommend: empty concern")

// Resolver 地址解析
type Resolver interface {
	Resolve(ctx context.Context, addr resolve.Address) resolve.Resolution
}

// Candidate 推荐候选
type Candidate struct {
	Representative catalog.Representative `json:"representative"`
	Constituency   catalog.Constituency   `json:"constituency"`
	Score          float64                `json:"score"`
	Breakdown      Breakdown              `json:"breakdown"`
	Explanations   []Explanation          `json:"explanations"`
}

// Suggestion 一次推荐的完整结果
type Suggestion struct {
	ID            string              `json:"id"`
	Topics        []topic.Match       `json:"topics"`
	InferredLevel gov.Level           `json:"inferred_level"`
	Resolution    *resolve.Resolution `json:"resolution,omitempty"`
	LowConfidence bool                `json:"low_confidence"`
	Candidates    []Candidate         `json:"candidates"`
	Warnings      []string            `json:"warnings,omitempty"`
}

// Options 推荐引擎参数
type Options struct {
	Weights config.Weights
	Now     func() time.Time
}

// 文档注释：推荐引擎
// 背景：话题分类与地址解析互不依赖，并行执行；之后对解析出的每个议席取在任议员并打分。
// 约束：仅空诉求返回错误；目录查询失败只记录告警并跳过对应议席。
type Engine struct {
	classifier *topic.Classifier
	resolver   Resolver
	directory  catalog.Directory
	opts       Options

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewEngine(cl *topic.Classifier, r Resolver, dir catalog.Directory, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Weights == (config.Weights{}) {
		opts.Weights = config.DefaultWeights()
	}
	return &Engine{classifier: cl, resolver: r, directory: dir, opts: opts, entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Suggest 诉求 + 可选地址 → 排序后的候选
func (e *Engine) Suggest(ctx context.Context, concern string, addr *resolve.Address) (Suggestion, error) {
	if strings.TrimSpace(concern) == "" {
		return Suggestion{}, ErrEmptyConcern
	}
	t0 := time.Now()

	var (
		cls topic.Classification
		res *resolve.Resolution
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cls = e.classifier.Classify(concern)
		return nil
	})
	if addr != nil {
		g.Go(func() error {
			r := e.resolver.Resolve(gctx, *addr)
			res = &r
			return nil
		})
	}
	_ = g.Wait()

	s := Suggestion{
		ID:            e.newID(),
		Topics:        cls.Topics,
		InferredLevel: cls.InferredLevel,
		Resolution:    res,
		LowConfidence: res == nil || res.LowConfidence(),
		Candidates:    []Candidate{},
	}
	if res != nil {
		s.Candidates, s.Warnings = e.rank(ctx, *res, cls)
	}

	metrics.SuggestDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	metrics.SuggestCandidates.Observe(float64(len(s.Candidates)))
	logger.L().Debug("suggest_done",
		"id", s.ID, "topics", len(s.Topics), "level", s.InferredLevel.String(),
		"candidates", len(s.Candidates), "low_confidence", s.LowConfidence)
	return s, nil
}

func (e *Engine) rank(ctx context.Context, res resolve.Resolution, cls topic.Classification) ([]Candidate, []string) {
	var warnings []string
	tags, err := e.directory.CommitteeTopics(ctx)
	if err != nil {
		logger.L().Warn("committee_topics_error", "err", err)
		warnings = append(warnings, "committee_topics_unavailable")
	}
	lowered := make(map[string][]string, len(tags))
	for k, v := range tags {
		lowered[strings.ToLower(strings.TrimSpace(k))] = v
	}

	at := e.opts.Now()
	best := map[string]Candidate{}
	for _, c := range res.Constituencies {
		reps, err := e.directory.RepresentativesFor(ctx, c.ID, at)
		if err != nil {
			logger.L().Warn("directory_error", "constituency", c.ID, "err", err)
			warnings = append(warnings, "directory_error:"+c.Scope.String())
			continue
		}
		for _, rep := range reps {
			b, total, ex := score(scoreInput{
				rep: rep, constituency: c, res: res, cls: cls,
				tx: e.classifier.Taxonomy(), tags: lowered, weights: e.opts.Weights,
			})
			cand := Candidate{Representative: rep, Constituency: c, Score: total, Breakdown: b, Explanations: ex}
			key := rep.ID.String()
			if prev, ok := best[key]; !ok || cand.Score > prev.Score {
				best[key] = cand
			}
		}
	}

	out := make([]Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, warnings
}

// less 得分降序；并列时有名单位置者优先且位置小者在前；再按议员 id
func less(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	pa, pb := a.Representative.ListPosition, b.Representative.ListPosition
	switch {
	case pa != nil && pb == nil:
		return true
	case pa == nil && pb != nil:
		return false
	case pa != nil && pb != nil && *pa != *pb:
		return *pa < *pb
	}
	return a.Representative.ID.String() < b.Representative.ID.String()
}

func (e *Engine) newID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(e.opts.Now()), e.entropy).String()
}
