package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"wahlkreis-api/internal/gov"
)

// 文档注释：内存目录
// 背景：开发环境与测试使用 YAML 固件；生产环境由外部同步任务写入 Postgres。
// 约束：加载后只读；查询按 ID 排序输出，保证结果确定。
type MemoryStore struct {
	terms          []Term
	constituencies []Constituency
	reps           []Representative
	topics         map[string][]string
}

type fixture struct {
	Terms []struct {
		ID       string `yaml:"id"`
		Level    string `yaml:"level"`
		Region   string `yaml:"region"`
		StartsOn string `yaml:"starts_on"`
		EndsOn   string `yaml:"ends_on"`
	} `yaml:"terms"`
	Constituencies []struct {
		ID         string `yaml:"id"`
		Term       string `yaml:"term"`
		Scope      string `yaml:"scope"`
		Region     string `yaml:"region"`
		ExternalID string `yaml:"external_id"`
		Name       string `yaml:"name"`
	} `yaml:"constituencies"`
	Representatives []struct {
		ID           string   `yaml:"id"`
		Name         string   `yaml:"name"`
		Party        string   `yaml:"party"`
		Constituency string   `yaml:"constituency"`
		ListPosition *int     `yaml:"list_position"`
		Committees   []string `yaml:"committees"`
		ActiveFrom   string   `yaml:"active_from"`
		ActiveUntil  string   `yaml:"active_until"`
	} `yaml:"representatives"`
	CommitteeTopics map[string][]string `yaml:"committee_topics"`
}

// LoadFixture 读取 YAML 固件文件
func LoadFixture(path string) (*MemoryStore, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFixture(b)
}

// ParseFixture 解析 YAML 固件
func ParseFixture(b []byte) (*MemoryStore, error) {
	var fx fixture
	if err := yaml.Unmarshal(b, &fx); err != nil {
		return nil, fmt.Errorf("catalog fixture: %w", err)
	}
	s := &MemoryStore{topics: map[string][]string{}}
	termIDs := map[string]bool{}
	for _, t := range fx.Terms {
		lvl, err := gov.ParseLevel(t.Level)
		if err != nil {
			return nil, fmt.Errorf("term %s: %w", t.ID, err)
		}
		start, err := parseDate(t.StartsOn)
		if err != nil || start == nil {
			return nil, fmt.Errorf("term %s starts_on %q: %w", t.ID, t.StartsOn, gov.ErrInvalidInput)
		}
		end, err := parseDate(t.EndsOn)
		if err != nil {
			return nil, fmt.Errorf("term %s ends_on: %w", t.ID, err)
		}
		s.terms = append(s.terms, Term{ID: t.ID, Level: lvl, Region: gov.CanonicalRegion(t.Region), StartsOn: *start, EndsOn: end})
		termIDs[t.ID] = true
	}
	consIDs := map[string]bool{}
	for _, c := range fx.Constituencies {
		sc, err := gov.ParseScope(c.Scope)
		if err != nil {
			return nil, fmt.Errorf("constituency %s: %w", c.ID, err)
		}
		if !termIDs[c.Term] {
			return nil, fmt.Errorf("constituency %s references unknown term %q: %w", c.ID, c.Term, gov.ErrInvalidInput)
		}
		s.constituencies = append(s.constituencies, Constituency{
			ID: c.ID, TermID: c.Term, Level: sc.Level(), Scope: sc,
			Region: gov.CanonicalRegion(c.Region), ExternalID: c.ExternalID, Name: c.Name,
		})
		consIDs[c.ID] = true
	}
	for _, r := range fx.Representatives {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, fmt.Errorf("representative %q: %w", r.Name, err)
		}
		if !consIDs[r.Constituency] {
			return nil, fmt.Errorf("representative %s references unknown constituency %q: %w", r.Name, r.Constituency, gov.ErrInvalidInput)
		}
		from, err := parseDate(r.ActiveFrom)
		if err != nil || from == nil {
			return nil, fmt.Errorf("representative %s active_from %q: %w", r.Name, r.ActiveFrom, gov.ErrInvalidInput)
		}
		until, err := parseDate(r.ActiveUntil)
		if err != nil {
			return nil, fmt.Errorf("representative %s active_until: %w", r.Name, err)
		}
		s.reps = append(s.reps, Representative{
			ID: id, Name: r.Name, Party: r.Party, ConstituencyID: r.Constituency,
			ListPosition: r.ListPosition, Committees: r.Committees, ActiveFrom: *from, ActiveUntil: until,
		})
	}
	for k, v := range fx.CommitteeTopics {
		s.topics[k] = append([]string(nil), v...)
	}
	return s, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (m *MemoryStore) ActiveTerm(_ context.Context, level gov.Level, region string, at time.Time) (Term, error) {
	var best *Term
	for i := range m.terms {
		t := &m.terms[i]
		if t.Level != level || !t.ActiveAt(at) {
			continue
		}
		if level == gov.LevelState && gov.FoldRegion(t.Region) != gov.FoldRegion(region) {
			continue
		}
		if best == nil || t.StartsOn.After(best.StartsOn) {
			best = t
		}
	}
	if best == nil {
		return Term{}, fmt.Errorf("active %s term %q: %w", level, region, gov.ErrNotFound)
	}
	return *best, nil
}

func (m *MemoryStore) ConstituencyByCode(_ context.Context, termID string, scope gov.Scope, region, code string) (Constituency, error) {
	for _, c := range m.constituencies {
		if c.TermID == termID && c.Scope == scope && c.ExternalID == code &&
			(region == "" || gov.FoldRegion(c.Region) == gov.FoldRegion(region)) {
			return c, nil
		}
	}
	return Constituency{}, fmt.Errorf("constituency %s %s %q %s: %w", termID, scope, region, code, gov.ErrNotFound)
}

func (m *MemoryStore) ListConstituencies(_ context.Context, termID string, scope gov.Scope, region string) ([]Constituency, error) {
	var out []Constituency
	for _, c := range m.constituencies {
		if c.TermID == termID && c.Scope == scope && gov.FoldRegion(c.Region) == gov.FoldRegion(region) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) RepresentativesFor(_ context.Context, constituencyID string, at time.Time) ([]Representative, error) {
	var out []Representative
	for _, r := range m.reps {
		if r.ConstituencyID == constituencyID && r.ActiveAt(at) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (m *MemoryStore) CommitteeTopics(context.Context) (map[string][]string, error) {
	out := make(map[string][]string, len(m.topics))
	for k, v := range m.topics {
		out[k] = append([]string(nil), v...)
	}
	return out, nil
}
