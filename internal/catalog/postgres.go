package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"wahlkreis-api/internal/gov"
)

// 文档注释：Postgres 目录
// 背景：表由外部同步任务维护（见 migrate.EnsureSchema）；此处只读。
// 约束：层级与议席类型以文本存储，读取时转换为枚举；无法识别的值视为数据错误。
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore { return &PostgresStore{db: db} }

type termRow struct {
	ID       string       `db:"id"`
	Level    string       `db:"level"`
	Region   string       `db:"region"`
	StartsOn time.Time    `db:"starts_on"`
	EndsOn   sql.NullTime `db:"ends_on"`
}

type constituencyRow struct {
	ID         string `db:"id"`
	TermID     string `db:"term_id"`
	Scope      string `db:"scope"`
	Region     string `db:"region"`
	ExternalID string `db:"external_id"`
	Name       string `db:"name"`
}

type representativeRow struct {
	ID             uuid.UUID      `db:"id"`
	Name           string         `db:"name"`
	Party          string         `db:"party"`
	ConstituencyID string         `db:"constituency_id"`
	ListPosition   sql.NullInt64  `db:"list_position"`
	ActiveFrom     time.Time      `db:"active_from"`
	ActiveUntil    sql.NullTime   `db:"active_until"`
	Committees     pq.StringArray `db:"committees"`
}

func (p *PostgresStore) ActiveTerm(ctx context.Context, level gov.Level, region string, at time.Time) (Term, error) {
	if level != gov.LevelState {
		region = ""
	}
	var r termRow
	err := p.db.GetContext(ctx, &r, `SELECT id, level, region, starts_on, ends_on FROM parliament_terms
        WHERE level = $1 AND region = $2 AND starts_on <= $3 AND (ends_on IS NULL OR ends_on > $3)
        ORDER BY starts_on DESC LIMIT 1`, level.String(), region, at)
	if errors.Is(err, sql.ErrNoRows) {
		return Term{}, fmt.Errorf("active %s term %q: %w", level, region, gov.ErrNotFound)
	}
	if err != nil {
		return Term{}, err
	}
	lvl, err := gov.ParseLevel(r.Level)
	if err != nil {
		return Term{}, err
	}
	t := Term{ID: r.ID, Level: lvl, Region: r.Region, StartsOn: r.StartsOn}
	if r.EndsOn.Valid {
		e := r.EndsOn.Time
		t.EndsOn = &e
	}
	return t, nil
}

func (p *PostgresStore) ConstituencyByCode(ctx context.Context, termID string, scope gov.Scope, region, code string) (Constituency, error) {
	var r constituencyRow
	err := p.db.GetContext(ctx, &r, `SELECT id, term_id, scope, region, external_id, name FROM constituencies
        WHERE term_id = $1 AND scope = $2 AND external_id = $3 AND ($4 = '' OR region = $4)
        ORDER BY id LIMIT 1`, termID, scope.String(), code, region)
	if errors.Is(err, sql.ErrNoRows) {
		return Constituency{}, fmt.Errorf("constituency %s %s %q %s: %w", termID, scope, region, code, gov.ErrNotFound)
	}
	if err != nil {
		return Constituency{}, err
	}
	return r.model()
}

func (p *PostgresStore) ListConstituencies(ctx context.Context, termID string, scope gov.Scope, region string) ([]Constituency, error) {
	var rows []constituencyRow
	if err := p.db.SelectContext(ctx, &rows, `SELECT id, term_id, scope, region, external_id, name FROM constituencies
        WHERE term_id = $1 AND scope = $2 AND region = $3 ORDER BY id`, termID, scope.String(), region); err != nil {
		return nil, err
	}
	out := make([]Constituency, 0, len(rows))
	for _, r := range rows {
		c, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (p *PostgresStore) RepresentativesFor(ctx context.Context, constituencyID string, at time.Time) ([]Representative, error) {
	var rows []representativeRow
	err := p.db.SelectContext(ctx, &rows, `SELECT r.id, r.name, r.party, r.constituency_id, r.list_position,
            r.active_from, r.active_until,
            COALESCE(array_agg(rc.committee ORDER BY rc.committee) FILTER (WHERE rc.committee IS NOT NULL), '{}') AS committees
        FROM representatives r
        LEFT JOIN representative_committees rc ON rc.representative_id = r.id
        WHERE r.constituency_id = $1 AND r.active_from <= $2 AND (r.active_until IS NULL OR r.active_until > $2)
        GROUP BY r.id
        ORDER BY r.id`, constituencyID, at)
	if err != nil {
		return nil, err
	}
	out := make([]Representative, 0, len(rows))
	for _, r := range rows {
		rep := Representative{
			ID: r.ID, Name: r.Name, Party: r.Party, ConstituencyID: r.ConstituencyID,
			Committees: []string(r.Committees), ActiveFrom: r.ActiveFrom,
		}
		if r.ListPosition.Valid {
			n := int(r.ListPosition.Int64)
			rep.ListPosition = &n
		}
		if r.ActiveUntil.Valid {
			u := r.ActiveUntil.Time
			rep.ActiveUntil = &u
		}
		out = append(out, rep)
	}
	return out, nil
}

func (p *PostgresStore) CommitteeTopics(ctx context.Context) (map[string][]string, error) {
	var rows []struct {
		Committee string `db:"committee"`
		TopicID   string `db:"topic_id"`
	}
	if err := p.db.SelectContext(ctx, &rows, `SELECT committee, topic_id FROM committee_topics ORDER BY committee, topic_id`); err != nil {
		return nil, err
	}
	out := map[string][]string{}
	for _, r := range rows {
		out[r.Committee] = append(out[r.Committee], r.TopicID)
	}
	return out, nil
}

func (r constituencyRow) model() (Constituency, error) {
	sc, err := gov.ParseScope(r.Scope)
	if err != nil {
		return Constituency{}, fmt.Errorf("constituency %s: %w", r.ID, err)
	}
	return Constituency{
		ID: r.ID, TermID: r.TermID, Level: sc.Level(), Scope: sc,
		Region: r.Region, ExternalID: r.ExternalID, Name: r.Name,
	}, nil
}
