package catalog

import (
	"context"
	"fmt"

	"wahlkreis-api/internal/logger"
)

// ImportStats 导入行数统计
type ImportStats struct {
	Terms           int
	Constituencies  int
	Representatives int
	CommitteeTopics int
}

// 文档注释：将固件目录同步到 Postgres
// 背景：运维通过 CLI 从 YAML 固件初始化或更新数据库目录；同一 ID 重复导入覆盖原值。
// 约束：单事务执行，任一行失败整体回滚；议员的委员会列表整体替换；不删除固件中不存在的行。
func (p *PostgresStore) Import(ctx context.Context, m *MemoryStore) (ImportStats, error) {
	var st ImportStats
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return st, err
	}
	defer tx.Rollback()

	for _, t := range m.terms {
		if _, err := tx.ExecContext(ctx, `INSERT INTO parliament_terms(id, level, region, starts_on, ends_on)
            VALUES($1,$2,$3,$4,$5)
            ON CONFLICT (id) DO UPDATE SET level=EXCLUDED.level, region=EXCLUDED.region,
                starts_on=EXCLUDED.starts_on, ends_on=EXCLUDED.ends_on`,
			t.ID, t.Level.String(), t.Region, t.StartsOn, t.EndsOn); err != nil {
			return st, fmt.Errorf("term %s: %w", t.ID, err)
		}
		st.Terms++
	}
	for _, c := range m.constituencies {
		if _, err := tx.ExecContext(ctx, `INSERT INTO constituencies(id, term_id, level, scope, region, external_id, name)
            VALUES($1,$2,$3,$4,$5,$6,$7)
            ON CONFLICT (id) DO UPDATE SET term_id=EXCLUDED.term_id, level=EXCLUDED.level, scope=EXCLUDED.scope,
                region=EXCLUDED.region, external_id=EXCLUDED.external_id, name=EXCLUDED.name`,
			c.ID, c.TermID, c.Level.String(), c.Scope.String(), c.Region, c.ExternalID, c.Name); err != nil {
			return st, fmt.Errorf("constituency %s: %w", c.ID, err)
		}
		st.Constituencies++
	}
	for _, r := range m.reps {
		if _, err := tx.ExecContext(ctx, `INSERT INTO representatives(id, name, party, constituency_id, list_position, active_from, active_until)
            VALUES($1,$2,$3,$4,$5,$6,$7)
            ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, party=EXCLUDED.party, constituency_id=EXCLUDED.constituency_id,
                list_position=EXCLUDED.list_position, active_from=EXCLUDED.active_from, active_until=EXCLUDED.active_until`,
			r.ID, r.Name, r.Party, r.ConstituencyID, r.ListPosition, r.ActiveFrom, r.ActiveUntil); err != nil {
			return st, fmt.Errorf("representative %s: %w", r.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM representative_committees WHERE representative_id = $1`, r.ID); err != nil {
			return st, fmt.Errorf("representative %s committees: %w", r.ID, err)
		}
		for _, c := range r.Committees {
			if _, err := tx.ExecContext(ctx, `INSERT INTO representative_committees(representative_id, committee)
                VALUES($1,$2) ON CONFLICT DO NOTHING`, r.ID, c); err != nil {
				return st, fmt.Errorf("representative %s committee %q: %w", r.ID, c, err)
			}
		}
		st.Representatives++
	}
	for committee, topics := range m.topics {
		for _, id := range topics {
			if _, err := tx.ExecContext(ctx, `INSERT INTO committee_topics(committee, topic_id)
                VALUES($1,$2) ON CONFLICT DO NOTHING`, committee, id); err != nil {
				return st, fmt.Errorf("committee topic %q: %w", committee, err)
			}
			st.CommitteeTopics++
		}
	}
	if err := tx.Commit(); err != nil {
		return st, err
	}
	logger.L().Info("catalog_import_done",
		"terms", st.Terms, "constituencies", st.Constituencies,
		"representatives", st.Representatives, "committee_topics", st.CommitteeTopics)
	return st, nil
}
