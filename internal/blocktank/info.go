package blocktank

import (
	"context"
	"database/sql"
)

// UpsertInfo stores the latest service info document and marks it
// current, demoting any previous one.
func (s *Store) UpsertInfo(ctx context.Context, info *Info) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return newError(KindData, "upsert info: begin tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE info SET is_current = 0 WHERE is_current = 1`,
	); err != nil {
		return newError(KindData, "demote current info", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO info (version, nodes, options, versions, onchain, is_current)
		VALUES (?, ?, ?, ?, ?, 1)`,
		int64(info.Version), rawJSONArg(info.Nodes), rawJSONArg(info.Options),
		rawJSONArg(info.Versions), rawJSONArg(info.Onchain),
	); err != nil {
		return newError(KindInsert, "insert info", err)
	}

	if err := tx.Commit(); err != nil {
		return newError(KindData, "upsert info: commit", err)
	}
	return nil
}

// Info returns the current service info document, or nil when none has
// been cached yet.
func (s *Store) Info(ctx context.Context) (*Info, error) {
	var (
		version  int64
		nodes    sql.NullString
		options  sql.NullString
		versions sql.NullString
		onchain  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT version, nodes, options, versions, onchain
		FROM info WHERE is_current = 1`,
	).Scan(&version, &nodes, &options, &versions, &onchain)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, newError(KindRetrieval, "get current info", err)
	}

	return &Info{
		Version:  uint32(version),
		Nodes:    rawJSON(nodes),
		Options:  rawJSON(options),
		Versions: rawJSON(versions),
		Onchain:  rawJSON(onchain),
	}, nil
}
