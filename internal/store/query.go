package store

import (
	"context"
	"strings"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
)

// Query holds the optional, independently combinable filters for
// Activities. The zero value matches everything, newest first.
//
// An empty Tags set or empty Search string means "filter absent", not
// "match nothing". Search is a case-insensitive literal substring match
// over address, invoice, and message; % and _ in it have no wildcard
// meaning. Limit distinguishes absent (nil, no LIMIT clause) from zero
// (LIMIT 0, always empty). MinDate after MaxDate yields an empty
// result, not an error.
type Query struct {
	Filter      activity.Filter
	PaymentType *activity.PaymentType
	Tags        []string
	Search      string
	MinDate     *uint64
	MaxDate     *uint64
	Limit       *int64
	Sort        activity.SortDirection
}

// likeEscaper neutralizes LIKE wildcards in user-supplied search text;
// the pattern carries its own % anchors.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// build renders the query text and its bound arguments. Every
// user-supplied value - including each tag of the IN list - is bound via
// a placeholder; supplied values can never alter the filter structure.
func (q Query) build() (string, []any) {
	var b strings.Builder
	var args []any

	b.WriteString(`WITH filtered_activities AS (
	SELECT DISTINCT a.id
	FROM activities a
	LEFT JOIN activity_tags t ON a.id = t.activity_id
	LEFT JOIN onchain_activity o ON a.id = o.id
	LEFT JOIN lightning_activity l ON a.id = l.id
	WHERE 1=1`)

	switch q.Filter {
	case activity.FilterOnchain:
		b.WriteString(" AND a.activity_type = 'onchain'")
	case activity.FilterLightning:
		b.WriteString(" AND a.activity_type = 'lightning'")
	}

	if q.PaymentType != nil {
		b.WriteString(" AND a.tx_type = ?")
		args = append(args, string(*q.PaymentType))
	}

	if len(q.Tags) > 0 {
		b.WriteString(" AND t.tag IN (?")
		b.WriteString(strings.Repeat(",?", len(q.Tags)-1))
		b.WriteString(")")
		for _, tag := range q.Tags {
			args = append(args, tag)
		}
	}

	if q.MinDate != nil {
		b.WriteString(" AND a.timestamp >= ?")
		args = append(args, int64(*q.MinDate))
	}
	if q.MaxDate != nil {
		b.WriteString(" AND a.timestamp <= ?")
		args = append(args, int64(*q.MaxDate))
	}

	if q.Search != "" {
		b.WriteString(` AND (o.address LIKE ? ESCAPE '\' OR l.invoice LIKE ? ESCAPE '\' OR l.message LIKE ? ESCAPE '\')`)
		pattern := "%" + likeEscaper.Replace(q.Search) + "%"
		args = append(args, pattern, pattern, pattern)
	}

	b.WriteString(`
)
SELECT` + activityColumns + `
FROM activities a
INNER JOIN filtered_activities fa ON a.id = fa.id
LEFT JOIN onchain_activity o ON a.id = o.id AND a.activity_type = 'onchain'
LEFT JOIN lightning_activity l ON a.id = l.id AND a.activity_type = 'lightning'
ORDER BY a.timestamp `)
	b.WriteString(q.Sort.SQL())

	if q.Limit != nil {
		b.WriteString(" LIMIT ?")
		args = append(args, *q.Limit)
	}

	return b.String(), args
}

// Activities returns every activity matching the conjunction of all
// supplied filters, ordered by timestamp. Ties share no secondary sort
// key and are unordered across runs.
func (s *Store) Activities(ctx context.Context, q Query) ([]activity.Activity, error) {
	sqlText, args := q.build()

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "query activities", err)
	}
	defer rows.Close()

	activities := []activity.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, activity.NewError(activity.KindData, "decode activity row", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "iterate activities", err)
	}

	return activities, nil
}

// ActivitiesByTag returns activities carrying the given tag, ordered by
// timestamp with an optional limit.
func (s *Store) ActivitiesByTag(ctx context.Context, tag string, limit *int64, sort activity.SortDirection) ([]activity.Activity, error) {
	q := Query{Tags: []string{tag}, Limit: limit, Sort: sort}
	return s.Activities(ctx, q)
}
