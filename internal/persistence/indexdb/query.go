package indexdb

import "context"

// StatusSummary aggregates the searches that ended with one status.
type StatusSummary struct {
	Status     string
	Runs       int
	AvgVisited float64
	AvgTimeMs  float64
	AvgPathLen float64
}

func (s *SQLiteIndex) SearchSummary(ctx context.Context) ([]StatusSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*), AVG(visited), AVG(time_ms), AVG(path_len)
		FROM searches GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StatusSummary
	for rows.Next() {
		var r StatusSummary
		if err := rows.Scan(&r.Status, &r.Runs, &r.AvgVisited, &r.AvgTimeMs, &r.AvgPathLen); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ResetCounts counts path resets by reason.
func (s *SQLiteIndex) ResetCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT reason, COUNT(*) FROM resets GROUP BY reason`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, err
		}
		out[reason] = n
	}
	return out, rows.Err()
}

// GoalOutcome returns how a goal ended, or "" while it is still open.
func (s *SQLiteIndex) GoalOutcome(ctx context.Context, goalID uint64) (string, error) {
	var outcome *string
	err := s.db.QueryRowContext(ctx, `SELECT outcome FROM goals WHERE goal_id=?`, int64(goalID)).Scan(&outcome)
	if err != nil {
		return "", err
	}
	if outcome == nil {
		return "", nil
	}
	return *outcome, nil
}
