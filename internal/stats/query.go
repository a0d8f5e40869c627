package stats

import "fmt"

// PlayerCount is a per-player tally
type PlayerCount struct {
	PlayerID string `json:"player_id"`
	Count    int    `json:"count"`
}

// EventCounts returns counts of each event type for the last N days
func (r *Recorder) EventCounts(days int) (map[string]int, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	rows, err := r.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, fmt.Errorf("event counts: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// TopPlayers returns the players with the most events of one type
func (r *Recorder) TopPlayers(evtType string, limit int) ([]PlayerCount, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	rows, err := r.db.conn.Query(`
		SELECT player_id, COUNT(*) AS cnt FROM analytics_events
		WHERE event_type = ? AND player_id IS NOT NULL
		GROUP BY player_id ORDER BY cnt DESC, player_id LIMIT ?
	`, evtType, limit)
	if err != nil {
		return nil, fmt.Errorf("top players: %w", err)
	}
	defer rows.Close()

	var result []PlayerCount
	for rows.Next() {
		var pc PlayerCount
		if err := rows.Scan(&pc.PlayerID, &pc.Count); err != nil {
			continue
		}
		result = append(result, pc)
	}
	return result, rows.Err()
}
