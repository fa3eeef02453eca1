package tracking

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// whereSQL prefixes a non-empty clause with WHERE
func whereSQL(clause string) string {
	if clause == "" {
		return ""
	}
	return " WHERE " + clause
}

// GetRecentEvents returns the newest journaled events matching filter
func GetRecentEvents(db *sql.DB, filter QueryFilter) ([]PlaybackEvent, error) {
	whereClause, args := filter.BuildWhereClause(time.Now())
	query := `
		SELECT id, timestamp, run_id, op, path, channel, loops, volume, previous, error
		FROM playback_events` + whereSQL(whereClause) + `
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`
	args = append(args, filter.limit())

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	var events []PlaybackEvent
	for rows.Next() {
		var ev PlaybackEvent
		var ts int64
		if err := rows.Scan(&ev.ID, &ts, &ev.RunID, &ev.Op, &ev.Path, &ev.Channel,
			&ev.Loops, &ev.Volume, &ev.Previous, &ev.Error); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Timestamp = time.Unix(ts, 0)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	slog.Debug("recent events loaded", "count", len(events))
	return events, nil
}

// GetOpStats counts events and failures per operation
func GetOpStats(db *sql.DB, filter QueryFilter) ([]OpStats, error) {
	whereClause, args := filter.BuildWhereClause(time.Now())
	query := `
		SELECT op, COUNT(*), SUM(CASE WHEN error != '' THEN 1 ELSE 0 END)
		FROM playback_events` + whereSQL(whereClause) + `
		GROUP BY op
		ORDER BY COUNT(*) DESC, op`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operation stats: %w", err)
	}
	defer rows.Close()

	var stats []OpStats
	for rows.Next() {
		var s OpStats
		if err := rows.Scan(&s.Op, &s.Count, &s.Failures); err != nil {
			return nil, fmt.Errorf("failed to scan operation stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// GetPathUsage ranks resource paths by how often they were played
func GetPathUsage(db *sql.DB, filter QueryFilter) ([]PathUsage, error) {
	whereClause, args := filter.BuildWhereClause(time.Now())
	if whereClause == "" {
		whereClause = "path != ''"
	} else {
		whereClause += " AND path != ''"
	}
	query := `
		SELECT path,
		       SUM(CASE WHEN op IN ('load_sound', 'load_music') THEN 1 ELSE 0 END),
		       SUM(CASE WHEN op IN ('play_channel', 'play_music') THEN 1 ELSE 0 END),
		       SUM(CASE WHEN error != '' THEN 1 ELSE 0 END),
		       MAX(timestamp)
		FROM playback_events WHERE ` + whereClause + `
		GROUP BY path
		ORDER BY 3 DESC, 2 DESC, path
		LIMIT ?`
	args = append(args, filter.limit())

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query path usage: %w", err)
	}
	defer rows.Close()

	var usage []PathUsage
	for rows.Next() {
		var u PathUsage
		var last int64
		if err := rows.Scan(&u.Path, &u.Loads, &u.Plays, &u.Failures, &last); err != nil {
			return nil, fmt.Errorf("failed to scan path usage: %w", err)
		}
		u.LastSeen = time.Unix(last, 0)
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

// GetSummary aggregates every event matching filter
func GetSummary(db *sql.DB, filter QueryFilter) (*Summary, error) {
	whereClause, args := filter.BuildWhereClause(time.Now())
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN error != '' THEN 1 ELSE 0 END), 0),
		       COUNT(DISTINCT run_id),
		       COUNT(DISTINCT NULLIF(path, '')),
		       COALESCE(MIN(timestamp), 0),
		       COALESCE(MAX(timestamp), 0)
		FROM playback_events` + whereSQL(whereClause)

	var s Summary
	var first, last int64
	err := db.QueryRow(query, args...).Scan(&s.TotalEvents, &s.Failures, &s.Runs, &s.UniquePaths, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}
	if s.TotalEvents > 0 {
		s.First = time.Unix(first, 0)
		s.Last = time.Unix(last, 0)
	}
	return &s, nil
}
