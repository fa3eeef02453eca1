package tracking

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tj/go-naturaldate"
)

// QueryFilter represents common query structure for journal queries
type QueryFilter struct {
	// Time filters (mutually exclusive)
	StartTime  *time.Time // Start of time range (inclusive)
	EndTime    *time.Time // End of time range (inclusive)
	Days       int        // Convenience: last N days (overrides Start/End)
	DatePreset string     // Convenience: "today", "yesterday", "week", "month", "all"

	// Content filters
	Op         string // Filter by mixer operation
	Path       string // Filter by resource path
	RunID      string // Filter by process run
	FailedOnly bool   // Only events that carried an error

	// Output control
	Limit int // Maximum results (default: 20)
}

const defaultLimit = 20

// ApplyTimeFilter converts QueryFilter time options to Unix timestamps
func (q *QueryFilter) ApplyTimeFilter(now time.Time) (startUnix, endUnix int64) {
	endUnix = now.Unix()

	// Priority order: DatePreset > StartTime/EndTime > Days > no filter
	if q.DatePreset != "" {
		start, end, err := ParseDatePreset(q.DatePreset, now)
		if err != nil {
			slog.Warn("invalid date preset, using no time filter", "preset", q.DatePreset, "error", err)
			return 0, endUnix
		}
		if start.IsZero() {
			return 0, end.Unix()
		}
		return start.Unix(), end.Unix()
	}

	if q.StartTime != nil && q.EndTime != nil {
		return q.StartTime.Unix(), q.EndTime.Unix()
	}
	if q.StartTime != nil {
		return q.StartTime.Unix(), endUnix
	}
	if q.EndTime != nil {
		return 0, q.EndTime.Unix()
	}

	if q.Days > 0 {
		return now.AddDate(0, 0, -q.Days).Unix(), endUnix
	}

	return 0, endUnix
}

// BuildWhereClause constructs SQL WHERE clause and arguments from QueryFilter
func (q *QueryFilter) BuildWhereClause(now time.Time) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if q.StartTime != nil || q.EndTime != nil || q.Days > 0 || q.DatePreset != "" {
		startUnix, endUnix := q.ApplyTimeFilter(now)

		if startUnix > 0 {
			clauses = append(clauses, "timestamp >= ?")
			args = append(args, startUnix)
		}

		clauses = append(clauses, "timestamp <= ?")
		args = append(args, endUnix)
	}

	if q.Op != "" {
		clauses = append(clauses, "op = ?")
		args = append(args, q.Op)
	}

	if q.Path != "" {
		clauses = append(clauses, "path = ?")
		args = append(args, q.Path)
	}

	if q.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, q.RunID)
	}

	if q.FailedOnly {
		clauses = append(clauses, "error != ''")
	}

	whereClause := strings.Join(clauses, " AND ")
	slog.Debug("built where clause", "clause", whereClause, "arg_count", len(args))

	return whereClause, args
}

// limit returns the row limit, applying the default
func (q *QueryFilter) limit() int {
	if q.Limit <= 0 {
		return defaultLimit
	}
	return q.Limit
}

// ParseDatePreset converts date preset strings to time ranges
func ParseDatePreset(preset string, now time.Time) (start, end time.Time, err error) {
	switch preset {
	case "today":
		start = beginningOfDay(now)
		end = now
	case "yesterday":
		yesterday := now.AddDate(0, 0, -1)
		start = beginningOfDay(yesterday)
		end = beginningOfDay(now)
	case "week", "this-week":
		start = beginningOfWeek(now)
		end = now
	case "last-week":
		start = beginningOfWeek(now).AddDate(0, 0, -7)
		end = beginningOfWeek(now)
	case "month", "this-month":
		start = beginningOfMonth(now)
		end = now
	case "last-month":
		start = beginningOfMonth(now).AddDate(0, -1, 0)
		end = beginningOfMonth(now)
	case "all", "all-time":
		start = time.Time{} // Zero value = no lower bound
		end = now
	default:
		err = fmt.Errorf("unknown preset: %s", preset)
		return
	}

	return
}

// ParseNaturalDate parses natural language dates such as "2 hours ago"
// relative to now
func ParseNaturalDate(naturalDate string, now time.Time) (time.Time, error) {
	result, err := naturaldate.Parse(naturalDate, now, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		slog.Warn("failed to parse natural language date", "input", naturalDate, "error", err)
		return time.Time{}, fmt.Errorf("failed to parse natural date '%s': %w", naturalDate, err)
	}

	slog.Debug("parsed natural language date", "input", naturalDate, "result", result)
	return result, nil
}

// ParseSince builds a time filter from a --since value: a date preset, or a
// natural language date used as the start of the range
func ParseSince(since string, now time.Time) (QueryFilter, error) {
	since = strings.TrimSpace(strings.ToLower(since))
	if since == "" {
		return QueryFilter{}, nil
	}

	if _, _, err := ParseDatePreset(since, now); err == nil {
		return QueryFilter{DatePreset: since}, nil
	}

	start, err := ParseNaturalDate(since, now)
	if err != nil {
		return QueryFilter{}, err
	}
	if start.After(now) {
		return QueryFilter{}, fmt.Errorf("--since %q is in the future", since)
	}
	return QueryFilter{StartTime: &start}, nil
}

// beginningOfDay returns time at start of day (00:00:00)
func beginningOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// beginningOfWeek returns time at start of week (Monday 00:00:00)
func beginningOfWeek(t time.Time) time.Time {
	weekday := t.Weekday()
	if weekday == time.Sunday {
		weekday = 7 // Treat Sunday as 7 to make Monday = 1
	}
	monday := t.AddDate(0, 0, -int(weekday-1))
	return beginningOfDay(monday)
}

// beginningOfMonth returns time at start of month (1st day 00:00:00)
func beginningOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
