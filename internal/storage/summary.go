package storage

import (
	"context"
	"fmt"
	"time"
)

// TrainingPeriodSummary holds aggregated session stats for one period.
type TrainingPeriodSummary struct {
	Period             string   `json:"period"`
	Sessions           int      `json:"sessions"`
	TotalMinutes       int      `json:"total_minutes"`
	Rolls              int      `json:"rolls"`
	SubmissionsFor     int      `json:"submissions_for"`
	SubmissionsAgainst int      `json:"submissions_against"`
	AvgIntensity       float64  `json:"avg_intensity"`
	AvgStrain          *float64 `json:"avg_strain,omitempty"`
}

// GetTrainingSummary returns per-period training volume: session counts,
// mat time, roll and submission totals, and average strain where wearable
// matches exist.
func (db *DB) GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]TrainingPeriodSummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, date)::date AS period,
		        COUNT(*)::int,
		        COALESCE(SUM(duration_minutes), 0)::int,
		        COALESCE(SUM(roll_count), 0)::int,
		        COALESCE(SUM(submissions_for), 0)::int,
		        COALESCE(SUM(submissions_against), 0)::int,
		        AVG(intensity),
		        AVG(strain)
		 FROM sessions
		 WHERE date >= $2 AND date < $3 AND user_id = $4
		 GROUP BY period
		 ORDER BY period DESC`,
		truncInterval(bucket), start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying training summary: %w", err)
	}
	defer rows.Close()

	var out []TrainingPeriodSummary
	for rows.Next() {
		var periodTime time.Time
		var p TrainingPeriodSummary
		if err := rows.Scan(&periodTime, &p.Sessions, &p.TotalMinutes, &p.Rolls,
			&p.SubmissionsFor, &p.SubmissionsAgainst, &p.AvgIntensity, &p.AvgStrain); err != nil {
			return nil, fmt.Errorf("scanning training summary: %w", err)
		}
		p.Period = periodTime.Format("2006-01-02")
		out = append(out, p)
	}
	return out, rows.Err()
}

// truncInterval maps a bucket spec to a date_trunc field name.
func truncInterval(bucket string) string {
	switch bucket {
	case "1 week":
		return "week"
	case "1 month":
		return "month"
	default:
		return "week"
	}
}
