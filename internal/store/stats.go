package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const dailyStatsKey = "daily_stats"

// LoadDailyStats reads the stats row. A missing row yields zero stats.
func (s *Store) LoadDailyStats() (DailyStats, error) {
	var d DailyStats
	var raw string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, dailyStatsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return d, nil
	}
	if err != nil {
		return d, fmt.Errorf("load daily stats: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return DailyStats{}, fmt.Errorf("decode daily stats: %w", err)
	}
	return d, nil
}

func (s *Store) SaveDailyStats(d DailyStats) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode daily stats: %w", err)
	}
	if err := s.SetSetting(dailyStatsKey, string(data)); err != nil {
		return fmt.Errorf("save daily stats: %w", err)
	}
	return nil
}
