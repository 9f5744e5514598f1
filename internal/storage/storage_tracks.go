package storage

import (
	"context"
	"fmt"
	"time"
)

type TrackRecord struct {
	Title       string
	URL         string
	Source      string
	Duration    time.Duration
	RequestedBy string
	PlayedAt    time.Time
}

// AddTrack records a played track, keeping only the most recent ones per guild.
func (s *Storage) AddTrack(ctx context.Context, guildID string, rec TrackRecord) error {
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO track_history (guild_id, title, url, source, duration_ms, requested_by, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		guildID, rec.Title, rec.URL, rec.Source, rec.Duration.Milliseconds(), rec.RequestedBy, rec.PlayedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert track: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM track_history
		WHERE guild_id = ? AND id NOT IN (
			SELECT id FROM track_history WHERE guild_id = ? ORDER BY id DESC LIMIT ?
		)`, guildID, guildID, tracksHistoryLimit)
	if err != nil {
		return fmt.Errorf("trim track history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Tracks returns recently played tracks, newest first.
func (s *Storage) Tracks(ctx context.Context, guildID string) ([]TrackRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, url, source, duration_ms, requested_by, played_at
		FROM track_history
		WHERE guild_id = ?
		ORDER BY id DESC`, guildID)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var out []TrackRecord
	for rows.Next() {
		var rec TrackRecord
		var durationMS, playedAt int64
		if err := rows.Scan(&rec.Title, &rec.URL, &rec.Source, &durationMS, &rec.RequestedBy, &playedAt); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.PlayedAt = time.UnixMilli(playedAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return out, nil
}
