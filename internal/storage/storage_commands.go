package storage

import (
	"context"
	"fmt"
	"time"
)

type CommandRecord struct {
	ChannelID    string
	UserID       string
	Username     string
	Command      string
	Param        string
	InvocationID string
	Datetime     time.Time
}

// SetCommand appends a command to the guild's log and trims it to the most
// recent entries.
func (s *Storage) SetCommand(ctx context.Context, guildID string, rec CommandRecord) error {
	if rec.Datetime.IsZero() {
		rec.Datetime = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO command_history (guild_id, channel_id, user_id, username, command, param, invocation_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		guildID, rec.ChannelID, rec.UserID, rec.Username, rec.Command, rec.Param, rec.InvocationID, rec.Datetime.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert command: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM command_history
		WHERE guild_id = ? AND id NOT IN (
			SELECT id FROM command_history WHERE guild_id = ? ORDER BY id DESC LIMIT ?
		)`, guildID, guildID, commandHistoryLimit)
	if err != nil {
		return fmt.Errorf("trim command history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Commands returns the guild's command log, newest first.
func (s *Storage) Commands(ctx context.Context, guildID string) ([]CommandRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id, user_id, username, command, param, invocation_id, created_at
		FROM command_history
		WHERE guild_id = ?
		ORDER BY id DESC`, guildID)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	var out []CommandRecord
	for rows.Next() {
		var rec CommandRecord
		var createdAt int64
		if err := rows.Scan(&rec.ChannelID, &rec.UserID, &rec.Username, &rec.Command, &rec.Param, &rec.InvocationID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		rec.Datetime = time.UnixMilli(createdAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commands: %w", err)
	}
	return out, nil
}
