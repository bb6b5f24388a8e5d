package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/napomni/napomni/store"
)

func (d *DB) CreateReminder(ctx context.Context, create *store.Reminder) (*store.Reminder, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = nowUnix()
	}

	fields := []string{"uid", "user_id", "task", "original", "scheduled_ts", "status", "created_ts"}
	values := []any{create.UID, create.UserID, create.Task, create.Original, create.ScheduledTs, create.Status, create.CreatedTs}

	stmt := `INSERT INTO reminder (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(values)) + `)
		RETURNING id`

	if err := d.db.QueryRowContext(ctx, stmt, values...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	return create, nil
}

func (d *DB) ListReminders(ctx context.Context, find *store.FindReminder) ([]*store.Reminder, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "reminder.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "reminder.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "reminder.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "reminder.status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ScheduledBefore; v != nil {
		where, args = append(where, "reminder.scheduled_ts <= "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, uid, user_id, task, original,
			scheduled_ts, status, error_text, created_ts, sent_ts
		FROM reminder
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY reminder.scheduled_ts ASC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Reminder, 0)
	for rows.Next() {
		var reminder store.Reminder
		var errorText sql.NullString
		var sentTs sql.NullInt64

		if err := rows.Scan(
			&reminder.ID,
			&reminder.UID,
			&reminder.UserID,
			&reminder.Task,
			&reminder.Original,
			&reminder.ScheduledTs,
			&reminder.Status,
			&errorText,
			&reminder.CreatedTs,
			&sentTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}

		if errorText.Valid {
			reminder.ErrorText = &errorText.String
		}
		if sentTs.Valid {
			reminder.SentTs = &sentTs.Int64
		}

		list = append(list, &reminder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reminders: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateReminder(ctx context.Context, update *store.UpdateReminder) error {
	set, args := []string{}, []any{}

	if v := update.Status; v != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.ErrorText; v != nil {
		set, args = append(set, "error_text = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.SentTs; v != nil {
		set, args = append(set, "sent_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil
	}

	stmt := `UPDATE reminder SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)+1)
	args = append(args, update.ID)

	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	return nil
}

func (d *DB) DeleteReminder(ctx context.Context, delete *store.DeleteReminder) error {
	where, args := []string{"id = " + placeholder(1)}, []any{delete.ID}
	if v := delete.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	stmt := `DELETE FROM reminder WHERE ` + strings.Join(where, " AND ")
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return nil
}
