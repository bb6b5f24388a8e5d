package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/napomni/napomni/store"
)

func (d *DB) UpsertUserSetting(ctx context.Context, upsert *store.UserSetting) (*store.UserSetting, error) {
	stmt := `
		INSERT INTO user_setting (user_id, key, value)
		VALUES (` + placeholders(3) + `)
		ON CONFLICT (user_id, key) DO UPDATE SET value = EXCLUDED.value`

	if _, err := d.db.ExecContext(ctx, stmt, upsert.UserID, upsert.Key, upsert.Value); err != nil {
		return nil, fmt.Errorf("failed to upsert user setting: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListUserSettings(ctx context.Context, find *store.FindUserSetting) ([]*store.UserSetting, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Key; v != nil {
		where, args = append(where, "key = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT user_id, key, value FROM user_setting WHERE ` + strings.Join(where, " AND ")

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user settings: %w", err)
	}
	defer rows.Close()

	list := make([]*store.UserSetting, 0)
	for rows.Next() {
		var us store.UserSetting
		if err := rows.Scan(&us.UserID, &us.Key, &us.Value); err != nil {
			return nil, fmt.Errorf("failed to scan user setting: %w", err)
		}
		list = append(list, &us)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user settings: %w", err)
	}

	return list, nil
}

func (d *DB) DeleteUserSetting(ctx context.Context, delete *store.DeleteUserSetting) error {
	stmt := `DELETE FROM user_setting WHERE user_id = ` + placeholder(1) + ` AND key = ` + placeholder(2)
	if _, err := d.db.ExecContext(ctx, stmt, delete.UserID, delete.Key); err != nil {
		return fmt.Errorf("failed to delete user setting: %w", err)
	}
	return nil
}
