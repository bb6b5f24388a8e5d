package store

import (
	"context"
)

// Well-known user setting keys.
const (
	// UserSettingChannelID binds a user to the channel their reminders are
	// published to.
	UserSettingChannelID = "channel_id"

	UserSettingMorningTime = "morning_time"
	UserSettingDayTime     = "day_time"
	UserSettingEveningTime = "evening_time"
	UserSettingDefaultTime = "default_time"
)

// UserSetting is a per-user key/value setting.
type UserSetting struct {
	UserID int64
	Key    string
	Value  string
}

// FindUserSetting is the find condition for user settings.
type FindUserSetting struct {
	UserID *int64
	Key    *string
}

// DeleteUserSetting is the delete request for a user setting.
type DeleteUserSetting struct {
	UserID int64
	Key    string
}

// UpsertUserSetting creates or replaces a user setting.
func (s *Store) UpsertUserSetting(ctx context.Context, upsert *UserSetting) (*UserSetting, error) {
	return s.driver.UpsertUserSetting(ctx, upsert)
}

// ListUserSettings lists user settings with filter.
func (s *Store) ListUserSettings(ctx context.Context, find *FindUserSetting) ([]*UserSetting, error) {
	return s.driver.ListUserSettings(ctx, find)
}

// GetUserSetting gets one setting value, or "" when unset.
func (s *Store) GetUserSetting(ctx context.Context, userID int64, key string) (string, error) {
	list, err := s.driver.ListUserSettings(ctx, &FindUserSetting{UserID: &userID, Key: &key})
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", nil
	}
	return list[0].Value, nil
}

// DeleteUserSetting deletes a user setting.
func (s *Store) DeleteUserSetting(ctx context.Context, delete *DeleteUserSetting) error {
	return s.driver.DeleteUserSetting(ctx, delete)
}

// UserTimes returns the raw day-part settings map of a user, ready for
// normalization by the resolver.
func (s *Store) UserTimes(ctx context.Context, userID int64) (map[string]string, error) {
	list, err := s.driver.ListUserSettings(ctx, &FindUserSetting{UserID: &userID})
	if err != nil {
		return nil, err
	}
	times := make(map[string]string, len(list))
	for _, us := range list {
		switch us.Key {
		case UserSettingMorningTime, UserSettingDayTime, UserSettingEveningTime, UserSettingDefaultTime:
			times[us.Key] = us.Value
		}
	}
	return times, nil
}
