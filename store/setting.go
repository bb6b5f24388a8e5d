package store

import (
	"context"
)

// Setting is an instance-wide key/value setting.
type Setting struct {
	Name  string
	Value string
}

// FindSetting is the find condition for instance settings.
type FindSetting struct {
	Name *string
}

// UpsertSetting creates or replaces an instance setting.
func (s *Store) UpsertSetting(ctx context.Context, upsert *Setting) (*Setting, error) {
	return s.driver.UpsertSetting(ctx, upsert)
}

// GetSetting gets one instance setting value, or "" when unset.
func (s *Store) GetSetting(ctx context.Context, name string) (string, error) {
	list, err := s.driver.ListSettings(ctx, &FindSetting{Name: &name})
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", nil
	}
	return list[0].Value, nil
}

// ListSettings lists instance settings with filter.
func (s *Store) ListSettings(ctx context.Context, find *FindSetting) ([]*Setting, error) {
	return s.driver.ListSettings(ctx, find)
}
