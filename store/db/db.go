// Package db selects the concrete store driver from the runtime profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/napomni/napomni/internal/profile"
	"github.com/napomni/napomni/store"
	"github.com/napomni/napomni/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'sqlite' is supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
