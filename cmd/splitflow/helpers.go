package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/mfontaine/splitflow/internal/storage"
)

// defaultLookback bounds the historical window handed to the engines.
const defaultLookback = 365 * 24 * time.Hour

// openStorage opens the configured database and runs pending migrations.
func openStorage() (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(viper.GetString("storage.path"))
	if err != nil {
		return nil, err
	}
	return store, nil
}

// lookbackStart returns the start of the historical window.
func lookbackStart() time.Time {
	lookback := viper.GetDuration("history.lookback")
	if lookback <= 0 {
		lookback = defaultLookback
	}
	return time.Now().Add(-lookback)
}
