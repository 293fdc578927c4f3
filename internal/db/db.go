// Package db opens database connections. The backend is chosen by the DSN scheme.
package db

import (
	"fmt"
	"net/url"
)

type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMongo    Driver = "mongo"
)

// DetectDriver returns the backend the dsn points to
func DetectDriver(dsn string) (Driver, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid database dsn: %w", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		return DriverPostgres, nil
	case "mongodb", "mongodb+srv":
		return DriverMongo, nil
	default:
		return "", fmt.Errorf("unsupported database scheme %q", u.Scheme)
	}
}
