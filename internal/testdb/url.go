package testdb

import (
	"net/url"
	"os"
)

// Environment variables checked for a test database URL, in order.
const (
	EnvScryTestDBURL = "SCRY_TEST_DB_URL"
	EnvDatabaseURL   = "DATABASE_URL"
)

// GetTestDatabaseURL returns the first non-empty test database URL from the
// environment, or an empty string when none is set.
func GetTestDatabaseURL() string {
	for _, name := range []string{EnvScryTestDBURL, EnvDatabaseURL} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// ShouldSkipDatabaseTest reports whether database tests must be skipped.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}

// MaskDatabaseURL hides the password of a database URL for safe logging.
func MaskDatabaseURL(dbURL string) string {
	if dbURL == "" {
		return ""
	}
	u, err := url.Parse(dbURL)
	if err != nil || u.User == nil {
		return dbURL
	}
	return u.Redacted()
}
