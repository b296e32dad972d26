package db

import (
	"fmt"
	"net/url"
	"strings"
)

// Redacted returns the DSN with its password masked, suitable for logs.
// Supports postgres:// and postgresql:// schemes; a DSN without a scheme is
// treated as postgres://.
func Redacted(dsn string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("empty DSN")
	}
	if !strings.Contains(dsn, "://") {
		dsn = "postgres://" + dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported DSN scheme %q", u.Scheme)
	}
	return u.Redacted(), nil
}
