package database

import (
	"fmt"
	"net/url"
	"strings"
)

// ConstructDatabaseURL joins a server URL with a database name.
// When databaseName is empty the base URL is used as the full URL. sslmode=disable is added
// unless the URL already sets an sslmode.
func ConstructDatabaseURL(baseURL, databaseName string) (string, error) {
	if strings.TrimSpace(baseURL) == "" {
		return "", fmt.Errorf("database URL is empty")
	}

	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("invalid database URL: %w", err)
	}

	if databaseName != "" {
		u.Path = "/" + strings.Trim(databaseName, "/")
	}

	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
