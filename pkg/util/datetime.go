package util

import (
	"fmt"
	"time"
)

const ISO8601Format = "2006-01-02T15:04:05Z07:00"

func TimeToISO8601Str(t time.Time) string {
	return t.Format(ISO8601Format)
}

// LoadLocation resolves a zone name, treating "" and "Local" as the host zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}

	return loc, nil
}
