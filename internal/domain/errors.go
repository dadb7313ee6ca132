package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUpstream marks transport failures: the station could not be reached or
// answered with a non-success status.
var ErrUpstream = errors.New("upstream unavailable")

// ErrNoHourlyRows is returned when the hourly table was found but no row parsed.
var ErrNoHourlyRows = errors.New("no hourly rows parsed")

// MissingTablesError reports tables that could not be located by any extraction pass.
type MissingTablesError struct {
	Tables []string
}

func (e *MissingTablesError) Error() string {
	return fmt.Sprintf("missing tables: %s", strings.Join(e.Tables, ", "))
}
