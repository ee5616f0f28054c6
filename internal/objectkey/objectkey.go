// Package objectkey builds remote object keys of the form
//
//	<site>/<technology>/<hostname>/<YYYY>/<MM>/<filename>
//
// Year and month come from the file's own modification time so a file is
// archived under the period it belongs to, not the period it was uploaded in.
package objectkey

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Sayam753/SendToS3/internal/apperr"
)

const separator = "/"

// Parts are the components of an object key.
type Parts struct {
	Site       string
	Technology string
	Hostname   string
	Year       int
	Month      time.Month
	Filename   string
}

// Build returns the object key for a file. Empty components, or components
// containing the path separator, fail with apperr.ErrConfiguration.
func Build(site, technology, hostname string, modifiedAt time.Time, filename string) (string, error) {
	for _, c := range []struct{ field, value string }{
		{"site", site},
		{"technology", technology},
		{"hostname", hostname},
		{"filename", filename},
	} {
		if err := checkComponent(c.field, c.value); err != nil {
			return "", err
		}
	}

	return strings.Join([]string{
		site,
		technology,
		hostname,
		fmt.Sprintf("%04d", modifiedAt.Year()),
		fmt.Sprintf("%02d", int(modifiedAt.Month())),
		filename,
	}, separator), nil
}

// Prefix returns the key prefix shared by every object of a technology on a host.
func Prefix(site, technology, hostname string) string {
	return strings.Join([]string{site, technology, hostname}, separator) + separator
}

// Parse splits a key produced by Build back into its parts.
func Parse(key string) (Parts, error) {
	fields := strings.Split(key, separator)
	if len(fields) != 6 {
		return Parts{}, fmt.Errorf("object key %q: expected 6 components, got %d", key, len(fields))
	}

	year, err := strconv.Atoi(fields[3])
	if err != nil || len(fields[3]) != 4 {
		return Parts{}, fmt.Errorf("object key %q: invalid year %q", key, fields[3])
	}
	month, err := strconv.Atoi(fields[4])
	if err != nil || len(fields[4]) != 2 || month < 1 || month > 12 {
		return Parts{}, fmt.Errorf("object key %q: invalid month %q", key, fields[4])
	}

	return Parts{
		Site:       fields[0],
		Technology: fields[1],
		Hostname:   fields[2],
		Year:       year,
		Month:      time.Month(month),
		Filename:   fields[5],
	}, nil
}

func checkComponent(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperr.Configuration("%s is required for the object key", field)
	}
	if strings.Contains(value, separator) {
		return apperr.Configuration("%s %q must not contain %q", field, value, separator)
	}
	return nil
}
