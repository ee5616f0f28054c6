// Package selector enumerates the backup candidates of one technology
// directory: regular files whose name matches a pattern and whose
// modification time falls inside the lookback window.
package selector

import (
	"errors"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/wasilibs/go-re2"

	"github.com/Sayam753/SendToS3/internal/apperr"
	"github.com/Sayam753/SendToS3/internal/retention"
)

// readBatch is how many directory entries are read per ReadDir call.
const readBatch = 64

// Candidate is a file selected for upload.
type Candidate struct {
	Path       string
	Name       string
	ModifiedAt time.Time
	Size       int64
}

// Pattern matches base filenames.
type Pattern struct {
	re *re2.Regexp
}

// CompilePattern compiles a filename regular expression (RE2 syntax).
func CompilePattern(expr string) (*Pattern, error) {
	if expr == "" {
		return nil, apperr.Configuration("empty filename pattern")
	}
	re, err := re2.Compile(expr)
	if err != nil {
		return nil, apperr.Configuration("invalid filename pattern %q: %w", expr, err)
	}
	return &Pattern{re: re}, nil
}

// Match reports whether name matches the pattern.
func (p *Pattern) Match(name string) bool {
	return p.re.MatchString(name)
}

func (p *Pattern) String() string {
	return p.re.String()
}

// openDir подменяется в тестах
var openDir = func(dir string) (fs.ReadDirFile, error) {
	return os.Open(dir)
}

// Select lists dir (one level, no recursion) and yields candidates in
// filesystem order. The directory is opened up front: a missing, unreadable
// or non-directory path fails with apperr.ErrIO. Entries that cannot be
// stat'ed are yielded as errors and iteration continues. The returned
// sequence can be ranged over only once and must be ranged to release the
// directory handle.
func Select(dir string, pattern *Pattern, lookbackDays int, now time.Time) (iter.Seq2[Candidate, error], error) {
	f, err := openDir(dir)
	if err != nil {
		return nil, apperr.IO("%w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, apperr.IO("%w", err)
	}
	if !info.IsDir() {
		f.Close()
		return nil, apperr.IO("%s is not a directory", dir)
	}

	used := false
	return func(yield func(Candidate, error) bool) {
		if used {
			yield(Candidate{}, apperr.IO("selection of %s already consumed", dir))
			return
		}
		used = true
		defer f.Close()

		for {
			entries, err := f.ReadDir(readBatch)
			for _, entry := range entries {
				if !pattern.Match(entry.Name()) {
					continue
				}
				c, ok, statErr := candidate(dir, entry, lookbackDays, now)
				if statErr != nil {
					if !yield(Candidate{}, statErr) {
						return
					}
					continue
				}
				if ok && !yield(c, nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Candidate{}, apperr.IO("read directory: %w", err))
				return
			}
		}
	}, nil
}

// candidate turns a directory entry into a Candidate when it is a regular
// file inside the window.
func candidate(dir string, entry os.DirEntry, lookbackDays int, now time.Time) (Candidate, bool, error) {
	if entry.IsDir() {
		return Candidate{}, false, nil
	}
	path := filepath.Join(dir, entry.Name())

	// Info() не следует за симлинками, поэтому делаем Stat
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, false, apperr.IO("%w", err)
	}
	if !info.Mode().IsRegular() {
		return Candidate{}, false, nil
	}
	if !retention.InWindow(info.ModTime(), now, lookbackDays) {
		return Candidate{}, false, nil
	}

	return Candidate{
		Path:       path,
		Name:       entry.Name(),
		ModifiedAt: info.ModTime(),
		Size:       info.Size(),
	}, true, nil
}

// Collect drains a selection into a slice, returning per-entry errors
// separately.
func Collect(seq iter.Seq2[Candidate, error]) ([]Candidate, []error) {
	var (
		out  []Candidate
		errs []error
	)
	for c, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c)
	}
	return out, errs
}
