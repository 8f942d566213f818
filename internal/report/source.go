package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrNotFound is returned by sources for unknown report ids.
var ErrNotFound = errors.New("report not found")

// Source provides reports by id.
type Source interface {
	Load(ctx context.Context, id string) (*Report, error)
}

// Level of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier receives user facing events of an export.
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// FileSource reads <Dir>/<id>.md files.
type FileSource struct {
	Dir string
}

func (s FileSource) Load(ctx context.Context, id string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}
	r, err := LoadFile(filepath.Join(s.Dir, id+".md"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

var titlePattern = regexp.MustCompile(`(?m)^#[ \t]+(.+?)[ \t]*#*[ \t]*$`)

// decodeMarkdown honors a UTF-16 or UTF-8 byte order mark, defaults to UTF-8
// and returns NFC normalized text.
func decodeMarkdown(data []byte) (string, error) {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", fmt.Errorf("failed to decode report: %w", err)
	}
	return norm.NFC.String(string(decoded)), nil
}

// LoadFile reads a markdown report. The id is the file name without its
// extension, the title is the first level one heading and the creation time
// is the modification time of the file.
func LoadFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat report: %w", err)
	}

	md, err := decodeMarkdown(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(path)
	r := &Report{
		ID:        strings.TrimSuffix(base, filepath.Ext(base)),
		Markdown:  md,
		CreatedAt: fi.ModTime(),
	}
	if m := titlePattern.FindStringSubmatch(r.Markdown); m != nil {
		r.Title = m[1]
	}
	return r, nil
}
