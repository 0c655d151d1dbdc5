package pubcontent

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/eringen/pubcontent/schema"
)

// Entry is a content file whose front-matter passed validation.
type Entry struct {
	ID       string // path under the content directory, slash separated, without extension
	Slug     string
	Path     string // path relative to the project root
	Data     schema.PostFrontMatter
	Body     string
	Checksum string
}

// FileError ties a parse or validation failure to the content file it came from.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// BuildError is returned when one or more content files are invalid. The
// build is expected to stop and report every file listed.
type BuildError struct {
	Files []*FileError
}

func (e *BuildError) Error() string {
	var b strings.Builder
	if len(e.Files) == 1 {
		b.WriteString("1 content file is invalid:")
	} else {
		fmt.Fprintf(&b, "%d content files are invalid:", len(e.Files))
	}
	for _, fe := range e.Files {
		b.WriteString("\n")
		b.WriteString(fe.Path)
		if verrs, ok := schema.AsValidationErrors(fe.Err); ok {
			for _, field := range verrs {
				b.WriteString("\n  - ")
				b.WriteString(field.Error())
			}
			continue
		}
		b.WriteString("\n  - ")
		b.WriteString(fe.Err.Error())
	}
	return b.String()
}

func (e *BuildError) Unwrap() []error {
	errs := make([]error, len(e.Files))
	for i, fe := range e.Files {
		errs[i] = fe
	}
	return errs
}

// Collection is the result of loading a content directory.
type Collection struct {
	Entries  []Entry // newest pubDate first
	Errors   []*FileError
	LoadedAt time.Time
}

// Err returns a *BuildError when any file failed, nil otherwise.
func (c *Collection) Err() error {
	if len(c.Errors) == 0 {
		return nil
	}
	return &BuildError{Files: c.Errors}
}

// Tags returns the sorted, deduplicated, lower-cased tags of every entry.
func (c *Collection) Tags() []string {
	set := make(map[string]struct{})
	for _, e := range c.Entries {
		for _, t := range e.Data.Tags {
			set[normalizeTag(t)] = struct{}{}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Data.PubDate, entries[j].Data.PubDate
		if !a.Equal(b) {
			return a.After(b)
		}
		return entries[i].Slug < entries[j].Slug
	})
}
