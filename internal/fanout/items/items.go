// Package items maps logical item indices to the input locators handed to the worker.
package items

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"

	"github.com/parallelproc/fanout/internal/common/fanouterrors"
)

// Locator resolves item indices in [0, Count()) to input locators.
// Every index resolves to exactly PerIndex() locators.
type Locator interface {
	Count() int
	PerIndex() int
	Locate(index int) ([]string, error)
}

// Catalog is a sorted listing of the input directory. Index i is the i-th matching file.
type Catalog struct {
	dir   string
	files []string
}

// NewCatalog lists dir and keeps the regular files whose names match pattern.
func NewCatalog(dir string, pattern string) (*Catalog, error) {
	names, err := ListMatching(dir, pattern)
	if err != nil {
		return nil, err
	}
	return &Catalog{dir: dir, files: names}, nil
}

func (c *Catalog) Count() int {
	return len(c.files)
}

func (c *Catalog) PerIndex() int {
	return 1
}

func (c *Catalog) Locate(index int) ([]string, error) {
	if index < 0 || index >= len(c.files) {
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "index",
			Value:   index,
			Message: "out of range for input catalog",
		})
	}
	return []string{filepath.Join(c.dir, c.files[index])}, nil
}

// TemplateLocator builds several categorically named locators per index from Go templates,
// e.g., "{{.InputDir}}/cat{{.Index}}.jpg" and "{{.InputDir}}/dog{{.Index}}.jpg".
type TemplateLocator struct {
	inputDir  string
	count     int
	templates []*template.Template
}

type templateArgs struct {
	InputDir string
	Index    int
}

// NewTemplateLocator parses the templates. count is the number of logical indices; if zero, it's
// derived from the number of files in inputDir matching pattern divided by the number of templates.
func NewTemplateLocator(inputDir string, pattern string, templates []string, count int) (*TemplateLocator, error) {
	if len(templates) == 0 {
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "templates",
			Value:   templates,
			Message: "at least one locator template is required",
		})
	}
	if count < 0 {
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "totalItems",
			Value:   count,
			Message: "must not be negative",
		})
	}
	parsed := make([]*template.Template, len(templates))
	for i, text := range templates {
		tmpl, err := template.New("locator").Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
				Name:    "templates",
				Value:   text,
				Message: err.Error(),
			})
		}
		parsed[i] = tmpl
	}
	if count == 0 {
		names, err := ListMatching(inputDir, pattern)
		if err != nil {
			return nil, err
		}
		count = len(names) / len(parsed)
	}
	return &TemplateLocator{inputDir: inputDir, count: count, templates: parsed}, nil
}

func (l *TemplateLocator) Count() int {
	return l.count
}

func (l *TemplateLocator) PerIndex() int {
	return len(l.templates)
}

func (l *TemplateLocator) Locate(index int) ([]string, error) {
	if index < 0 || index >= l.count {
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "index",
			Value:   index,
			Message: "out of range for locator templates",
		})
	}
	locators := make([]string, len(l.templates))
	for i, tmpl := range l.templates {
		var sb strings.Builder
		if err := tmpl.Execute(&sb, templateArgs{InputDir: l.inputDir, Index: index}); err != nil {
			return nil, errors.Wrapf(err, "rendering locator template %d for index %d", i, index)
		}
		locators[i] = sb.String()
	}
	return locators, nil
}

// ListMatching returns the sorted names of the regular files in dir matching the glob pattern.
func ListMatching(dir string, pattern string) ([]string, error) {
	if dir == "" {
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "inputDir",
			Value:   dir,
			Message: "not provided",
		})
	}
	if pattern == "" {
		pattern = "*"
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WithStack(&fanouterrors.ErrIOFailure{Op: "list", Path: dir, Err: err})
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := zglob.Match(pattern, entry.Name())
		if err != nil {
			return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
				Name:    "pattern",
				Value:   pattern,
				Message: err.Error(),
			})
		}
		if ok {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
