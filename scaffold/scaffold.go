// Package scaffold provides the embedded template used by `pubcontent new`
// to create a blog post with valid front-matter.
package scaffold

import (
	"embed"
	"fmt"
	"io"
	"strconv"
	"text/template"
	"time"
)

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed templates/*.tmpl
var Templates embed.FS

var postTemplate = template.Must(
	template.New("post.md.tmpl").
		Funcs(template.FuncMap{"quote": strconv.Quote}).
		ParseFS(Templates, "templates/post.md.tmpl"),
)

// Post holds the values written into a new post's front-matter.
type Post struct {
	Title       string
	Description string
	PubDate     time.Time
	HeroImage   string
	Tags        []string
}

// RenderPost writes a Markdown file for p to w.
func RenderPost(w io.Writer, p Post) error {
	if p.PubDate.IsZero() {
		p.PubDate = time.Now()
	}
	if err := postTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("execute post template: %w", err)
	}
	return nil
}
