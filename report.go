package pubcontent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/pubcontent/schema"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

const reportStyle = `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:60rem;color:#222}
h1{font-size:1.4rem}table{border-collapse:collapse;width:100%}
td,th{border-bottom:1px solid #ddd;padding:.4rem;text-align:left;vertical-align:top}
.ok{color:#1a7f37}.bad{color:#cf222e}code{font-size:.9em}`

// Report renders a collection as a standalone HTML page: a summary line,
// every invalid file with its field errors, then the valid entries.
func Report(c *Collection, siteURL string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!doctype html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		b.WriteString("<title>Content report</title><style>")
		b.WriteString(reportStyle)
		b.WriteString("</style></head><body>")

		status, class := "All content files are valid", "ok"
		if len(c.Errors) > 0 {
			status, class = fmt.Sprintf("%d invalid content file(s)", len(c.Errors)), "bad"
		}
		fmt.Fprintf(&b, "<h1 class=\"%s\">%s</h1>", class, templ.EscapeString(status))
		fmt.Fprintf(&b, "<p>%d valid entries, loaded %s</p>",
			len(c.Entries), templ.EscapeString(c.LoadedAt.UTC().Format("2006-01-02 15:04:05 MST")))

		if len(c.Errors) > 0 {
			b.WriteString("<h2>Errors</h2><table><tr><th>File</th><th>Problems</th></tr>")
			for _, fe := range c.Errors {
				fmt.Fprintf(&b, "<tr><td><code>%s</code></td><td><ul>", templ.EscapeString(fe.Path))
				writeProblems(&b, fe.Err)
				b.WriteString("</ul></td></tr>")
			}
			b.WriteString("</table>")
		}

		if len(c.Entries) > 0 {
			b.WriteString("<h2>Posts</h2><table><tr><th>Published</th><th>Title</th><th>Tags</th></tr>")
			for _, e := range c.Entries {
				fmt.Fprintf(&b, "<tr><td>%s</td><td><a href=\"%s\">%s</a></td><td>%s</td></tr>",
					e.Data.PubDate.Format("2006-01-02"),
					templ.EscapeString(BuildURL(siteURL, "blog", e.Slug)),
					templ.EscapeString(e.Data.Title),
					templ.EscapeString(strings.Join(e.Data.Tags, ", ")))
			}
			b.WriteString("</table>")
		}

		b.WriteString("</body></html>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeProblems(b *strings.Builder, err error) {
	verrs, ok := schema.AsValidationErrors(err)
	if !ok {
		fmt.Fprintf(b, "<li>%s</li>", templ.EscapeString(err.Error()))
		return
	}
	for _, fe := range verrs {
		fmt.Fprintf(b, "<li><code>%s</code> %s</li>",
			templ.EscapeString(fe.Kind.String()), templ.EscapeString(fe.Error()))
	}
}
