package pubcontent

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eringen/pubcontent/frontmatter"
	"github.com/eringen/pubcontent/schema"
)

const maxValidateBody = 1 << 20

// validateRequest is the JSON form of POST /api/validate. Path names the
// content file relative to the project root; relative image references in
// the front-matter are resolved against its directory.
type validateRequest struct {
	Path        string         `json:"path"`
	FrontMatter map[string]any `json:"frontmatter"`
}

type validateResponse struct {
	Valid  bool                    `json:"valid"`
	Data   *schema.PostFrontMatter `json:"data,omitempty"`
	Errors []fieldErrorJSON        `json:"errors,omitempty"`
}

type fieldErrorJSON struct {
	Field  string           `json:"field"`
	Kind   schema.ErrorKind `json:"kind"`
	Index  *int             `json:"index,omitempty"`
	Reason string           `json:"reason"`
}

// postJSON is an indexed post as returned by the API.
type postJSON struct {
	Slug     string                 `json:"slug"`
	ID       string                 `json:"id"`
	Path     string                 `json:"path"`
	URL      string                 `json:"url"`
	Data     schema.PostFrontMatter `json:"data"`
	Body     string                 `json:"body,omitempty"`
	Checksum string                 `json:"checksum"`
}

type reindexResponse struct {
	Entries int             `json:"entries"`
	Saved   int             `json:"saved"`
	Removed int             `json:"removed"`
	Invalid []fileErrorJSON `json:"invalid"`
}

type fileErrorJSON struct {
	Path   string           `json:"path"`
	Error  string           `json:"error,omitempty"`
	Fields []fieldErrorJSON `json:"fields,omitempty"`
}

func (a *App) setupRoutes() {
	e := a.Echo

	api := e.Group("/api")
	api.POST("/validate", a.handleValidate, a.rateLimit)
	api.GET("/posts", a.handleListPosts)
	api.GET("/posts/:slug/", a.handleGetPost)
	api.GET("/tags", a.handleListTags)
	api.POST("/reindex", a.handleReindex, a.rateLimit)

	e.GET("/report", a.handleReport)
	e.GET("/healthz", handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func (a *App) handleValidate(c echo.Context) error {
	req := c.Request()
	var (
		name string
		raw  schema.Record
	)

	if isMarkdown(req.Header.Get(echo.HeaderContentType)) {
		src, err := io.ReadAll(io.LimitReader(req.Body, maxValidateBody+1))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "could not read body")
		}
		if len(src) > maxValidateBody {
			a.Metrics.observeAPI("bad_request")
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
				fmt.Sprintf("markdown body exceeds %d bytes", maxValidateBody))
		}
		doc, err := frontmatter.Parse(src)
		if err != nil {
			a.Metrics.observeAPI("bad_request")
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		name = c.QueryParam("path")
		raw = doc.Data
	} else {
		var body validateRequest
		if err := c.Bind(&body); err != nil {
			a.Metrics.observeAPI("bad_request")
			return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
		}
		if body.FrontMatter == nil {
			a.Metrics.observeAPI("bad_request")
			return echo.NewHTTPError(http.StatusBadRequest, "frontmatter is required")
		}
		rec, err := schema.RecordFromMap(body.FrontMatter)
		if err != nil {
			a.Metrics.observeAPI("bad_request")
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		name, raw = body.Path, rec
	}

	data, err := a.Loader.ProjectValidator(name).Validate(req.Context(), raw)
	if err != nil {
		verrs, ok := schema.AsValidationErrors(err)
		if !ok {
			return err
		}
		a.Metrics.observeAPI("invalid")
		return c.JSON(http.StatusUnprocessableEntity, validateResponse{
			Valid:  false,
			Errors: fieldErrorsJSON(verrs),
		})
	}
	a.Metrics.observeAPI("valid")
	return c.JSON(http.StatusOK, validateResponse{Valid: true, Data: &data})
}

func (a *App) handleListPosts(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), c.QueryParam("tag"))
	if err != nil {
		return err
	}
	out := make([]postJSON, len(posts))
	for i, p := range posts {
		out[i] = a.postJSON(p, false)
	}
	return c.JSON(http.StatusOK, out)
}

func (a *App) handleGetPost(c echo.Context) error {
	post, err := a.Cache.GetPost(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, a.postJSON(post, true))
}

func (a *App) handleListTags(c echo.Context) error {
	tags, err := a.Cache.ListTags(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}

func (a *App) handleReindex(c echo.Context) error {
	col, stats, err := a.Reindex(c.Request().Context())
	if err != nil {
		return err
	}
	resp := reindexResponse{
		Entries: len(col.Entries),
		Saved:   stats.Saved,
		Removed: stats.Removed,
		Invalid: make([]fileErrorJSON, 0, len(col.Errors)),
	}
	for _, fe := range col.Errors {
		resp.Invalid = append(resp.Invalid, fileErrorToJSON(fe))
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *App) handleReport(c echo.Context) error {
	col := a.LastCollection()
	if col == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "content has not been indexed yet")
	}
	return Render(c, Report(col, a.Config.SiteURL))
}

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *App) postJSON(e Entry, withBody bool) postJSON {
	p := postJSON{
		Slug:     e.Slug,
		ID:       e.ID,
		Path:     e.Path,
		URL:      BuildURL(a.Config.SiteURL, "blog", e.Slug),
		Data:     e.Data,
		Checksum: e.Checksum,
	}
	if withBody {
		p.Body = e.Body
	}
	return p
}

func fieldErrorsJSON(verrs schema.ValidationErrors) []fieldErrorJSON {
	out := make([]fieldErrorJSON, len(verrs))
	for i, fe := range verrs {
		out[i] = fieldErrorJSON{Field: fe.Field, Kind: fe.Kind, Reason: fe.Reason}
		if fe.Index >= 0 {
			idx := fe.Index
			out[i].Index = &idx
		}
	}
	return out
}

func fileErrorToJSON(fe *FileError) fileErrorJSON {
	out := fileErrorJSON{Path: fe.Path}
	if verrs, ok := schema.AsValidationErrors(fe.Err); ok {
		out.Fields = fieldErrorsJSON(verrs)
	} else {
		out.Error = fe.Err.Error()
	}
	return out
}

func isMarkdown(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/markdown") || strings.HasPrefix(ct, echo.MIMETextPlain)
}

func (a *App) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !a.limiter.Allow(c.RealIP()) {
			a.Metrics.observeAPI("rate_limited")
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, try again later")
		}
		return next(c)
	}
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}
	if code >= 500 {
		a.log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("uri", c.Request().RequestURI).
			Msg("server error")
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"error": message})
}
