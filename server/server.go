/*
Package server serves a moose herd over HTTP.

Every moose can be fetched as JSON, as a PNG image, as mIRC art or as ANSI
terminal art. The names random, latest and oldest redirect to a moose
chosen from the herd.
*/
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/bodgit/moose"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultListen is the default address to listen on
	DefaultListen = "[::1]:5921"

	// MaxBodySize is the largest new moose that is accepted
	MaxBodySize = 16 << 10

	newMooseInterval = time.Minute
	shutdownTimeout  = 10 * time.Second
)

// Content types of each rendering.
const (
	TypeJSON = "application/json"
	TypePNG  = "image/png"
	TypeIRC  = "text/irc-art"
	TypeANSI = "text/ansi-truecolor"
)

type apiResponse struct {
	Status string `json:"status"`
	Msg    string `json:"msg"`
}

func apiError(c echo.Context, code int, msg string) error {
	return c.JSON(code, apiResponse{"error", msg})
}

func apiOK(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, apiResponse{"ok", msg})
}

// Allows one event per interval across every client
type limiter struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
}

func (l *limiter) allow(now time.Time) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if elapsed := now.Sub(l.last); !l.last.IsZero() && elapsed < l.interval {
		return l.interval - elapsed, false
	}
	l.last = now
	return 0, true
}

// Server is the HTTP front end of a herd.
type Server struct {
	herd    *moose.Herd
	logger  *log.Logger
	echo    *echo.Echo
	limiter *limiter
	now     func() time.Time
}

// New returns a server for h. Requests are logged to logger.
func New(h *moose.Herd, logger *log.Logger) *Server {
	s := &Server{
		herd:   h,
		logger: logger,
		echo:   echo.New(),
		limiter: &limiter{
			interval: newMooseInterval,
		},
		now: time.Now,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Output: logger.Writer(),
	}))
	e.Use(middleware.Recover())

	e.GET("/moose/:name", s.render("/moose/", TypeJSON, func(m *moose.Moose) ([]byte, error) {
		return json.Marshal(m)
	}))
	e.GET("/img/:name", s.render("/img/", TypePNG, (*moose.Moose).PNG))
	e.GET("/irc/:name", s.render("/irc/", TypeIRC, (*moose.Moose).IRC))
	e.GET("/term/:name", s.render("/term/", TypeANSI, (*moose.Moose).ANSI))

	e.GET("/page", s.pageCount)
	e.GET("/page/:num", s.page)
	e.GET("/search", s.search)
	e.GET("/api-helper/resolve/:name", s.resolve)

	e.POST("/new", s.newMoose)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func nameParam(c echo.Context) (string, error) {
	name := c.Param("name")
	if c.Request().URL.RawPath == "" {
		return name, nil
	}
	return url.PathUnescape(name)
}

func cacheFor(c echo.Context, d time.Duration) {
	c.Response().Header().Set("Cache-Control", fmt.Sprintf("max-age=%d, stale-if-error=3600", int(d.Seconds())))
}

// Writes b with an ETag, or just the status if the client already has it
func blob(c echo.Context, contentType string, b []byte) error {
	etag := fmt.Sprintf("\"%.*x\"", crc32.Size<<1, crc32.ChecksumIEEE(b))
	c.Response().Header().Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.Blob(http.StatusOK, contentType, b)
}

func noSuchMoose(c echo.Context, name string) error {
	return apiError(c, http.StatusNotFound, "no such moose: "+name)
}

// Look up the named moose. If the name was special the client has already
// been redirected and the moose is nil.
func (s *Server) lookup(c echo.Context, prefix string) (*moose.Moose, error) {
	name, err := nameParam(c)
	if err != nil {
		return nil, apiError(c, http.StatusBadRequest, err.Error())
	}

	m, special, err := s.herd.Get(name)
	switch {
	case err != nil:
		return nil, err
	case m == nil:
		return nil, noSuchMoose(c, name)
	case special:
		return nil, c.Redirect(http.StatusSeeOther, prefix+url.PathEscape(m.Name))
	}

	return m, nil
}

func (s *Server) render(prefix, contentType string, fn func(*moose.Moose) ([]byte, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		m, err := s.lookup(c, prefix)
		if m == nil {
			return err
		}

		b, err := fn(m)
		if err != nil {
			return err
		}

		cacheFor(c, time.Hour)
		return blob(c, contentType, b)
	}
}

func (s *Server) resolve(c echo.Context) error {
	name, err := nameParam(c)
	if err != nil {
		return apiError(c, http.StatusBadRequest, err.Error())
	}

	m, _, err := s.herd.Get(name)
	if err != nil {
		return err
	}
	if m == nil {
		return noSuchMoose(c, name)
	}

	return apiOK(c, url.PathEscape(m.Name))
}

func (s *Server) pageCount(c echo.Context) error {
	n, err := s.herd.DB().PageCount()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, n)
}

func (s *Server) page(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("num"))
	if err != nil || n < 0 {
		return apiError(c, http.StatusBadRequest, "page must be a non-negative integer")
	}

	meese, err := s.herd.DB().Page(n)
	if err != nil {
		return err
	}
	if meese == nil {
		meese = []*moose.Moose{}
	}

	// Only the last page can still change
	if len(meese) < moose.PageSize {
		cacheFor(c, 30*time.Second)
	} else {
		cacheFor(c, time.Hour)
	}

	b, err := json.Marshal(meese)
	if err != nil {
		return err
	}
	return blob(c, TypeJSON, b)
}

func (s *Server) search(c echo.Context) error {
	n := 0
	if p := c.QueryParam("page"); p != "" {
		var err error
		if n, err = strconv.Atoi(p); err != nil || n < 0 {
			return apiError(c, http.StatusBadRequest, "page must be a non-negative integer")
		}
	}

	result, err := s.herd.DB().Search(c.QueryParam("query"), n)
	if err != nil {
		return err
	}

	b, err := json.Marshal(result)
	if err != nil {
		return err
	}

	cacheFor(c, 5*time.Minute)
	return blob(c, TypeJSON, b)
}

func (s *Server) newMoose(c echo.Context) error {
	if wait, ok := s.limiter.allow(s.now()); !ok {
		retry := strconv.Itoa(int((wait + time.Second - 1) / time.Second))
		c.Response().Header().Set("Retry-After", retry)
		return apiError(c, http.StatusTooManyRequests, "Retry again in "+retry)
	}

	b, err := ioutil.ReadAll(io.LimitReader(c.Request().Body, MaxBodySize+1))
	if err != nil {
		return err
	}
	if len(b) > MaxBodySize {
		return apiError(c, http.StatusRequestEntityTooLarge, "Payload too large.")
	}

	m := new(moose.Moose)
	if err := json.Unmarshal(b, m); err != nil {
		return apiError(c, http.StatusBadRequest, err.Error())
	}

	if m.Dimensions.IsCustom() {
		return apiError(c, http.StatusBadRequest, "Custom dimensions are not allowed through the public API.")
	}

	m.Author = moose.Anonymous
	m.Created = s.now().UTC()

	if err := s.herd.Add(m); err != nil {
		return apiError(c, http.StatusUnprocessableEntity, err.Error())
	}

	return apiOK(c, fmt.Sprintf("moose %s saved.", m.Name))
}

// Run serves on addr until ctx is cancelled. If dump is not empty the herd
// is also dumped there every interval while it changes.
func (s *Server) Run(ctx context.Context, addr, dump string, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Printf("Listening on %s\n", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.echo.Shutdown(sctx)
	})

	if dump != "" {
		g.Go(func() error {
			return s.herd.RunDumper(ctx, dump, interval)
		})
	}

	return g.Wait()
}
