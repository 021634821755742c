package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bodgit/moose"
	"github.com/bodgit/moose/image"
	"github.com/bodgit/moose/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func testMoose(name string) *moose.Moose {
	pix := bytes.Repeat([]byte{palette.Transparent}, 390)
	pix[0] = 4
	return &moose.Moose{
		Name:       name,
		Image:      pix,
		Dimensions: image.Default,
		Created:    created,
	}
}

func newTestServer(t *testing.T, names ...string) *Server {
	logger := log.New(ioutil.Discard, "", 0)
	h, err := moose.New(filepath.Join(t.TempDir(), "moose.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	for _, name := range names {
		require.NoError(t, h.DB().Insert(testMoose(name)))
	}

	return New(h, logger)
}

func get(s *Server, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestRenderRoutes(t *testing.T) {
	s := newTestServer(t, "a moose")

	tables := []struct {
		path        string
		contentType string
		prefix      string
	}{
		{"/moose/a%20moose", TypeJSON, `{"name":"a moose"`},
		{"/img/a%20moose", TypePNG, "\x89PNG"},
		{"/irc/a%20moose", TypeIRC, "\x034,4@\n"},
		{"/term/a%20moose", TypeANSI, "\x1b[48;2;255;0;0m "},
	}

	for _, table := range tables {
		t.Run(table.path, func(t *testing.T) {
			rec := get(s, table.path)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), table.contentType))
			assert.Equal(t, "max-age=3600, stale-if-error=3600", rec.Header().Get("Cache-Control"))
			assert.True(t, strings.HasPrefix(rec.Body.String(), table.prefix))

			etag := rec.Header().Get("ETag")
			require.NotEmpty(t, etag)

			rec = get(s, table.path, "If-None-Match", etag)
			assert.Equal(t, http.StatusNotModified, rec.Code)
			assert.Empty(t, rec.Body.Bytes())
		})
	}
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/moose/nope", "/img/random", "/api-helper/resolve/latest"} {
		rec := get(s, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)

		var resp apiResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
	}
}

func TestSpecialNames(t *testing.T) {
	s := newTestServer(t, "first", "second moose")

	rec := get(s, "/irc/latest")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/irc/second%20moose", rec.Header().Get("Location"))

	rec = get(s, "/img/oldest")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/img/first", rec.Header().Get("Location"))

	rec = get(s, "/moose/random")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = get(s, "/api-helper/resolve/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apiResponse{"ok", "second%20moose"}, resp)
}

func TestPages(t *testing.T) {
	names := make([]string, 14)
	for i := range names {
		names[i] = fmt.Sprintf("moose %d", i)
	}
	s := newTestServer(t, names...)

	rec := get(s, "/page")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", strings.TrimSpace(rec.Body.String()))

	rec = get(s, "/page/0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "max-age=3600, stale-if-error=3600", rec.Header().Get("Cache-Control"))
	var page []*moose.Moose
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page, moose.PageSize)

	rec = get(s, "/page/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "max-age=30, stale-if-error=3600", rec.Header().Get("Cache-Control"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page, 2)

	rec = get(s, "/page/9")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())

	rec = get(s, "/page/minus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	s := newTestServer(t, "big moose", "small moose", "cat")

	rec := get(s, "/search?query=moose")
	require.Equal(t, http.StatusOK, rec.Code)

	var result moose.SearchPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Pages)
	require.Len(t, result.Result, 2)
	assert.Equal(t, "big moose", result.Result[0].Moose.Name)

	rec = get(s, "/search?query=moose&page=x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func newMooseBody(name string, dim string, pix []byte) string {
	return fmt.Sprintf(`{"name":%q,"image":%q,"dimensions":%s,"created":"2000-01-01T00:00:00.000Z","author":{"GitHub":"someone"}}`,
		name, base64.StdEncoding.EncodeToString(pix), dim)
}

func post(s *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/new", strings.NewReader(body))
	req.Header.Set("Content-Type", TypeJSON)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestNewMoose(t *testing.T) {
	s := newTestServer(t, "taken")

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	rec := post(s, newMooseBody("fresh", `"HD"`, bytes.Repeat([]byte{3}, 792)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	m, err := s.herd.DB().Get("fresh")
	require.NoError(t, err)
	assert.Equal(t, moose.Anonymous, m.Author)
	assert.True(t, now.Equal(m.Created))

	// Rate limited for the next minute
	now = now.Add(20 * time.Second)
	rec = post(s, newMooseBody("another", `"Default"`, bytes.Repeat([]byte{3}, 390)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "40", rec.Header().Get("Retry-After"))

	tables := []struct {
		name string
		body string
		code int
	}{
		{"custom", newMooseBody("custom", `{"Custom":[1,1]}`, []byte{3}), http.StatusBadRequest},
		{"bad json", `{"name":`, http.StatusBadRequest},
		{"wrong size", newMooseBody("short", `"Default"`, []byte{3}), http.StatusBadRequest},
		{"duplicate", newMooseBody("taken", `"Default"`, bytes.Repeat([]byte{3}, 390)), http.StatusUnprocessableEntity},
		{"too large", strings.Repeat(" ", MaxBodySize+1), http.StatusRequestEntityTooLarge},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			now = now.Add(time.Minute)
			rec := post(s, table.body)
			assert.Equal(t, table.code, rec.Code, rec.Body.String())
		})
	}
}

func TestLimiter(t *testing.T) {
	l := &limiter{interval: time.Minute}
	now := time.Now()

	_, ok := l.allow(now)
	assert.True(t, ok)

	wait, ok := l.allow(now.Add(15 * time.Second))
	assert.False(t, ok)
	assert.Equal(t, 45*time.Second, wait)

	_, ok = l.allow(now.Add(time.Minute))
	assert.True(t, ok)
}
