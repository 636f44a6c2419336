package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MohammedGhazal09/portfolio/internal/config"
	"github.com/MohammedGhazal09/portfolio/internal/contact"
	"github.com/MohammedGhazal09/portfolio/internal/content"
	"github.com/MohammedGhazal09/portfolio/internal/media"
	"github.com/MohammedGhazal09/portfolio/internal/session"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRelay struct {
	mu    sync.Mutex
	calls []contact.Dispatch
	err   error

	// entered and release, when set, hold Send open until the test lets go.
	entered chan struct{}
	release chan struct{}
}

func (r *fakeRelay) Send(_ context.Context, d contact.Dispatch) error {
	r.mu.Lock()
	r.calls = append(r.calls, d)
	err := r.err
	r.mu.Unlock()

	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.release != nil {
		<-r.release
	}
	return err
}

func (r *fakeRelay) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type testEnv struct {
	server *Server
	relay  *fakeRelay
	images string
}

func newTestEnv(t *testing.T, overrides map[string]any) *testEnv {
	t.Helper()

	v := config.NewEmptyViper()
	v.Set("server.mode", "test")
	v.Set("server.static_dir", t.TempDir())
	for k, val := range overrides {
		v.Set(k, val)
	}
	cfg := config.NewFromViper(v)

	relay := &fakeRelay{}
	logger := zap.NewNop()
	store := session.NewStore(func(n contact.Notifier) *contact.Controller {
		return contact.New(relay, n, contact.Config{ServiceID: "svc", TemplateID: "tpl", PublicKey: "pk", ResetDelay: time.Hour},
			contact.WithLogger(logger))
	}, time.Hour, logger)
	t.Cleanup(store.Close)

	imgDir := t.TempDir()
	images := media.NewOptimizer(imgDir, time.Minute, logger)
	t.Cleanup(images.Close)

	s, err := NewServer(cfg, logger, content.Default(), store, images)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	return &testEnv{server: s, relay: relay, images: imgDir}
}

func (e *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func validForm() url.Values {
	return url.Values{
		"name":    {"Abdullah"},
		"email":   {"abdullah@example.com"},
		"subject": {"Project Inquiry"},
		"message": {"Let's build something."},
	}
}

func TestIndex_RendersPageWithSession(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Mohammed")
	assert.Contains(t, body, "Chatify")
	assert.Contains(t, body, `id="contact-form"`)
	assert.Contains(t, body, "Send Message")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	cookie := findCookie(rec, session.CookieName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	// The same cookie keeps the same session.
	rec = env.do(httptest.NewRequest(http.MethodGet, "/contact-form", nil), cookie)
	assert.Nil(t, findCookie(rec, session.CookieName))
	assert.Equal(t, 1, env.server.sessions.Len())
}

func TestSubmit_Success(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(postForm("/contact", validForm()))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, env.relay.count())
	d := env.relay.calls[0]
	assert.Equal(t, "svc", d.ServiceID)
	assert.Equal(t, "tpl", d.TemplateID)
	assert.Equal(t, "pk", d.Token)
	assert.Equal(t, "Abdullah", d.Params["from_name"])
	assert.Equal(t, "abdullah@example.com", d.Params["from_email"])

	var trigger map[string][]contact.Notification
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &trigger))
	require.Len(t, trigger["toast"], 1)
	assert.Equal(t, contact.KindSuccess, trigger["toast"][0].Kind)
	assert.Equal(t, "Message sent! I'll get back to you soon.", trigger["toast"][0].Title)

	body := rec.Body.String()
	assert.Contains(t, body, "Message Sent!")
	assert.Contains(t, body, `hx-get="/contact/status"`)
	assert.NotContains(t, body, `value="Abdullah"`)
	assert.Contains(t, body, `hx-swap-oob="beforeend"`)
}

func TestSubmit_BindingFailureKeepsInput(t *testing.T) {
	env := newTestEnv(t, nil)

	form := validForm()
	form.Set("email", "not-an-email")
	rec := env.do(postForm("/contact", form))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.relay.count())
	assert.Contains(t, rec.Body.String(), incompleteText)
	assert.Contains(t, rec.Body.String(), `value="Abdullah"`)
	assert.Empty(t, rec.Header().Get("HX-Trigger"))
}

func TestSubmit_WhitespaceOnlyIsIncomplete(t *testing.T) {
	env := newTestEnv(t, nil)

	form := validForm()
	form.Set("message", "   ")
	rec := env.do(postForm("/contact", form))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.relay.count())
}

func TestSubmit_HoneypotLooksLikeSuccess(t *testing.T) {
	env := newTestEnv(t, nil)

	form := validForm()
	form.Set("honeypot", "http://spam.example")
	rec := env.do(postForm("/contact", form))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.relay.count())
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "Message sent!")
}

func TestSubmit_HoneypotWinsOverInvalidFields(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(postForm("/contact", url.Values{
		"name":     {"bot"},
		"email":    {"not-an-email"},
		"honeypot": {"http://spam.example"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.relay.count())
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "Message sent!")
	assert.NotContains(t, rec.Body.String(), incompleteText)
}

func TestSubmit_WhileSendingRendersBusyForm(t *testing.T) {
	env := newTestEnv(t, nil)
	env.relay.entered = make(chan struct{}, 1)
	env.relay.release = make(chan struct{})

	page := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := findCookie(page, session.CookieName)
	require.NotNil(t, cookie)
	assert.Contains(t, page.Body.String(), `hx-sync="this:drop"`)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- env.do(postForm("/contact", validForm()), cookie) }()
	<-env.relay.entered

	second := env.do(postForm("/contact", validForm()), cookie)
	require.Equal(t, http.StatusOK, second.Code)
	body := second.Body.String()
	assert.Contains(t, body, "Sending...")
	assert.Contains(t, body, `hx-get="/contact-form"`)
	assert.Contains(t, body, `hx-trigger="load delay:1s"`)
	assert.Empty(t, second.Header().Get("HX-Trigger"))

	close(env.relay.release)
	rec := <-first
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Message Sent!")
	assert.Equal(t, 1, env.relay.count())

	// The busy form polls its way back to the settled state.
	rec = env.do(httptest.NewRequest(http.MethodGet, "/contact-form", nil), cookie)
	assert.Contains(t, rec.Body.String(), "Message Sent!")
	assert.NotContains(t, rec.Body.String(), " disabled>")
}

func TestSubmit_RelayFailureKeepsFields(t *testing.T) {
	env := newTestEnv(t, nil)
	env.relay.err = errors.New("upstream down")

	rec := env.do(postForm("/contact", validForm()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.relay.count())
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "Failed to send message")
	body := rec.Body.String()
	assert.Contains(t, body, `value="Abdullah"`)
	assert.Contains(t, body, "Send Message")
	assert.Contains(t, body, `data-status="idle"`)
}

func TestSubmit_RateLimited(t *testing.T) {
	env := newTestEnv(t, map[string]any{"contact.rate_limit": 1, "contact.rate_window": "1h"})

	first := env.do(postForm("/contact", validForm()))
	require.Equal(t, http.StatusOK, first.Code)

	second := env.do(postForm("/contact", validForm()))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Equal(t, 1, env.relay.count())
}

func TestUpdateField(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(postForm("/contact/field", url.Values{"field": {"name"}, "name": {"Ada"}}))
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookie := findCookie(rec, session.CookieName)
	require.NotNil(t, cookie)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/contact-form", nil), cookie)
	assert.Contains(t, rec.Body.String(), `value="Ada"`)

	rec = env.do(postForm("/contact/field", url.Values{"field": {"phone"}, "phone": {"1"}}), cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContactStatus(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/contact/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-status="idle"`)
	assert.NotContains(t, rec.Body.String(), "hx-get")
	assert.Nil(t, findCookie(rec, session.CookieName))
	assert.Equal(t, 0, env.server.sessions.Len())

	// An expired or forged cookie reads as idle without starting a session.
	rec = env.do(httptest.NewRequest(http.MethodGet, "/contact/status", nil),
		&http.Cookie{Name: session.CookieName, Value: "6f1c8f0e-6a8e-4d3b-9b8f-3f2a1d0c9e7b"})
	assert.Contains(t, rec.Body.String(), `data-status="idle"`)
	assert.Equal(t, 0, env.server.sessions.Len())
}

func TestContactStatus_FollowsSession(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(postForm("/contact", validForm()))
	cookie := findCookie(rec, session.CookieName)
	require.NotNil(t, cookie)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/contact/status", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-status="success"`)
	assert.Contains(t, rec.Body.String(), `hx-get="/contact/status"`)
	assert.Equal(t, 1, env.server.sessions.Len())
}

func TestTheme_TogglesCookie(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/theme", nil), &http.Cookie{Name: "theme", Value: "dark"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"theme":"light"}`, rec.Body.String())
	cookie := findCookie(rec, "theme")
	require.NotNil(t, cookie)
	assert.Equal(t, "light", cookie.Value)
}

func TestScene(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/scene.json?theme=light", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Theme   string            `json:"theme"`
		Palette map[string]string `json:"palette"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "light", got.Theme)
	assert.Equal(t, "#3b82f6", got.Palette["primary"])

	rec = env.do(httptest.NewRequest(http.MethodGet, "/scene.json", nil), &http.Cookie{Name: "theme", Value: "dark"})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "dark", got.Theme)
	assert.Equal(t, "#60a5fa", got.Palette["primary"])
}

func TestImages(t *testing.T) {
	env := newTestEnv(t, nil)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2000, 1000))))
	require.NoError(t, os.WriteFile(filepath.Join(env.images, "shot.png"), buf.Bytes(), 0o644))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/images/shot.png?w=800", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	cfg, err := png.DecodeConfig(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/images/shot.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/images/shot.png?w=640", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/images/missing.png?w=800", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth_Compressed(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := env.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestAcceptedEncoding(t *testing.T) {
	assert.Equal(t, "br", acceptedEncoding("gzip, deflate, br"))
	assert.Equal(t, "gzip", acceptedEncoding("gzip;q=0.8, deflate"))
	assert.Equal(t, "gzip", acceptedEncoding("br;q=0, gzip"))
	assert.Equal(t, "", acceptedEncoding("identity"))
	assert.Equal(t, "", acceptedEncoding(""))
}

func TestIPHasher(t *testing.T) {
	a, err := newIPHasher()
	require.NoError(t, err)
	b, err := newIPHasher()
	require.NoError(t, err)

	assert.Len(t, a.hash("203.0.113.7"), 16)
	assert.Equal(t, a.hash("203.0.113.7"), a.hash("203.0.113.7"))
	assert.NotEqual(t, a.hash("203.0.113.7"), a.hash("203.0.113.8"))
	assert.NotEqual(t, a.hash("203.0.113.7"), b.hash("203.0.113.7"))
	assert.NotContains(t, a.hash("203.0.113.7"), "203")
}

func TestIndex_ProfilePhotoGetsSrcset(t *testing.T) {
	env := newTestEnv(t, nil)
	env.server.content.Profile.Photo = "/images/me.jpg"

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="avatar"`)
	assert.Contains(t, rec.Body.String(), "/images/me.jpg?w=800")
}
