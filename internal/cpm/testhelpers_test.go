package cpm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	testClientID     = "plugin-client"
	testClientSecret = "plugin-secret"
)

type fakePage struct {
	builtIn   string
	custom    *string
	contentID int64
}

// fakeCPM is an in-memory server covering the login handshake, the OAuth2
// token exchange, and the customization web services.
type fakeCPM struct {
	srv *httptest.Server

	mu    sync.Mutex
	pages map[string]*fakePage
	trees map[string]string

	loginFails bool
	probeFails bool

	// onWrite, when set, runs on each content write after the payload is
	// recorded and before it is applied. Tests use it to hold a write
	// in flight.
	onWrite func(text string)

	writeLog []string

	// rejectNext makes the next N web-service calls come back 401 regardless
	// of credentials, simulating server-side session expiry.
	rejectNext atomic.Int32

	logins         atomic.Int32
	probes         atomic.Int32
	tokenExchanges atomic.Int32
	treeLists      atomic.Int32
	reads          atomic.Int32
	writes         atomic.Int32
	creates        atomic.Int32
}

func newFakeCPM(t *testing.T) *fakeCPM {
	t.Helper()

	f := &fakeCPM{
		pages: make(map[string]*fakePage),
		trees: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/admin/pw.html", f.handleLoginPage)
	mux.HandleFunc("/admin/home.html", f.handleLoginSubmit)
	mux.HandleFunc("/admin/customization/home.html", f.handleProbe)
	mux.HandleFunc("/oauth/access_token", f.handleToken)
	mux.HandleFunc("/ws/", f.handleWS)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	return f
}

func (f *fakeCPM) setPage(path string, p fakePage) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pages[path] = &p
}

func (f *fakeCPM) pageSnapshot(path string) (fakePage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.pages[path]
	if !ok {
		return fakePage{}, false
	}

	return *p, true
}

func (f *fakeCPM) writePayloads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.writeLog))
	copy(out, f.writeLog)

	return out
}

func (f *fakeCPM) setTree(path, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.trees[path] = raw
}

func (f *fakeCPM) handleLoginPage(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "seed"})
	w.Write([]byte("<html>login</html>"))
}

func (f *fakeCPM) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	f.logins.Add(1)

	if f.loginFails || r.FormValue("username") == "" {
		w.WriteHeader(http.StatusUnauthorized)

		return
	}

	http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "authed"})
	w.WriteHeader(http.StatusFound)
}

func (f *fakeCPM) handleProbe(w http.ResponseWriter, r *http.Request) {
	f.probes.Add(1)

	if f.probeFails || !f.authenticated(r) {
		w.WriteHeader(http.StatusUnauthorized)

		return
	}

	w.Write([]byte("<html>customization</html>"))
}

func (f *fakeCPM) handleToken(w http.ResponseWriter, r *http.Request) {
	f.tokenExchanges.Add(1)

	id, secret, ok := r.BasicAuth()
	if !ok || id != testClientID || secret != testClientSecret {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))

		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"access_token": "tok-" + time.Now().Format("150405.000000000"),
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (f *fakeCPM) authenticated(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Cookie"), "JSESSIONID=authed") {
		return true
	}

	return strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (f *fakeCPM) handleWS(w http.ResponseWriter, r *http.Request) {
	if f.rejectNext.Load() > 0 {
		f.rejectNext.Add(-1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"session expired"}`))

		return
	}

	if !f.authenticated(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"unauthenticated"}`))

		return
	}

	switch r.URL.Path {
	case "/ws/cpm/tree":
		f.serveTree(w, r)
	case "/ws/cpm/builtintext":
		f.serveContentInfo(w, r)
	case "/ws/cpm/customPageContent":
		f.serveContentWrite(w, r)
	case "/ws/cpm/createAsset":
		f.serveCreateAsset(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeCPM) serveTree(w http.ResponseWriter, r *http.Request) {
	f.treeLists.Add(1)

	f.mu.Lock()
	raw, ok := f.trees[r.URL.Query().Get("path")]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if !ok {
		w.Write([]byte(`{"folder":null,"message":"no such folder"}`))

		return
	}

	w.Write([]byte(raw))
}

func (f *fakeCPM) serveContentInfo(w http.ResponseWriter, r *http.Request) {
	f.reads.Add(1)

	f.mu.Lock()
	page, ok := f.pages[r.URL.Query().Get("path")]
	var snapshot fakePage
	if ok {
		snapshot = *page
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"no content found"}`))

		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"activeCustomText":      snapshot.custom,
		"builtInText":           snapshot.builtIn,
		"activeCustomContentId": snapshot.contentID,
		"draftCustomContentId":  0,
	})
}

func (f *fakeCPM) serveContentWrite(w http.ResponseWriter, r *http.Request) {
	f.writes.Add(1)

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		w.WriteHeader(http.StatusBadRequest)

		return
	}

	path := r.FormValue("customContentPath")
	text := r.FormValue("customContent")

	f.mu.Lock()
	f.writeLog = append(f.writeLog, text)
	hook := f.onWrite
	f.mu.Unlock()

	if hook != nil {
		hook(text)
	}

	f.mu.Lock()
	page, ok := f.pages[path]
	if !ok {
		page = &fakePage{}
		f.pages[path] = page
	}

	page.custom = &text
	if page.contentID == 0 {
		page.contentID = int64(len(f.pages)) + 100
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"returnMessage":"Custom page content saved successfully"}`))
}

func (f *fakeCPM) serveCreateAsset(w http.ResponseWriter, r *http.Request) {
	f.creates.Add(1)

	name := r.FormValue("newAssetName")
	parent := r.FormValue("newAssetPath")

	path := parent + "/" + name
	if parent == "/" {
		path = "/" + name
	}

	f.mu.Lock()
	if _, ok := f.pages[path]; !ok {
		f.pages[path] = &fakePage{}
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"returnMessage":"Asset created successfully"}`))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noopSleep(context.Context, time.Duration) error {
	return nil
}

// newSessionClient builds a session-authenticated client against the fake,
// with the verification delay disabled.
func newSessionClient(t *testing.T, f *fakeCPM) *Client {
	t.Helper()

	logger := discardLogger()
	session := NewSessionAuthenticator(f.srv.URL, "admin", "secret", f.srv.Client(), logger)
	router := NewAuthRouter(StrategySession, session, nil, logger)

	c := NewClient(f.srv.URL, f.srv.Client(), router, logger)
	c.sleepFunc = noopSleep

	return c
}
