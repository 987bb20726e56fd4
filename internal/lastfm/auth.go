package lastfm

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/gorilla/mux"
)

// CallbackPort is where Last.fm sends the browser back after authorization.
const CallbackPort = 9847

// ErrAuthTimeout is returned when no callback arrives in time.
var ErrAuthTimeout = errors.New("authorization timed out")

var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head><title>streamwave - Last.fm</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
{{if .}}<h1>Authorized</h1>
<p>You can close this tab.</p>
{{else}}<h1>Authorization failed</h1>
<p>No token received. Run <code>streamwave lastfm login</code> again.</p>
{{end}}</body>
</html>`))

// Callback is the local HTTP endpoint receiving the authorized token.
type Callback struct {
	srv    *http.Server
	tokens chan string
	served chan struct{}
}

// ListenCallback serves the callback on addr, localhost:CallbackPort when
// addr is empty.
func ListenCallback(addr string) (*Callback, error) {
	if addr == "" {
		addr = fmt.Sprintf("localhost:%d", CallbackPort)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	cb := newCallback()
	go func() {
		_ = cb.srv.Serve(ln)
		close(cb.served)
	}()
	return cb, nil
}

func newCallback() *Callback {
	cb := &Callback{
		tokens: make(chan string, 1),
		served: make(chan struct{}),
	}
	r := mux.NewRouter()
	r.HandleFunc("/callback", cb.handle).Methods(http.MethodGet)
	cb.srv = &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	return cb
}

func (cb *Callback) handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if token == "" {
		w.WriteHeader(http.StatusBadRequest)
	}
	_ = resultPage.Execute(w, token != "")

	// only the first callback counts
	select {
	case cb.tokens <- token:
	default:
	}
}

// Wait returns the token of the first callback.
func (cb *Callback) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	return WaitForToken(ctx, cb.tokens, timeout)
}

// Close stops the callback server.
func (cb *Callback) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := cb.srv.Shutdown(ctx)
	<-cb.served
	return err
}

// WaitForToken blocks until a token arrives on tokens, ctx is done or the
// timeout elapses. An empty token from the callback is an error.
func WaitForToken(ctx context.Context, tokens <-chan string, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case token := <-tokens:
		if token == "" {
			return "", errors.New("no token received")
		}
		return token, nil
	case <-timer.C:
		return "", ErrAuthTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// OpenBrowser asks the desktop to open url.
func OpenBrowser(url string) error {
	name, args := "xdg-open", []string{url}
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler", url}
	}
	return exec.Command(name, args...).Start()
}
