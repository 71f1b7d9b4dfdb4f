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

const (
	// DefaultCallbackAddr is where the login callback server listens.
	DefaultCallbackAddr = "127.0.0.1:9847"
	// AuthTimeout bounds how long the user has to approve access.
	AuthTimeout = 5 * time.Minute
)

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head><title>alephplay - Last.fm</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
<h1>{{.Title}}</h1>
<p>{{.Text}}</p>
</body>
</html>`))

// AuthServer receives the token Last.fm sends back after the user
// approves access.
type AuthServer struct {
	server   *http.Server
	listener net.Listener
	tokens   chan string
	done     chan struct{}
}

// StartAuthServer listens on addr, DefaultCallbackAddr when empty.
func StartAuthServer(addr string) (*AuthServer, error) {
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	tokens := make(chan string, 1)
	r := mux.NewRouter()
	r.Handle("/callback", callbackHandler(tokens)).Methods(http.MethodGet)

	as := &AuthServer{
		server:   &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second},
		listener: listener,
		tokens:   tokens,
		done:     make(chan struct{}),
	}
	go func() {
		defer close(as.done)
		if err := as.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case tokens <- "":
			default:
			}
		}
	}()
	return as, nil
}

// CallbackURL is the URL Last.fm redirects to.
func (as *AuthServer) CallbackURL() string {
	return "http://" + as.listener.Addr().String() + "/callback"
}

// TokenChan delivers the first callback's token.
func (as *AuthServer) TokenChan() <-chan string {
	return as.tokens
}

// Shutdown stops the server.
func (as *AuthServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = as.server.Shutdown(ctx)
	<-as.done
}

func callbackHandler(tokens chan<- string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")

		page := struct{ Title, Text string }{"Authorization successful", "You can close this window."}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if token == "" {
			page.Title, page.Text = "Authorization failed", "No token received. Run alephplay lastfm login again."
			w.WriteHeader(http.StatusBadRequest)
		}
		_ = callbackPage.Execute(w, page)

		select {
		case tokens <- token:
		default:
		}
	})
}

// WaitForToken waits for the callback token. It returns "" on timeout or
// when ctx ends.
func WaitForToken(ctx context.Context, tokens <-chan string, timeout time.Duration) string {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case token := <-tokens:
		return token
	case <-timer.C:
		return ""
	case <-ctx.Done():
		return ""
	}
}

var browserCommands = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

// OpenBrowser opens url with the desktop's default handler.
func OpenBrowser(url string) error {
	argv, ok := browserCommands[runtime.GOOS]
	if !ok {
		return fmt.Errorf("no browser launcher for %s", runtime.GOOS)
	}
	args := append(argv[1:len(argv):len(argv)], url)
	return exec.Command(argv[0], args...).Start() //nolint:gosec // fixed launcher, url is an argument
}
