package oauth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	successPage = `<html><body><h2>Authentication Successful!</h2>
<p>You can close this window and return to the terminal.</p></body></html>`

	errorPage = `<html><body><h2>Authentication Failed</h2>
<p>%s: %s</p><p>You can close this window.</p></body></html>`

	stateMismatchPage = `<html><body><h2>State Mismatch</h2>
<p>Possible CSRF attack. Please try again.</p></body></html>`
)

type callbackResult struct {
	code string
	err  error
}

// WaitForCallback serves http://127.0.0.1:<port>/callback until the
// OAuth redirect arrives, validates the state parameter, and returns
// the authorization code. It gives up after five minutes.
func WaitForCallback(ctx context.Context, port int, expectedState string) (string, error) {
	results := make(chan callbackResult, 1)

	r := chi.NewRouter()
	r.Get("/callback", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()

		if errName := q.Get("error"); errName != "" {
			desc := q.Get("error_description")
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, errorPage, errName, desc)
			results <- callbackResult{err: fmt.Errorf("oauth: %s - %s", errName, desc)}
			return
		}

		if q.Get("state") != expectedState {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, stateMismatchPage)
			results <- callbackResult{err: fmt.Errorf("oauth: state mismatch - possible CSRF attack")}
			return
		}

		code := q.Get("code")
		if code == "" {
			results <- callbackResult{err: fmt.Errorf("oauth: missing authorization code in callback")}
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, successPage)
		results <- callbackResult{code: code}
	})

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("oauth: bind %s (is another process using this port?): %w", addr, err)
	}

	srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			results <- callbackResult{err: fmt.Errorf("oauth: callback server: %w", serveErr)}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	select {
	case res := <-results:
		return res.code, res.err
	case <-time.After(callbackTimeout):
		return "", fmt.Errorf("oauth: timed out waiting for callback (5 minutes)")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
