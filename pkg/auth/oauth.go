// Package auth runs the OAuth2 installed-app flow for the Google Calendar API
// and keeps the resulting token next to the client credentials.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/gantta/pkg/logging"
)

const (
	// ClientSecretsFile is the OAuth client downloaded from the Google Cloud
	// console, read from the config directory.
	ClientSecretsFile = "credentials.json"

	// TokenFile holds the access and refresh token.
	TokenFile = "token.json"

	// LocalhostAuthPort is where the redirect listener runs.
	LocalhostAuthPort = "6789"

	authTimeout = 5 * time.Minute
)

// Scopes requested for calendar export.
var Scopes = []string{
	calendar.CalendarEventsScope,
	calendar.CalendarReadonlyScope,
}

// Flow holds what the OAuth dance needs. Out receives the instructions
// printed for the user.
type Flow struct {
	Dir    string
	Out    io.Writer
	Logger logging.Logger
}

func (f *Flow) logger() logging.Logger {
	if f.Logger == nil {
		return logging.Nop()
	}
	return f.Logger
}

func (f *Flow) out() io.Writer {
	if f.Out == nil {
		return os.Stdout
	}
	return f.Out
}

func (f *Flow) TokenPath() string { return filepath.Join(f.Dir, TokenFile) }

// Config reads the client secrets and forces the redirect onto the local
// listener port.
func (f *Flow) Config(scopes []string) (*oauth2.Config, error) {
	clientSecretsFile := filepath.Join(f.Dir, ClientSecretsFile)
	b, err := os.ReadFile(clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", clientSecretsFile, err)
	}

	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	cfg.RedirectURL = normalizeRedirect(cfg.RedirectURL, f.logger())
	return cfg, nil
}

// normalizeRedirect points localhost and out-of-band redirects at the local
// listener. Other redirects are kept.
func normalizeRedirect(redirect string, logger logging.Logger) string {
	if redirect == "urn:ietf:wg:oauth:2.0:oob" || redirect == "" {
		return fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
	}
	parsed, err := url.Parse(redirect)
	if err != nil {
		logger.Warn("could not parse redirect url, using it as is", "url", redirect, "error", err)
		return redirect
	}
	if parsed.Hostname() != "localhost" && parsed.Hostname() != "127.0.0.1" {
		logger.Warn("redirect url is not a localhost callback", "url", redirect)
		return redirect
	}
	if parsed.Port() != LocalhostAuthPort {
		if parsed.Port() != "" {
			logger.Warn("forcing redirect port to the local listener", "configured", parsed.Port(), "port", LocalhostAuthPort)
		}
		parsed.Host = net.JoinHostPort(parsed.Hostname(), LocalhostAuthPort)
	}
	return parsed.String()
}

// Client returns an authenticated *http.Client. It loads the saved token,
// or runs the browser flow when there is none. Refreshed tokens are saved.
func (f *Flow) Client(ctx context.Context, scopes []string) (*http.Client, error) {
	cfg, err := f.Config(scopes)
	if err != nil {
		return nil, err
	}

	tokenPath := f.TokenPath()
	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		f.logger().Info("no usable token, starting web authorization", "path", tokenPath, "error", err)
		tok, err = f.tokenFromWeb(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to get token from web: %w", err)
		}
		if err := saveToken(tokenPath, tok); err != nil {
			return nil, err
		}
	}

	src := &savingSource{
		base:   cfg.TokenSource(ctx, tok),
		last:   tok,
		path:   tokenPath,
		logger: f.logger(),
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// savingSource writes the token back whenever a refresh changes it.
type savingSource struct {
	base   oauth2.TokenSource
	last   *oauth2.Token
	path   string
	logger logging.Logger
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last.AccessToken || tok.RefreshToken != s.last.RefreshToken {
		if err := saveToken(s.path, tok); err != nil {
			s.logger.Warn("could not save refreshed token", "path", s.path, "error", err)
		} else {
			s.logger.Debug("refreshed token saved", "path", s.path)
		}
		s.last = tok
	}
	return tok, nil
}

func (f *Flow) tokenFromWeb(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", net.JoinHostPort("localhost", LocalhostAuthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler:      callbackHandler(codeCh, errCh),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errCh <- fmt.Errorf("HTTP server error: %w", err):
			default:
			}
		}
	}()
	defer server.Close()

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Fprintf(f.out(), "Open the following URL in your browser to authorize gantta:\n%s\n", authURL)
	f.logger().Info("waiting for authorization code", "redirect", cfg.RedirectURL)

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	select {
	case code := <-codeCh:
		tok, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization timed out, please try again: %w", ctx.Err())
	}
}

func callbackHandler(codeCh chan<- string, errCh chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Authorization code not found", http.StatusBadRequest)
			select {
			case errCh <- errors.New("authorization code not found in redirect URL"):
			default:
			}
			return
		}
		fmt.Fprint(w, "Authentication successful! You can close this window.")
		select {
		case codeCh <- code:
		default:
		}
	})
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", path, err)
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// Reset deletes the saved token so the next Client call re-authorizes.
func (f *Flow) Reset() error {
	err := os.Remove(f.TokenPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete token file '%s': %w", f.TokenPath(), err)
	}
	return nil
}

// CalendarService returns an authenticated Calendar API service.
func (f *Flow) CalendarService(ctx context.Context) (*calendar.Service, error) {
	client, err := f.Client(ctx, Scopes)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client for Calendar API: %w", err)
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google Calendar service: %w", err)
	}
	return srv, nil
}
