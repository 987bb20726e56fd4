package lastfm

import (
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/shkh/lastfm-go/lastfm"
)

const authPage = "https://www.last.fm/api/auth/"

// ErrNotAuthenticated is returned by calls that need a session key.
var ErrNotAuthenticated = errors.New("not authenticated")

// Session is an authorized Last.fm user session.
type Session struct {
	Username string
	Key      string
}

// Client talks to the Last.fm API on behalf of one user.
type Client struct {
	api    *lastfm.Api
	apiKey string

	mu         sync.RWMutex
	sessionKey string
}

func New(apiKey, apiSecret string) *Client {
	return &Client{api: lastfm.New(apiKey, apiSecret), apiKey: apiKey}
}

func (c *Client) SetSessionKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionKey = key
	c.api.SetSession(key)
}

func (c *Client) SessionKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionKey
}

// Token requests a fresh request token for the desktop auth flow.
func (c *Client) Token() (string, error) {
	token, err := c.api.GetToken()
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	return token, nil
}

// AuthURL is the page where the user grants access for token.
func (c *Client) AuthURL(token string) string {
	q := url.Values{"api_key": {c.apiKey}, "token": {token}}
	return authPage + "?" + q.Encode()
}

// Login exchanges an authorized token for a session. The username is
// best effort and stays empty when user.getInfo fails.
func (c *Client) Login(token string) (Session, error) {
	c.mu.Lock()
	err := c.api.LoginWithToken(token)
	if err == nil {
		c.sessionKey = c.api.GetSessionKey()
	}
	key := c.sessionKey
	c.mu.Unlock()
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}

	s := Session{Key: key}
	if info, err := c.api.User.GetInfo(nil); err == nil {
		s.Username = info.Name
	}
	return s, nil
}

// UpdateNowPlaying publishes track as currently playing.
func (c *Client) UpdateNowPlaying(track ScrobbleTrack) error {
	return c.call("update now playing", func() error {
		_, err := c.api.Track.UpdateNowPlaying(track.params())
		return err
	})
}

// Scrobble records a finished play of track.
func (c *Client) Scrobble(track ScrobbleTrack) error {
	return c.call("scrobble", func() error {
		p := track.params()
		p["timestamp"] = track.Timestamp.Unix()
		_, err := c.api.Track.Scrobble(p)
		return err
	})
}

func (c *Client) call(op string, fn func() error) error {
	if c.SessionKey() == "" {
		return ErrNotAuthenticated
	}
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
