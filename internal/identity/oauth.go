package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/noah-isme/osms-api/internal/models"
	"github.com/noah-isme/osms-api/pkg/config"
)

// ErrUnverifiedEmail is returned when the provider has not verified the caller's email.
var ErrUnverifiedEmail = errors.New("oauth email is not verified")

// ExternalProfile is what an OAuth provider tells us about the caller.
type ExternalProfile struct {
	Email     string
	FullName  string
	AvatarURL string
}

// Connector drives one OAuth provider.
type Connector interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*ExternalProfile, error)
}

// OAuthState is remembered between the authorize redirect and the callback.
type OAuthState struct {
	Provider string `json:"provider"`
	Next     string `json:"next"`
}

// StateStore keeps OAuth state values until they are consumed once.
type StateStore interface {
	Save(ctx context.Context, state string, payload OAuthState, ttl time.Duration) error
	Consume(ctx context.Context, state string) (*OAuthState, error)
}

type profileFetcher func(ctx context.Context, client *http.Client) (*ExternalProfile, error)

type oauthConnector struct {
	config *oauth2.Config
	fetch  profileFetcher
}

func (c *oauthConnector) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (c *oauthConnector) Exchange(ctx context.Context, code string) (*ExternalProfile, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	profile, err := c.fetch(ctx, c.config.Client(ctx, token))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(profile.Email) == "" {
		return nil, errors.New("oauth profile has no email")
	}
	return profile, nil
}

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	githubUserURL     = "https://api.github.com/user"
	githubEmailsURL   = "https://api.github.com/user/emails"
)

// NewConnectors builds the connectors for every provider with credentials.
func NewConnectors(cfg config.OAuthConfig, siteURL string) map[string]Connector {
	connectors := map[string]Connector{}
	redirect := strings.TrimRight(siteURL, "/") + "/auth/callback"

	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		connectors[models.ProviderGoogle] = &oauthConnector{
			config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     endpoints.Google,
				RedirectURL:  redirect,
				Scopes:       []string{"openid", "email", "profile"},
			},
			fetch: googleProfile(googleUserInfoURL),
		}
	}
	if cfg.GitHubClientID != "" && cfg.GitHubClientSecret != "" {
		connectors[models.ProviderGitHub] = &oauthConnector{
			config: &oauth2.Config{
				ClientID:     cfg.GitHubClientID,
				ClientSecret: cfg.GitHubClientSecret,
				Endpoint:     endpoints.GitHub,
				RedirectURL:  redirect,
				Scopes:       []string{"read:user", "user:email"},
			},
			fetch: githubProfile(githubUserURL, githubEmailsURL),
		}
	}
	return connectors
}

func googleProfile(userInfoURL string) profileFetcher {
	return func(ctx context.Context, client *http.Client) (*ExternalProfile, error) {
		var payload struct {
			Email         string `json:"email"`
			VerifiedEmail bool   `json:"verified_email"`
			Name          string `json:"name"`
			Picture       string `json:"picture"`
		}
		if err := getJSON(ctx, client, userInfoURL, &payload); err != nil {
			return nil, err
		}
		if payload.Email != "" && !payload.VerifiedEmail {
			return nil, ErrUnverifiedEmail
		}
		return &ExternalProfile{Email: payload.Email, FullName: payload.Name, AvatarURL: payload.Picture}, nil
	}
}

func githubProfile(userURL, emailsURL string) profileFetcher {
	return func(ctx context.Context, client *http.Client) (*ExternalProfile, error) {
		var user struct {
			Login     string `json:"login"`
			Name      string `json:"name"`
			Email     string `json:"email"`
			AvatarURL string `json:"avatar_url"`
		}
		if err := getJSON(ctx, client, userURL, &user); err != nil {
			return nil, err
		}
		profile := &ExternalProfile{Email: user.Email, FullName: user.Name, AvatarURL: user.AvatarURL}
		if profile.FullName == "" {
			profile.FullName = user.Login
		}
		if profile.Email != "" {
			return profile, nil
		}

		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, emailsURL, &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				profile.Email = e.Email
				break
			}
		}
		return profile, nil
	}
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// RedisStateStore keeps OAuth state in Redis so any replica can finish the flow.
type RedisStateStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStateStore constructs a RedisStateStore.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: "osms:oauth:state:"}
}

// Save implements StateStore.
func (s *RedisStateStore) Save(ctx context.Context, state string, payload OAuthState, ttl time.Duration) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+state, raw, ttl).Err()
}

// Consume implements StateStore.
func (s *RedisStateStore) Consume(ctx context.Context, state string) (*OAuthState, error) {
	raw, err := s.client.GetDel(ctx, s.prefix+state).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrInvalidOAuthState
		}
		return nil, err
	}
	var payload OAuthState
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrInvalidOAuthState
	}
	return &payload, nil
}
