// Package oauth talks to external identity providers and normalizes what
// they return into model.ExternalProfile.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"openlingua/internal/model"
)

const (
	ProviderGoogle = "google"

	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	maxUserInfoBytes   = 1 << 20
)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint and UserInfoURL default to Google's production endpoints.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
	HTTPClient  *http.Client
}

type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
	client      *http.Client
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func NewGoogleProvider(cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}

	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" || endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}

	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = defaultUserInfoURL
	}

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"profile", "email"},
		},
		userInfoURL: userInfoURL,
		client:      cfg.HTTPClient,
	}, nil
}

func (p *GoogleProvider) Name() string {
	return ProviderGoogle
}

// AuthCodeURL builds the consent URL with a PKCE S256 challenge derived
// from verifier.
func (p *GoogleProvider) AuthCodeURL(state string, verifier string) string {
	return p.config.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// Exchange trades the authorization code for a token and fetches the
// caller's profile. Every transport or provider failure wraps
// model.ErrProviderExchange. A profile without an email is returned as-is;
// deciding what that means is up to the caller.
func (p *GoogleProvider) Exchange(ctx context.Context, code string, verifier string) (model.ExternalProfile, error) {
	if p.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	}

	opts := []oauth2.AuthCodeOption{}
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}

	tok, err := p.config.Exchange(ctx, code, opts...)
	if err != nil {
		return model.ExternalProfile{}, fmt.Errorf("%w: token exchange: %v", model.ErrProviderExchange, err)
	}

	info, err := p.fetchUserInfo(ctx, tok)
	if err != nil {
		return model.ExternalProfile{}, fmt.Errorf("%w: %v", model.ErrProviderExchange, err)
	}

	return model.ExternalProfile{
		Provider:   ProviderGoogle,
		ProviderID: strings.TrimSpace(info.ID),
		Email:      strings.TrimSpace(info.Email),
		Name:       strings.TrimSpace(info.Name),
		AvatarURL:  strings.TrimSpace(info.Picture),
	}, nil
}

func (p *GoogleProvider) fetchUserInfo(ctx context.Context, tok *oauth2.Token) (googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return googleUserInfo{}, fmt.Errorf("build userinfo request: %w", err)
	}

	resp, err := p.config.Client(ctx, tok).Do(req)
	if err != nil {
		return googleUserInfo{}, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoBytes)).Decode(&info); err != nil {
		return googleUserInfo{}, fmt.Errorf("decode userinfo: %w", err)
	}

	if info.ID == "" {
		return googleUserInfo{}, errors.New("userinfo missing subject id")
	}

	return info, nil
}

// NewVerifier returns a fresh PKCE code verifier.
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}
