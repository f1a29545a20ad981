package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"memberboard/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var ErrUntrustedIdentity = errors.New("external identity email not verified")

type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
	EmailVerified  bool
}

type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUserInfo, error)
}

type GoogleOAuthProvider struct {
	cfg *oauth2.Config
}

func NewGoogleOAuthProvider(cfg *config.Config) *GoogleOAuthProvider {
	return &GoogleOAuthProvider{cfg: &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}}
}

func (p *GoogleOAuthProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

func (p *GoogleOAuthProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.cfg.Exchange(ctx, code)
}

func (p *GoogleOAuthProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUserInfo, error) {
	client := p.cfg.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://openidconnect.googleapis.com/v1/userinfo", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status: %d", resp.StatusCode)
	}
	var body struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Sub == "" || body.Email == "" {
		return nil, fmt.Errorf("missing required userinfo fields")
	}
	return &OAuthUserInfo{
		ProviderUserID: body.Sub,
		Email:          strings.ToLower(body.Email),
		Name:           body.Name,
		EmailVerified:  body.EmailVerified,
	}, nil
}

// OAuthService resolves an external identity into a local account. The
// provider already authenticated the user; all that is left is mapping
// the asserted email onto an account, creating one on first sign-in.
type OAuthService struct {
	provider OAuthProvider
	auth     *AuthService
	accounts *AccountService
}

func NewOAuthService(provider OAuthProvider, auth *AuthService, accounts *AccountService) *OAuthService {
	return &OAuthService{provider: provider, auth: auth, accounts: accounts}
}

func (s *OAuthService) LoginURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

// HandleCallback exchanges the authorization code, fetches the identity
// and signs the user in, provisioning a verified password-less account
// on first contact. Identities whose email the provider has not
// verified are refused; trusted sign-up rests on that assertion.
func (s *OAuthService) HandleCallback(ctx context.Context, code string, remember bool) (*LoginResult, error) {
	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	info, err := s.provider.FetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}
	if !info.EmailVerified {
		return nil, ErrUntrustedIdentity
	}

	account, err := s.accounts.Get(info.Email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		nickname := info.Name
		if nickname == "" {
			nickname, _, _ = strings.Cut(info.Email, "@")
		}
		if _, err := s.auth.RegisterTrusted(ctx, info.Email, nickname); err != nil && !errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
	}
	return s.auth.LoginTrusted(ctx, info.Email, remember)
}
