package auth

import (
	"context"
	"fmt"

	"lumen-finance-backend/internal/config"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Service runs the Google OAuth flow. Offline access with forced consent
// guarantees a refresh token, so sync keeps working after the access token
// expires.
type Service struct {
	oauth  *oauth2.Config
	logger *logrus.Logger
}

func NewService(cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				gmail.GmailReadonlyScope,
				goauth2.UserinfoEmailScope,
				goauth2.UserinfoProfileScope,
				"openid",
			},
			Endpoint: google.Endpoint,
		},
		logger: logger,
	}
}

// OAuthConfig exposes the config for building token sources.
func (s *Service) OAuthConfig() *oauth2.Config { return s.oauth }

// AuthURL builds the consent page URL carrying the CSRF state.
func (s *Service) AuthURL(state string) string {
	return s.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades the callback code for a token.
func (s *Service) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange oauth code: %w", err)
	}
	return token, nil
}

// UserInfo fetches the signed-in user's email and name. A failure here is
// not fatal to login, so it returns empty strings instead of an error.
func (s *Service) UserInfo(ctx context.Context, token *oauth2.Token) (email, name string) {
	svc, err := goauth2.NewService(ctx, option.WithTokenSource(s.oauth.TokenSource(ctx, token)))
	if err != nil {
		s.logger.WithError(err).Warn("auth.UserInfo client setup failed")
		return "", ""
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		s.logger.WithError(err).Warn("auth.UserInfo fetch failed")
		return "", ""
	}
	return info.Email, info.Name
}
