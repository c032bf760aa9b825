package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/iliyamo/cinema-ticket-booking/internal/config"
	"github.com/iliyamo/cinema-ticket-booking/internal/utils"
)

// GoogleUserInfoURL is the OpenID Connect userinfo endpoint.
const GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

const oauthStateCookie = "oauth_state"

// OAuthHandler signs users in through Google.  A first sign-in creates the
// account; later ones reuse it by email.
type OAuthHandler struct {
	Auth        *AuthHandler
	Conf        *oauth2.Config
	UserInfoURL string
}

// NewGoogleOAuth returns nil when the client credentials are missing.
func NewGoogleOAuth(cfg config.OAuthConfig, auth *AuthHandler) *OAuthHandler {
	if !cfg.Enabled() {
		return nil
	}
	return &OAuthHandler{
		Auth: auth,
		Conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email"},
		},
		UserInfoURL: GoogleUserInfoURL,
	}
}

type googleUser struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// Start redirects to the provider's consent page.
func (h *OAuthHandler) Start(c echo.Context) error {
	state, err := utils.RandomSecret(16)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "state failed"})
	}
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, h.Conf.AuthCodeURL(state))
}

// Callback exchanges the code, resolves the email and returns a token pair.
func (h *OAuthHandler) Callback(c echo.Context) error {
	cookie, err := c.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != c.QueryParam("state") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid oauth state"})
	}
	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	tok, err := h.Conf.Exchange(ctx, code)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "oauth exchange failed"})
	}
	gu, err := h.fetchUser(ctx, tok)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "oauth userinfo failed"})
	}
	if gu.Email == "" || !gu.EmailVerified {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "email not verified"})
	}

	u, err := h.Auth.Users.GetOrCreateByEmail(ctx, gu.Email, h.Auth.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account disabled"})
	}
	resp, err := h.Auth.issue(ctx, u, "")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	c.SetCookie(&http.Cookie{Name: oauthStateCookie, Path: "/", MaxAge: -1})
	return c.JSON(http.StatusOK, resp)
}

func (h *OAuthHandler) fetchUser(ctx context.Context, tok *oauth2.Token) (googleUser, error) {
	var gu googleUser
	resp, err := h.Conf.Client(ctx, tok).Get(h.UserInfoURL)
	if err != nil {
		return gu, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return gu, fmt.Errorf("userinfo: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return gu, err
	}
	gu.Email = strings.ToLower(strings.TrimSpace(gu.Email))
	return gu, nil
}
