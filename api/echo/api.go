package echo

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	indieauth "github.com/cellardoor/indieauth"
	"github.com/cellardoor/indieauth/domain"
	serrors "github.com/cellardoor/indieauth/errors"
	"github.com/cellardoor/indieauth/internal/auth"
	"github.com/cellardoor/indieauth/internal/metrics"
	"github.com/cellardoor/indieauth/internal/session"
)

// API holds the handler dependencies for the IndieAuth endpoints.
type API struct {
	authorize *indieauth.AuthorizeService
	tokens    *indieauth.TokenService
	sessions  *session.Store
	hasher    *auth.BcryptPasswordHasher
	loginUser string
	loginHash string
}

// NewAPI initializes the IndieAuth HTTP API. loginPasswordHash is the bcrypt
// hash the login form is verified against.
func NewAPI(
	authorize *indieauth.AuthorizeService,
	tokens *indieauth.TokenService,
	sessions *session.Store,
	loginUser, loginPasswordHash string,
) *API {
	return &API{
		authorize: authorize,
		tokens:    tokens,
		sessions:  sessions,
		hasher:    auth.NewBcryptPasswordHasher(0),
		loginUser: loginUser,
		loginHash: loginPasswordHash,
	}
}

// RegisterRoutes registers the IndieAuth routes.
func (a *API) RegisterRoutes(e *echo.Echo) {
	e.GET("/", a.IndexHandler)
	e.GET("/login", a.LoginPageHandler)
	e.POST("/login", a.LoginHandler)
	e.GET("/auth", a.AuthPageHandler)
	e.POST("/auth", a.AuthApproveHandler)
	e.GET("/token", a.TokenVerifyHandler)
	e.POST("/token", a.TokenExchangeHandler)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.Static("/static", "static")
}

// currentSession resolves the session cookie, or nil for anonymous requests.
func (a *API) currentSession(c echo.Context) *session.Session {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil {
		return nil
	}

	sess, err := a.sessions.Get(cookie.Value)
	if err != nil {
		return nil
	}

	return sess
}

// redirectToLogin sends the browser to the login form, carrying the original
// request URI so the flow resumes after authentication.
func redirectToLogin(c echo.Context) error {
	q := url.Values{}
	q.Set("redirect", c.Request().RequestURI)

	return c.Redirect(http.StatusFound, "/login?"+q.Encode())
}

// IndexHandler renders the landing page.
func (a *API) IndexHandler(c echo.Context) error {
	data := map[string]any{}
	if sess := a.currentSession(c); sess != nil {
		data["Username"] = sess.Username
	}

	return c.Render(http.StatusOK, "index.html", data)
}

// LoginPageHandler renders the login form.
func (a *API) LoginPageHandler(c echo.Context) error {
	redirect := c.QueryParam("redirect")
	if redirect == "" {
		redirect = "/"
	}

	return c.Render(http.StatusOK, "login.html", map[string]any{"Redirect": redirect})
}

// LoginHandler verifies the login form against the configured user and
// bcrypt hash, establishes a session, and resumes the interrupted flow.
func (a *API) LoginHandler(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	redirect := c.FormValue("redirect")
	if redirect == "" {
		redirect = "/"
	}

	validUser := username == a.loginUser
	validPass := a.hasher.Verify(a.loginHash, password) == nil

	if !validUser || !validPass {
		log.Info().Str("username", username).Msg("Invalid username or password")
		metrics.LoginFailureTotal.Inc()

		return c.Render(http.StatusOK, "login.html", map[string]any{
			"Error":    "Wrong username or password!",
			"Redirect": redirect,
		})
	}

	log.Info().Str("username", username).Msg("User logged in")
	metrics.LoginSuccessTotal.Inc()

	sess := a.sessions.Create(username)
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.Redirect(http.StatusFound, redirect)
}

// AuthPageHandler renders the consent page for an authenticated resource
// owner, or redirects to login.
func (a *API) AuthPageHandler(c echo.Context) error {
	sess := a.currentSession(c)
	if sess == nil {
		return redirectToLogin(c)
	}

	scope := c.QueryParam("scope")

	return c.Render(http.StatusOK, "auth.html", map[string]any{
		"AuthType":    string(domain.ParseResponseType(c.QueryParam("response_type"))),
		"ClientID":    c.QueryParam("client_id"),
		"RedirectURI": c.QueryParam("redirect_uri"),
		"State":       c.QueryParam("state"),
		"Me":          c.QueryParam("me"),
		"Scope":       scope,
		"Scopes":      strings.Fields(scope),
	})
}

// AuthApproveHandler issues an authorization code for an approved request
// and redirects back to the client with code and state.
func (a *API) AuthApproveHandler(c echo.Context) error {
	sess := a.currentSession(c)
	if sess == nil {
		return redirectToLogin(c)
	}

	req := indieauth.AuthorizeRequest{
		Me:           c.FormValue("me"),
		ClientID:     c.FormValue("client_id"),
		RedirectURI:  c.FormValue("redirect_uri"),
		State:        c.FormValue("state"),
		ResponseType: domain.ParseResponseType(c.FormValue("response_type")),
		Scope:        c.FormValue("scope"),
	}

	issued, err := a.authorize.Issue(c.Request().Context(), sess.Username, req)
	if err != nil {
		if errors.Is(err, indieauth.ErrUnauthenticated) {
			return redirectToLogin(c)
		}

		log.Error().Err(err).Msg("Failed to issue authorization code")

		return c.JSON(http.StatusInternalServerError, serrors.NewServerError("failed to issue authorization code"))
	}

	metrics.CodesIssuedTotal.Inc()

	q := url.Values{}
	q.Set("state", issued.State)
	q.Set("code", issued.Code)

	return c.Redirect(http.StatusFound, req.RedirectURI+"?"+q.Encode())
}

// TokenExchangeHandler exchanges an authorization code for a signed access
// token.
func (a *API) TokenExchangeHandler(c echo.Context) error {
	resp, err := a.tokens.Exchange(
		c.Request().Context(),
		c.FormValue("code"),
		c.FormValue("client_id"),
		c.FormValue("redirect_uri"),
	)
	if err != nil {
		metrics.TokenExchangeFailureTotal.Inc()

		return errorResponse(c, err)
	}

	metrics.TokenExchangeSuccessTotal.Inc()

	return c.JSON(http.StatusOK, resp)
}

// TokenVerifyHandler validates a presented bearer token. Success is an empty
// 200; the resource server applies its own scope policy on top.
func (a *API) TokenVerifyHandler(c echo.Context) error {
	claims, err := a.tokens.Verify(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		metrics.TokenVerifyFailureTotal.Inc()

		return errorResponse(c, err)
	}

	metrics.TokenVerifySuccessTotal.Inc()

	log.Debug().Str("me", claims.Me()).Str("client_id", claims.ClientID()).Msg("Token verified")

	return c.NoContent(http.StatusOK)
}

// errorResponse translates core errors into an HTTP status and body. Nothing
// from the core escapes past this boundary.
func errorResponse(c echo.Context, err error) error {
	var oerr *serrors.OAuth2Error
	if !errors.As(err, &oerr) {
		log.Error().Err(err).Msg("Unexpected error")

		return c.JSON(http.StatusInternalServerError, serrors.NewServerError("internal error"))
	}

	status := http.StatusInternalServerError
	switch oerr.Code {
	case serrors.InvalidRequest:
		status = http.StatusBadRequest
	case serrors.InvalidGrant, serrors.InvalidToken:
		status = http.StatusForbidden
	}

	return c.JSON(status, oerr)
}
