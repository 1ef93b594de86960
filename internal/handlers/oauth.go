package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/k0723/mini3/internal/config"
	"github.com/k0723/mini3/internal/models"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type OAuthHandler struct {
	db          *sqlx.DB
	oauth       *oauth2.Config
	jwtSecret   []byte
	tokenTTL    time.Duration
	frontendURL string
	logger      *zap.Logger

	userinfoURL string
}

func NewOAuthHandler(db *sqlx.DB, cfg config.Google, jwtSecret []byte, tokenTTL time.Duration, frontendURL string, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{
		db: db,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		frontendURL: frontendURL,
		logger:      logger,
		userinfoURL: googleUserinfoURL,
	}
}

// Login redirects the browser to Google's consent screen. The random state
// is kept in a short-lived cookie and checked on callback.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

type googleUserinfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Callback exchanges the authorization code, looks the Google account up by
// email (creating a password-less user on first login) and redirects to the
// frontend with a freshly issued token.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "invalid oauth state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("oauth code exchange failed", zap.Error(err))
		http.Error(w, "could not exchange authorization code", http.StatusBadGateway)
		return
	}

	info, err := h.fetchUserinfo(r, token)
	if err != nil {
		h.logger.Warn("oauth userinfo fetch failed", zap.Error(err))
		http.Error(w, "could not fetch user info", http.StatusBadGateway)
		return
	}
	if info.Email == "" {
		http.Error(w, "google account has no email", http.StatusBadGateway)
		return
	}

	var user models.User
	err = h.db.Get(&user, `SELECT id, email, password_hash, username, role, created_at FROM users WHERE email=$1`, info.Email)
	if err != nil {
		// First login: social accounts carry no password.
		err = h.db.QueryRowx(
			`INSERT INTO users (email, password_hash, username, role) VALUES ($1, '', $2, $3)
			 RETURNING id, email, password_hash, username, role, created_at`,
			info.Email, info.Name, models.RoleUser).StructScan(&user)
		if err != nil {
			http.Error(w, "could not create user", http.StatusInternalServerError)
			return
		}
	}

	jwtToken, err := issueJWT(h.jwtSecret, user.ID, h.tokenTTL)
	if err != nil {
		http.Error(w, "could not issue token", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.frontendURL+"/oauth?token="+jwtToken, http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) fetchUserinfo(r *http.Request, token *oauth2.Token) (*googleUserinfo, error) {
	client := h.oauth.Client(r.Context(), token)
	resp, err := client.Get(h.userinfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info googleUserinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}
