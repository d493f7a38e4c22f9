// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/trainhub/internal/app/system/apitoken"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Session value keys. Only the user ID and the auth flag live in the
// cookie; everything else about the user is fetched fresh per request
// so deactivation takes effect immediately.
const (
	isAuthKey    = "is_authenticated"
	userIDKey    = "user_id"
	activityKey  = "activity_session_id"
	pendingIDKey = "pending_user_id"
)

// SessionUser is what LoadSessionUser injects into r.Context().
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Roles []string // superuser | admin | team_lead | doorholder
}

// HasRole reports whether the session user holds the given role.
func (u *SessionUser) HasRole(role string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// UserFetcher loads fresh user data for each request. Implementations
// return nil when the user does not exist or is deactivated, which
// signs the session out.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

// SessionManager owns the cookie store and the auth middleware chain.
type SessionManager struct {
	store       *sessions.CookieStore
	sessionName string
	fetcher     UserFetcher
	logger      *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager.
//
// In production (secure=true), cookies are Secure + SameSite=None for
// cross-site use over HTTPS. In local dev over http://localhost, use
// secure=false so cookies are accepted; an empty sessionKey is then
// replaced with a random one (sessions reset on restart).
func NewSessionManager(sessionKey, sessionName, domain string, ttl time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		if secure {
			return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
		}
		sessionKey = string(securecookie.GenerateRandomKey(32))
		logger.Warn("session key not configured; using a random key (sessions reset on restart)")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if sessionName == "" {
		sessionName = "trainhub-session"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}

	// SameSite handling: in prod with Secure cookies, we use None
	// so cookies can be sent in cross-site contexts. In dev, Lax is fine.
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}

	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("ttl", ttl))

	return &SessionManager{
		store:       store,
		sessionName: sessionName,
		logger:      logger,
	}, nil
}

// SetUserFetcher registers the per-request user loader. Until one is
// set, LoadSessionUser leaves requests anonymous.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) {
	sm.fetcher = f
}

// Store exposes the underlying cookie store for handlers that need to
// adjust cookie options (e.g. logout).
func (sm *SessionManager) Store() *sessions.CookieStore {
	return sm.store
}

// GetSession returns the request's session, creating it if absent.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.sessionName)
}

// SignIn marks the session authenticated for the given user ID and
// clears any pending login state.
func (sm *SessionManager) SignIn(r *http.Request, w http.ResponseWriter, userID, activitySessionID string) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		return err
	}
	delete(sess.Values, pendingIDKey)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	if activitySessionID != "" {
		sess.Values[activityKey] = activitySessionID
	}
	return sess.Save(r, w)
}

// LoadSessionUser injects the user into context if they are signed in.
// User data is fetched fresh on every request; a fetch miss (deleted
// or deactivated account) leaves the request anonymous.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.sessionName)
		if err != nil {
			// Bad or stale cookie; continue anonymous.
			next.ServeHTTP(w, r)
			return
		}

		isAuth, _ := sess.Values[isAuthKey].(bool)
		userID, _ := sess.Values[userIDKey].(string)
		if !isAuth || userID == "" || sm.fetcher == nil {
			next.ServeHTTP(w, r)
			return
		}

		if u := sm.fetcher.FetchUser(r.Context(), userID); u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// LoadBearerUser injects the user for requests carrying a valid
// Authorization: Bearer token. Runs after LoadSessionUser; a cookie
// session already in context wins. The token only identifies the user;
// roles and active status are fetched fresh so revocation applies
// immediately.
func (sm *SessionManager) LoadBearerUser(tokens *apitoken.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := CurrentUser(r); ok {
				next.ServeHTTP(w, r)
				return
			}
			raw := apitoken.FromAuthHeader(r.Header.Get("Authorization"))
			if raw == "" || tokens == nil || sm.fetcher == nil {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := tokens.Parse(raw)
			if err != nil {
				// Invalid or expired token; continue anonymous and let
				// RequireSignedIn produce the 401.
				next.ServeHTTP(w, r)
				return
			}
			if u := sm.fetcher.FetchUser(r.Context(), claims.Subject); u != nil {
				r = withUser(r, u)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		sm.denySignedOut(w, r)
	})
}

// RequireRole ensures the user in context holds at least one of the
// allowed roles. Not signed in gets 401 semantics; signed in without a
// matching role gets 403 semantics.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				sm.denySignedOut(w, r)
				return
			}

			for _, role := range u.Roles {
				if _, has := set[strings.ToLower(role)]; has {
					next.ServeHTTP(w, r)
					return
				}
			}

			// Signed in but no matching role.
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", "/forbidden")
				w.WriteHeader(http.StatusForbidden)
				return
			}
			if wantsHTML(r) {
				http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
				return
			}
			writeJSONError(w, http.StatusForbidden, "permission_denied", "permission denied")
		})
	}
}

// denySignedOut applies the 401 triage: HTMX redirect, HTML redirect
// with return param, JSON 401 for API callers.
func (sm *SessionManager) denySignedOut(w http.ResponseWriter, r *http.Request) {
	ret := url.QueryEscape(currentURI(r))

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login?return="+ret)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
		return
	}
	writeJSONError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
}

// writeJSONError emits the API error envelope. Duplicated from
// httpjson to keep this package import-cycle free (httpjson depends on
// authz, which reads the user from this package).
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"code":%q,"message":%q}}`, code, message)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helpers                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser returns a request with the given user injected into
// context, mirroring what LoadSessionUser does. Test helper only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func wantsHTML(r *http.Request) bool {
	// Very light heuristic: treat it as HTML if it's HTMX or Accepts text/html.
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}

func currentURI(r *http.Request) string {
	// Preserve path + query as a return param.
	u := *r.URL
	return u.RequestURI()
}
