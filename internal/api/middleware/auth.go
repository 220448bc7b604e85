package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/pkg/config"
)

type contextKey string

const actorContextKey contextKey = "actor"

// authClaims are the token claims the API consumes
type authClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// Authenticator verifies bearer tokens and attaches the actor to the request
// context.
type Authenticator struct {
	cfg config.AuthConfig
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{cfg: cfg}
}

// ActorFromContext returns the authenticated actor, if any
func ActorFromContext(ctx context.Context) (entities.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(entities.Actor)
	return actor, ok
}

// ContextWithActor attaches an actor to a context; used by tests
func ContextWithActor(ctx context.Context, actor entities.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// RequireAuth rejects requests without a valid bearer token
func (a *Authenticator) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := a.authenticate(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
	}
}

// RequireModerator rejects requests whose token lacks the moderator role
func (a *Authenticator) RequireModerator(next http.HandlerFunc) http.HandlerFunc {
	return a.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())
		if !actor.IsModerator() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OptionalAuth attaches the actor when a valid token is present and passes
// the request through anonymously otherwise.
func (a *Authenticator) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if actor, err := a.authenticate(r); err == nil {
			r = r.WithContext(ContextWithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	}
}

func (a *Authenticator) authenticate(r *http.Request) (entities.Actor, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return entities.Actor{}, fmt.Errorf("missing bearer token")
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	claims, err := a.parseToken(tokenString)
	if err != nil {
		return entities.Actor{}, err
	}

	role := entities.Role(claims.Role)
	if role != entities.RoleModerator {
		role = entities.RoleUser
	}

	return entities.Actor{
		ID:   claims.Subject,
		Name: claims.Name,
		Role: role,
	}, nil
}

func (a *Authenticator) parseToken(tokenString string) (*authClaims, error) {
	if a.cfg.Secret == "" {
		return nil, fmt.Errorf("authentication is not configured")
	}

	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return []byte(a.cfg.Secret), nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid access token")
	}

	if a.cfg.Issuer != "" && claims.Issuer != a.cfg.Issuer {
		return nil, fmt.Errorf("invalid token issuer")
	}
	if a.cfg.Audience != "" && !containsAudience(claims.Audience, a.cfg.Audience) {
		return nil, fmt.Errorf("invalid token audience")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return claims, nil
}

func containsAudience(audience jwt.ClaimStrings, target string) bool {
	for _, a := range audience {
		if a == target {
			return true
		}
	}
	return false
}
