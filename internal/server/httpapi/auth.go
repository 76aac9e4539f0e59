package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/server/auth"
	"github.com/dmitrijs2005/cryptoex/internal/session"
)

type ctxKey string

const principalKey ctxKey = "principal"

func principalFrom(ctx context.Context) auth.Principal {
	p, _ := ctx.Value(principalKey).(auth.Principal)
	return p
}

// bearerToken reads "Authorization: Bearer <token>". Websocket clients in
// browsers cannot set headers, so the access_token query parameter is
// accepted as well.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get(common.AccessTokenHeaderName)
}

func (s *Server) authenticate(r *http.Request) (auth.Principal, error) {
	token := bearerToken(r)
	if token == "" {
		return auth.Principal{}, common.ErrInvalidToken
	}
	p, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return auth.Principal{}, err
	}
	if err := s.svc.Sessions.Authorize(r.Context(), p); err != nil {
		return auth.Principal{}, err
	}
	return p, nil
}

// requireToken admits any signed-in caller.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.authenticate(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	})
}

// requireScreen admits callers whose session may render screen.
func (s *Server) requireScreen(screen session.Screen) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := s.authenticate(r)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			switch session.Route(session.Status{State: p.State}, screen) {
			case session.Render:
			case session.RedirectPin:
				s.writeError(w, r, common.ErrorPinRequired)
				return
			case session.RedirectDashboard:
				s.writeError(w, r, common.ErrorAlreadyVerified)
				return
			default:
				s.writeError(w, r, common.ErrorUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
		})
	}
}
