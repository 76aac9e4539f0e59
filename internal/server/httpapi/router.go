package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/session"
	"github.com/dmitrijs2005/cryptoex/internal/wire"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, wire.Status{Status: "OK"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", s.signUp)
		r.Post("/auth/signin", s.signIn)
		r.Post("/auth/refresh", s.refresh)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Post("/auth/signout", s.signOut)
			r.Get("/session", s.session)
		})

		r.With(s.requireScreen(session.ScreenPin)).Post("/session/pin", s.verifyPin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireScreen(session.ScreenMarket))
			r.Get("/market", s.market)
			r.Post("/market/refresh", s.refreshMarket)
			r.Get("/market/stream", s.marketStream)
			r.Post("/trades", s.trade)
		})

		r.With(s.requireScreen(session.ScreenDashboard)).Get("/portfolio", s.portfolio)

		r.Group(func(r chi.Router) {
			r.Use(s.requireScreen(session.ScreenWallet))
			r.Get("/wallets", s.wallets)
			r.Post("/wallets/{coin}/{action}", s.walletAction)
			r.Get("/transactions", s.transactions)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireScreen(session.ScreenSettings))
			r.Get("/profile", s.profile)
			r.Patch("/profile", s.updateProfile)
			r.Post("/profile/pin", s.changePin)
			r.Post("/statements", s.exportStatement)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, wire.Error{Error: "endpoint not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, wire.Error{Error: "method not allowed"})
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			s.logger.Debug(r.Context(), "http request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
