package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/ledger"
	"github.com/dmitrijs2005/cryptoex/internal/server/present"
	"github.com/dmitrijs2005/cryptoex/internal/wire"
	"github.com/go-chi/chi/v5"
)

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var in wire.Credentials
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	pair, err := s.svc.Sessions.SignUp(r.Context(), in.Email, in.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, present.Tokens(pair))
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var in wire.Credentials
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	pair, err := s.svc.Sessions.SignIn(r.Context(), in.Email, in.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, present.Tokens(pair))
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var in wire.RefreshRequest
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	pair, err := s.svc.Sessions.RefreshToken(r.Context(), in.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, present.Tokens(pair))
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Sessions.SignOut(r.Context(), principalFrom(r.Context()).UserID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, present.Session(principalFrom(r.Context())))
}

func (s *Server) verifyPin(w http.ResponseWriter, r *http.Request) {
	var in wire.PinRequest
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	pair, err := s.svc.Sessions.VerifyPin(r.Context(), principalFrom(r.Context()), in.Pin)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, present.Tokens(pair))
}

func (s *Server) market(w http.ResponseWriter, r *http.Request) {
	set, err := s.svc.Markets.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, present.Market(set))
}

func (s *Server) refreshMarket(w http.ResponseWriter, r *http.Request) {
	set, err := s.svc.Markets.Refresh(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, present.Market(set))
}

func (s *Server) portfolio(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Ledger.Portfolio(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, present.Portfolio(p))
}

func (s *Server) wallets(w http.ResponseWriter, r *http.Request) {
	ws, err := s.svc.Ledger.Wallets(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, present.Wallets(ws))
}

func (s *Server) walletAction(w http.ResponseWriter, r *http.Request) {
	var kind ledger.Kind
	switch chi.URLParam(r, "action") {
	case "deposit":
		kind = ledger.Deposit
	case "withdraw":
		kind = ledger.Withdraw
	default:
		writeJSON(w, http.StatusNotFound, wire.Error{Error: "endpoint not found"})
		return
	}

	var in wire.ActionRequest
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.apply(w, r, kind, chi.URLParam(r, "coin"), in.Amount)
}

func (s *Server) trade(w http.ResponseWriter, r *http.Request) {
	var in wire.ActionRequest
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	kind, err := ledger.ParseKind(in.Side)
	if err == nil && !kind.Trade() {
		err = fmt.Errorf("%w: side must be buy or sell", common.ErrorValidation)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.apply(w, r, kind, in.Coin, in.Amount)
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, kind ledger.Kind, coin, rawAmount string) {
	amount, err := ledger.ParseAmount(rawAmount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Ledger.Apply(r.Context(), principalFrom(r.Context()).UserID, kind, coin, amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, present.Result(res))
}

func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: limit must be an integer", common.ErrorValidation))
			return
		}
		limit = n
	}
	txs, err := s.svc.Ledger.History(r.Context(), principalFrom(r.Context()).UserID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, present.History(txs))
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Profiles.Get(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, present.Profile(p))
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in wire.DisplayNameRequest
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	userID := principalFrom(r.Context()).UserID
	if err := s.svc.Profiles.UpdateDisplayName(r.Context(), userID, in.DisplayName); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.profile(w, r)
}

func (s *Server) changePin(w http.ResponseWriter, r *http.Request) {
	var in wire.ChangePinRequest
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Profiles.ChangePin(r.Context(), principalFrom(r.Context()).UserID, in.Current, in.New, in.Confirm); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportStatement(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Statements.Export(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, present.Statement(st))
}
