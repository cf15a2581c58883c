package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fadedpez/playtimeshop/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds purchase request bodies
const maxBodyBytes = 4 << 10

var validate = validator.New()

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if err := s.shop.OnConnect(r.Context(), chi.URLParam(r, "playerID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	balance, err := s.shop.OnDisconnect(r.Context(), playerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{PlayerID: playerID, Balance: balance})
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	balance, err := s.shop.ShowPoints(r.Context(), playerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{PlayerID: playerID, Balance: balance})
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, types.WrapError(types.ErrInvalidArgument, "request body must be JSON like {\"offer\":\"neo\"}", err))
		return
	}
	if err := validate.Struct(req); err != nil {
		s.writeError(w, types.WrapError(types.ErrInvalidArgument, "offer is required", err))
		return
	}

	result, err := s.shop.Buy(r.Context(), chi.URLParam(r, "playerID"), req.Offer)
	if err != nil {
		if result.IsGranted() {
			s.logger.Error("[API] Purchase %s granted but not saved: %v", result.AttemptID, err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Code:    string(types.ErrPersistenceFailure),
				Message: "reward granted but the debit could not be saved",
				Result:  &result,
			})
			return
		}
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	offers := s.shop.Catalog().Offers()

	resp := catalogResponse{
		Rate:   toRateResponse(s.shop.Rate()),
		Offers: make([]offerResponse, 0, len(offers)),
	}
	for _, offer := range offers {
		resp.Offers = append(resp.Offers, toOfferResponse(offer))
	}
	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps a ShopError code to an HTTP status
func statusFor(code types.ErrorCode) int {
	switch code {
	case types.ErrInvalidArgument, types.ErrInvalidCommand:
		return http.StatusBadRequest
	case types.ErrOfferNotFound, types.ErrLedgerNotFound:
		return http.StatusNotFound
	case types.ErrPlayerOffline:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"code","message"}. Only ShopError messages are
// exposed to the caller.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var shopErr *types.ShopError
	if !errors.As(err, &shopErr) {
		s.logger.Error("[API] Unexpected error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:    string(types.ErrInternalError),
			Message: "internal error",
		})
		return
	}

	status := statusFor(shopErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.LogError(err)
	}
	writeJSON(w, status, errorResponse{Code: string(shopErr.Code), Message: shopErr.Message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
