package api

import (
	"github.com/fadedpez/playtimeshop/pkg/entities"
)

type purchaseRequest struct {
	Offer string `json:"offer" validate:"required"`
}

type balanceResponse struct {
	PlayerID string `json:"playerId"`
	Balance  int64  `json:"balance"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// Set when a reward was granted but the debit could not be saved
	Result *entities.PurchaseResult `json:"result,omitempty"`
}

type rateResponse struct {
	PointsPerPeriod string  `json:"pointsPerPeriod"`
	PeriodMinutes   float64 `json:"periodMinutes"`
	Description     string  `json:"description"`
}

type offerResponse struct {
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int64  `json:"cost"`
	Quantity    int    `json:"quantity"`
	ItemID      int    `json:"itemId,omitempty"`
	StatKind    string `json:"statKind,omitempty"`
	MaxStat     int    `json:"maxStat,omitempty"`
}

type catalogResponse struct {
	Rate   rateResponse    `json:"rate"`
	Offers []offerResponse `json:"offers"`
}

func toRateResponse(rate entities.RewardRate) rateResponse {
	return rateResponse{
		PointsPerPeriod: rate.PointsPerPeriod.String(),
		PeriodMinutes:   rate.PeriodLength.Minutes(),
		Description:     rate.String(),
	}
}

func toOfferResponse(offer entities.Offer) offerResponse {
	resp := offerResponse{
		Kind:        string(offer.Kind),
		Name:        offer.Name,
		Description: offer.Description,
		Cost:        offer.Cost,
		Quantity:    offer.Quantity,
	}
	if offer.Item != nil {
		resp.ItemID = offer.Item.ItemID
	}
	if offer.Stat != nil {
		resp.StatKind = string(offer.Stat.Kind)
		resp.MaxStat = offer.Stat.MaxStat
	}
	return resp
}
