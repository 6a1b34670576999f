package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/neodaoist/v3/auction"
	"github.com/neodaoist/v3/crypto"
	"github.com/neodaoist/v3/metrics"
	"github.com/neodaoist/v3/services"

	"github.com/go-chi/chi/v5"
)

// accountHeader carries the acting account identity. Authentication of the
// identity happens in the command surface in front of this server.
const accountHeader = "X-Account"

// AuctionHandler registers the auction engine operations as HTTP routes.
type AuctionHandler struct {
	engine  *auction.Engine
	events  services.EventStore
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewAuctionHandler creates the route handler for an engine. The event
// store and metrics may be nil.
func NewAuctionHandler(engine *auction.Engine, events services.EventStore, m *metrics.Metrics, log *slog.Logger) *AuctionHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuctionHandler{engine: engine, events: events, metrics: m, log: log}
}

// RegisterRoutes registers the auction routes.
func (h *AuctionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auctions/{collection}", h.handleCreateAuction)
	r.Delete("/auctions/{collection}", h.handleCancelAuction)
	r.Get("/auctions/{collection}", h.handleGetAuction)
	r.Get("/auctions/{collection}/events", h.handleListEvents)
	r.Post("/auctions/{collection}/bids", h.handlePlaceBid)
	r.Post("/auctions/{collection}/reveals", h.handleRevealBid)
	r.Get("/auctions/{collection}/settle-options", h.handleSettleOptions)
	r.Post("/auctions/{collection}/settle", h.handleSettleAuction)
	r.Get("/auctions/{collection}/refund", h.handleCheckRefund)
	r.Post("/auctions/{collection}/refund", h.handleClaimRefund)
}

// CreateAuctionRequest opens an auction. Durations are nanoseconds, Go's
// native time.Duration encoding.
type CreateAuctionRequest struct {
	Seller           auction.Account `json:"seller"`
	MinViableRevenue uint64          `json:"min_viable_revenue"`
	FundsRecipient   auction.Account `json:"funds_recipient"`
	StartTime        time.Time       `json:"start_time"`
	BidDuration      time.Duration   `json:"bid_duration"`
	RevealDuration   time.Duration   `json:"reveal_duration"`
	SettleDuration   time.Duration   `json:"settle_duration"`
}

// PlaceBidRequest escrows a payment under a hex-encoded commitment.
type PlaceBidRequest struct {
	Commitment string `json:"commitment"`
	Payment    uint64 `json:"payment"`
}

// RevealBidRequest opens a commitment. Salt is base64, Go's native []byte
// encoding.
type RevealBidRequest struct {
	Amount uint64 `json:"amount"`
	Salt   []byte `json:"salt"`
}

// SettleRequest clears the auction at the chosen price point.
type SettleRequest struct {
	PricePoint uint64 `json:"price_point"`
}

// RefundResponse reports a refundable or refunded balance.
type RefundResponse struct {
	Collection auction.Collection `json:"collection"`
	Account    auction.Account    `json:"account"`
	Amount     uint64             `json:"amount"`
}

func (h *AuctionHandler) handleCreateAuction(w http.ResponseWriter, r *http.Request) {
	collection := auction.Collection(chi.URLParam(r, "collection"))

	var req CreateAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	seller := req.Seller
	if seller == "" {
		seller = h.account(r)
	}
	if seller == "" {
		http.Error(w, "seller account required", http.StatusBadRequest)
		return
	}

	a, err := h.engine.CreateAuction(r.Context(), collection, seller,
		req.MinViableRevenue, req.FundsRecipient, req.StartTime,
		req.BidDuration, req.RevealDuration, req.SettleDuration)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.count(func(m *metrics.Metrics) { m.AuctionsCreated.Inc() })
	h.writeJSON(w, a)
}

func (h *AuctionHandler) handleCancelAuction(w http.ResponseWriter, r *http.Request) {
	collection := auction.Collection(chi.URLParam(r, "collection"))
	caller := h.account(r)
	if caller == "" {
		http.Error(w, "account header required", http.StatusBadRequest)
		return
	}

	if err := h.engine.CancelAuction(r.Context(), collection, caller); err != nil {
		h.writeError(w, err)
		return
	}

	h.count(func(m *metrics.Metrics) { m.AuctionsCanceled.Inc() })
	w.WriteHeader(http.StatusOK)
}

func (h *AuctionHandler) handleGetAuction(w http.ResponseWriter, r *http.Request) {
	collection := auction.Collection(chi.URLParam(r, "collection"))

	a, err := h.engine.GetAuction(collection)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, a)
}

func (h *AuctionHandler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		http.Error(w, "event history not configured", http.StatusNotFound)
		return
	}
	collection := auction.Collection(chi.URLParam(r, "collection"))

	events, err := h.events.ListByCollection(r.Context(), collection)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, events)
}

func (h *AuctionHandler) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	collection := auction.Collection(chi.URLParam(r, "collection"))
	bidder := h.account(r)
	if bidder == "" {
		http.Error(w, "account header required", http.StatusBadRequest)
		return
	}

	var req PlaceBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	commitment, err := crypto.NewCommitmentFromString(req.Commitment)
	if err != nil {
		http.Error(w, "invalid commitment", http.StatusBadRequest)
		return
	}

	bid, err := h.engine.PlaceBid(r.Context(), collection, bidder, commitment, req.Payment)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.count(func(m *metrics.Metrics) { m.BidsPlaced.Inc() })
	h.writeJSON(w, bid)
}

func (h *AuctionHandler) handleRevealBid(w http.ResponseWriter, r *http.Request) {
	collection := auction.Collection(chi.URLParam(r, "collection"))
	bidder := h.account(r)
	if bidder == "" {
		http.Error(w, "account header required", http.StatusBadRequest)
		return
	}

	var req RevealBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bid, err := h.engine.RevealBid(r.Context(), collection, bidder, req.Amount, req.Salt)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.count(func(m *metrics.Metrics) { m.BidsRevealed.Inc() })
	h.writeJSON(w, bid)
}

func (h *AuctionHandler) handleSettleOptions(w http.ResponseWriter, r *http.Request) {
	collection := auction.Collection(chi.URLParam(r, "collection"))

	options, err := h.engine.CalculateSettleOptions(collection)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, options)
}

func (h *AuctionHandler) handleSettleAuction(w http.ResponseWriter, r *http.Request) {
	collection := auction.Collection(chi.URLParam(r, "collection"))

	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a, err := h.engine.SettleAuction(r.Context(), collection, req.PricePoint)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.count(func(m *metrics.Metrics) { m.Settlements.Inc() })
	h.writeJSON(w, a)
}

func (h *AuctionHandler) handleCheckRefund(w http.ResponseWriter, r *http.Request) {
	collection := auction.Collection(chi.URLParam(r, "collection"))
	caller := h.account(r)
	if caller == "" {
		http.Error(w, "account header required", http.StatusBadRequest)
		return
	}

	balance, err := h.engine.CheckAvailableRefund(collection, caller)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, &RefundResponse{Collection: collection, Account: caller, Amount: balance})
}

func (h *AuctionHandler) handleClaimRefund(w http.ResponseWriter, r *http.Request) {
	collection := auction.Collection(chi.URLParam(r, "collection"))
	caller := h.account(r)
	if caller == "" {
		http.Error(w, "account header required", http.StatusBadRequest)
		return
	}

	amount, err := h.engine.ClaimRefund(r.Context(), collection, caller)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.count(func(m *metrics.Metrics) { m.RefundsClaimed.Inc() })
	h.writeJSON(w, &RefundResponse{Collection: collection, Account: caller, Amount: amount})
}

func (h *AuctionHandler) account(r *http.Request) auction.Account {
	return auction.Account(r.Header.Get(accountHeader))
}

func (h *AuctionHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode response", "err", err)
	}
}

// writeError maps engine error kinds onto HTTP status codes.
func (h *AuctionHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, auction.ErrAuctionNotFound), errors.Is(err, auction.ErrNoBid):
		status = http.StatusNotFound
	default:
		switch auction.KindOf(err) {
		case auction.KindValidation:
			status = http.StatusBadRequest
		case auction.KindState:
			status = http.StatusConflict
		case auction.KindIntegrity:
			status = http.StatusUnprocessableEntity
		case auction.KindAuthorization:
			status = http.StatusForbidden
		case auction.KindExternal:
			status = http.StatusBadGateway
			h.count(func(m *metrics.Metrics) { m.ExternalFailures.Inc() })
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"kind":  auction.KindOf(err).String(),
		"code":  strconv.Itoa(status),
	})
}

// count increments a metric when metrics are configured.
func (h *AuctionHandler) count(fn func(*metrics.Metrics)) {
	if h.metrics != nil {
		fn(h.metrics)
	}
}
