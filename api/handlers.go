// Package api exposes the accounting core over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/fash-ns/arandao-go/bonus"
	"github.com/fash-ns/arandao-go/core"
	"github.com/fash-ns/arandao-go/emission"
	"github.com/fash-ns/arandao-go/engine"
	"github.com/fash-ns/arandao-go/ledger"
	"github.com/fash-ns/arandao-go/tree"
)

// Handler contains the HTTP handlers for the accounting API.
type Handler struct {
	core *core.Core
	log  *zap.Logger
}

// NewHandler creates a handler over the core.
func NewHandler(c *core.Core, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{core: c, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps domain errors onto HTTP statuses.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, ledger.ErrNodeNotFound),
		errors.Is(err, ledger.ErrSellerNotFound),
		errors.Is(err, ledger.ErrOrderNotFound),
		errors.Is(err, tree.ErrNodeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrOrderReplayed),
		errors.Is(err, tree.ErrPositionOccupied),
		errors.Is(err, core.ErrAlreadyClaimed),
		errors.Is(err, emission.ErrAlreadyMinted),
		errors.Is(err, bonus.ErrAlreadySubmitted):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
		return false
	}
	return true
}

func pathUint(r *http.Request, name string) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)[name], 10, 64)
}

// CreateOrder handles POST /orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BuyerAddr  string           `json:"buyer_address"`
		ParentAddr string           `json:"parent_address"`
		Position   uint8            `json:"position"`
		Lines      []core.OrderLine `json:"lines"`
		TotalValue uint64           `json:"total_value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	ids, err := h.core.CreateOrder(req.BuyerAddr, req.ParentAddr, req.Position, req.Lines, req.TotalValue)
	if err != nil {
		h.log.Warn("create order rejected", zap.String("buyer", req.BuyerAddr), zap.Error(err))
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"order_ids": ids})
}

// Settle handles POST /nodes/{id}/settle.
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	var req struct {
		OrderIDs []uint64 `json:"order_ids"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.core.Settle(id, req.OrderIDs); err != nil {
		h.log.Warn("settlement rejected", zap.Uint64("node", id), zap.Error(err))
		writeErr(w, err)
		return
	}
	node, err := h.core.NodeByID(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// Withdraw handles POST /withdrawals.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Addr   string `json:"address"`
		Amount uint64 `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.core.WithdrawCommission(req.Addr, req.Amount); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

// RunEmission handles POST /emission/run.
func (h *Handler) RunEmission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Week uint64 `json:"week"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	plan, err := h.core.RunEmission(req.Week)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

type claimRequest struct {
	Addr string `json:"address"`
	Week uint64 `json:"week"`
}

// ClaimBuyer handles POST /claims/buyer.
func (h *Handler) ClaimBuyer(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := h.core.ClaimBuyerShare(req.Addr, req.Week)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"amount": amount})
}

// ClaimSeller handles POST /claims/seller.
func (h *Handler) ClaimSeller(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := h.core.ClaimSellerShare(req.Addr, req.Week)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"amount": amount})
}

// ClaimNetworker handles POST /claims/networker.
func (h *Handler) ClaimNetworker(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	immediate, accrued, err := h.core.ClaimNetworkerShare(req.Addr, req.Week)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"immediate": immediate, "accrued": accrued})
}

// ClaimAccrued handles POST /claims/networker/accrued.
func (h *Handler) ClaimAccrued(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := h.core.ClaimAccruedNetworker(req.Addr)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"amount": amount})
}

// ClaimBonus handles POST /claims/bonus.
func (h *Handler) ClaimBonus(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := h.core.ClaimBonus(req.Addr)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"amount": amount})
}

// GetNode handles GET /nodes/{id}.
func (h *Handler) GetNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	node, err := h.core.NodeByID(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// GetNodeByAddr handles GET /nodes/address/{addr}.
func (h *Handler) GetNodeByAddr(w http.ResponseWriter, r *http.Request) {
	node, err := h.core.NodeByAddr(mux.Vars(r)["addr"])
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// GetNodePath handles GET /nodes/{id}/path.
func (h *Handler) GetNodePath(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	path, err := h.core.NodePath(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if path == nil {
		path = []uint8{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "path": path})
}

// GetSellerByAddr handles GET /sellers/address/{addr}.
func (h *Handler) GetSellerByAddr(w http.ResponseWriter, r *http.Request) {
	seller, err := h.core.SellerByAddr(mux.Vars(r)["addr"])
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seller)
}

// GetOrder handles GET /orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	order, err := h.core.OrderByID(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// GetParams handles GET /params.
func (h *Handler) GetParams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.core.Params())
}

// SetParams handles PUT /params.
func (h *Handler) SetParams(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string        `json:"caller"`
		Params engine.Params `json:"params"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.core.SetParams(req.Caller, req.Params); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.core.Params())
}

// GetMode handles GET /mode.
func (h *Handler) GetMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.core.Mode())
}

// GetDailyStats handles GET /stats/daily/{day}.
func (h *Handler) GetDailyStats(w http.ResponseWriter, r *http.Request) {
	day, err := pathUint(r, "day")
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.core.DailyStats(day))
}

// GetWeeklyStats handles GET /stats/weekly/{week}.
func (h *Handler) GetWeeklyStats(w http.ResponseWriter, r *http.Request) {
	week, err := pathUint(r, "week")
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.core.WeeklyStats(week))
}

// GetEmission handles GET /emission.
func (h *Handler) GetEmission(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.core.EmissionState())
}

// Migrate handles POST /migration.
func (h *Handler) Migrate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string              `json:"caller"`
		Batch  core.MigrationBatch `json:"batch"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.core.MigrateUsers(req.Caller, req.Batch); err != nil {
		h.log.Warn("migration rejected", zap.String("caller", req.Caller), zap.Error(err))
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"imported": len(req.Batch.Records)})
}
