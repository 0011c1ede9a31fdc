package api

import "github.com/gorilla/mux"

// RegisterRoutes sets up all the HTTP routes for the accounting API.
func RegisterRoutes(r *mux.Router, h *Handler) {
	// Purchases and settlement.
	r.HandleFunc("/orders", h.CreateOrder).Methods("POST")
	r.HandleFunc("/orders/{id:[0-9]+}", h.GetOrder).Methods("GET")
	r.HandleFunc("/nodes/{id:[0-9]+}/settle", h.Settle).Methods("POST")

	// Tree and ledger queries.
	r.HandleFunc("/nodes/{id:[0-9]+}", h.GetNode).Methods("GET")
	r.HandleFunc("/nodes/{id:[0-9]+}/path", h.GetNodePath).Methods("GET")
	r.HandleFunc("/nodes/address/{addr}", h.GetNodeByAddr).Methods("GET")
	r.HandleFunc("/sellers/address/{addr}", h.GetSellerByAddr).Methods("GET")

	// Payouts.
	r.HandleFunc("/withdrawals", h.Withdraw).Methods("POST")
	r.HandleFunc("/claims/buyer", h.ClaimBuyer).Methods("POST")
	r.HandleFunc("/claims/seller", h.ClaimSeller).Methods("POST")
	r.HandleFunc("/claims/networker", h.ClaimNetworker).Methods("POST")
	r.HandleFunc("/claims/networker/accrued", h.ClaimAccrued).Methods("POST")
	r.HandleFunc("/claims/bonus", h.ClaimBonus).Methods("POST")

	// Weekly emission.
	r.HandleFunc("/emission", h.GetEmission).Methods("GET")
	r.HandleFunc("/emission/run", h.RunEmission).Methods("POST")

	// Operator surface.
	r.HandleFunc("/params", h.GetParams).Methods("GET")
	r.HandleFunc("/params", h.SetParams).Methods("PUT")
	r.HandleFunc("/mode", h.GetMode).Methods("GET")
	r.HandleFunc("/stats/daily/{day:[0-9]+}", h.GetDailyStats).Methods("GET")
	r.HandleFunc("/stats/weekly/{week:[0-9]+}", h.GetWeeklyStats).Methods("GET")
	r.HandleFunc("/migration", h.Migrate).Methods("POST")
}
