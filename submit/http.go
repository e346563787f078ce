// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package submit

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luxfi/burnbid/auction"
	"github.com/luxfi/burnbid/chain"
	"github.com/luxfi/burnbid/groth16"
)

const maxRequestBody = 64 << 10

// AuctionView is the JSON form of an auction.
type AuctionView struct {
	Address               string         `json:"address"`
	AuctionID             string         `json:"auctionId"`
	CeremonyID            string         `json:"ceremonyId"`
	BiddingDeadline       uint64         `json:"biddingDeadline"`
	BidSubmissionDeadline uint64         `json:"bidSubmissionDeadline"`
	ResultDeadline        uint64         `json:"resultDeadline"`
	Status                auction.Status `json:"status"`
	Complete              bool           `json:"complete"`
}

func viewOf(c auction.Context, now time.Time) AuctionView {
	ceremony := "0"
	if c.CeremonyID != nil {
		ceremony = c.CeremonyID.String()
	}
	return AuctionView{
		Address:               strings.ToLower(c.Address.Hex()),
		AuctionID:             c.AuctionID(),
		CeremonyID:            ceremony,
		BiddingDeadline:       c.BiddingDeadline,
		BidSubmissionDeadline: c.BidSubmissionDeadline,
		ResultDeadline:        c.ResultDeadline,
		Status:                c.StatusAt(now),
		Complete:              c.Known(),
	}
}

// API serves the submission endpoint and the auction queries.
type API struct {
	service   *Service
	reader    *auction.Reader
	discovery auction.Discovery
	gatherer  prometheus.Gatherer
	now       func() time.Time
	log       log.Logger
}

// NewAPI returns the HTTP API. gatherer may be nil to omit /metrics.
func NewAPI(service *Service, reader *auction.Reader, discovery auction.Discovery, gatherer prometheus.Gatherer, logger log.Logger) *API {
	return &API{
		service:   service,
		reader:    reader,
		discovery: discovery,
		gatherer:  gatherer,
		now:       service.cfg.Now,
		log:       logger,
	}
}

func (a *API) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Post("/api/submit-proof", a.handleSubmitProof)
	r.Get("/api/auctions", a.handleListAuctions)
	r.Get("/api/auctions/{address}", a.handleGetAuction)
	r.Get("/api/submissions", a.handleListSubmissions)
	if a.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	}
}

// Handler returns a router with every route registered.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	a.RegisterRoutes(r)
	return r
}

func (a *API) handleSubmitProof(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: "invalid JSON body: " + err.Error()})
		return
	}

	resp, err := a.service.submit(r.Context(), req)
	if err != nil {
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			a.log.Warn("Proof submission failed",
				log.String("burnTx", req.BurnTxHash),
				log.String("error", err.Error()),
			)
		}
		writeJSON(w, status, Response{Error: err.Error(), Simulated: a.service.cfg.Simulated})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleListAuctions(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	auctions := a.reader.ListDeployed(r.Context(), a.discovery)
	out := make([]AuctionView, len(auctions))
	for i, c := range auctions {
		out[i] = viewOf(c, now)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleGetAuction(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "address")
	if !common.IsHexAddress(addr) {
		http.Error(w, "invalid auction address", http.StatusBadRequest)
		return
	}
	c := a.reader.Context(r.Context(), common.HexToAddress(addr))
	if !c.Resolved() {
		http.Error(w, "auction not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c, a.now()))
}

func (a *API) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	records, err := a.service.Records()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func statusOf(err error) int {
	var txErr *chain.TxError
	switch {
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, groth16.ErrMalformedProof),
		errors.Is(err, groth16.ErrInvalidPublicSignalCount):
		return http.StatusBadRequest
	case errors.Is(err, ErrInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrBurnNotFound),
		errors.Is(err, ErrBurnFailed),
		errors.Is(err, groth16.ErrInvalidProof),
		errors.As(err, &txErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chain.ErrConfirmationTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
