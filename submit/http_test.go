// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package submit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/burnbid/auction"
)

func (e *env) api() http.Handler {
	logger := log.NewTestLogger(log.InfoLevel)
	reader := auction.NewReader(e.backend, logger)
	discovery := auction.Discovery{Known: []common.Address{e.auction}}
	return NewAPI(e.service, reader, discovery, e.registry, logger).Handler()
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHandleSubmitProof(t *testing.T) {
	require := require.New(t)
	e := newEnv(t, nil)
	h := e.api()

	w := postJSON(t, h, "/api/submit-proof", e.request(e.burn(t)))
	require.Equal(http.StatusOK, w.Code)
	require.Equal("application/json", w.Header().Get("Content-Type"))

	var resp Response
	require.NoError(json.NewDecoder(w.Body).Decode(&resp))
	require.True(resp.Success)
	require.Equal(MessageSubmitted, resp.Message)
	require.NotNil(resp.ProofData)

	w = get(h, "/api/submissions")
	require.Equal(http.StatusOK, w.Code)
	var records []Record
	require.NoError(json.NewDecoder(w.Body).Decode(&records))
	require.Len(records, 1)
	require.Equal(resp.TransactionHash, records[0].TxHash.Hex())
}

func TestHandleSubmitProofErrors(t *testing.T) {
	e := newEnv(t, nil)
	h := e.api()
	burnTx := e.burn(t)

	// Spend the nullifier so the next burn's submission reverts.
	require.True(t, e.service.Submit(t.Context(), e.request(burnTx)).Success)
	reused := e.request(e.burn(t))

	missing := e.request(burnTx)
	missing.WalletAddress = ""
	unknownBurn := e.request(common.HexToHash("0xdead"))

	tests := []struct {
		name string
		body interface{}
		code int
		want string
	}{
		{"missing fields", missing, http.StatusBadRequest, ErrMissingFields.Error()},
		{"not an object", []int{1, 2}, http.StatusBadRequest, "invalid JSON body"},
		{"unknown burn", unknownBurn, http.StatusUnprocessableEntity, ErrBurnNotFound.Error()},
		{"nullifier reuse", reused, http.StatusUnprocessableEntity, "InvalidProof"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h, "/api/submit-proof", tt.body)
			require.Equal(t, tt.code, w.Code)
			var resp Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			require.False(t, resp.Success)
			require.Contains(t, resp.Error, tt.want)
		})
	}
}

func TestHandleAuctions(t *testing.T) {
	require := require.New(t)
	e := newEnv(t, nil)
	h := e.api()

	w := get(h, "/api/auctions")
	require.Equal(http.StatusOK, w.Code)
	var views []AuctionView
	require.NoError(json.NewDecoder(w.Body).Decode(&views))
	require.Len(views, 1)
	addr := strings.ToLower(e.auction.Hex())
	require.Equal(addr, views[0].Address)
	require.Equal(addr+"_1", views[0].AuctionID)
	require.Equal("1", views[0].CeremonyID)
	require.Equal(auction.StatusBiddingOpen, views[0].Status)
	require.True(views[0].Complete)

	w = get(h, "/api/auctions/"+e.auction.Hex())
	require.Equal(http.StatusOK, w.Code)
	var view AuctionView
	require.NoError(json.NewDecoder(w.Body).Decode(&view))
	require.Equal(views[0], view)

	w = get(h, "/api/auctions/0x1234")
	require.Equal(http.StatusBadRequest, w.Code)

	w = get(h, "/api/auctions/0x2222222222222222222222222222222222222222")
	require.Equal(http.StatusNotFound, w.Code)
}

func TestHandleHealthAndMetrics(t *testing.T) {
	require := require.New(t)
	e := newEnv(t, nil)
	h := e.api()

	w := get(h, "/health")
	require.Equal(http.StatusOK, w.Code)
	require.Equal("ok", w.Body.String())

	postJSON(t, h, "/api/submit-proof", e.request(e.burn(t)))
	w = get(h, "/metrics")
	require.Equal(http.StatusOK, w.Code)
	require.Contains(w.Body.String(), `burnbid_submissions_total{outcome="submitted"} 1`)
	require.Contains(w.Body.String(), "burnbid_submission_duration_seconds_count 1")
}

func TestStatusOf(t *testing.T) {
	require.Equal(t, http.StatusConflict, statusOf(ErrInProgress))
	require.Equal(t, http.StatusInternalServerError, statusOf(ErrProofUnavailable))
}
