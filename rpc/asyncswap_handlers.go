package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/TheOnma/async-swap-hook/core/types"
	"github.com/TheOnma/async-swap-hook/native/asyncswap"
	"github.com/TheOnma/async-swap-hook/observability/metrics"
)

const requestBodyLimit = 1 << 20 // 1 MiB

type poolKeyJSON struct {
	Currency0 string `json:"currency0"`
	Currency1 string `json:"currency1"`
	FeePips   uint32 `json:"feePips"`
}

type pendingSwapJSON struct {
	ID                string      `json:"id"`
	Owner             string      `json:"owner"`
	Pool              poolKeyJSON `json:"pool"`
	ZeroForOne        bool        `json:"zeroForOne"`
	AmountIn          string      `json:"amountIn"`
	MinAmountOut      string      `json:"minAmountOut"`
	SqrtPriceLimitX96 string      `json:"sqrtPriceLimitX96"`
	ValidAfter        int64       `json:"validAfter"`
	ValidUntil        int64       `json:"validUntil"`
	CreatedAt         int64       `json:"createdAt"`
	Executed          bool        `json:"executed"`
}

func renderPendingSwap(p *asyncswap.PendingSwap) pendingSwapJSON {
	return pendingSwapJSON{
		ID:    hex.EncodeToString(p.ID[:]),
		Owner: "0x" + hex.EncodeToString(p.Owner[:]),
		Pool: poolKeyJSON{
			Currency0: p.Pool.Currency0,
			Currency1: p.Pool.Currency1,
			FeePips:   p.Pool.FeePips,
		},
		ZeroForOne:        p.ZeroForOne,
		AmountIn:          p.AmountIn.String(),
		MinAmountOut:      p.MinAmountOut.String(),
		SqrtPriceLimitX96: p.SqrtPriceLimitX96.String(),
		ValidAfter:        p.ValidAfter,
		ValidUntil:        p.ValidUntil,
		CreatedAt:         p.CreatedAt,
		Executed:          p.Executed,
	}
}

func (s *Server) getSwap(w http.ResponseWriter, r *http.Request) {
	id, err := parseSwapID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pending, ok := s.engine.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, asyncswap.ErrSwapNotFound)
		return
	}
	writeJSON(w, http.StatusOK, renderPendingSwap(pending))
}

func (s *Server) canExecute(w http.ResponseWriter, r *http.Request) {
	id, err := parseSwapID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"canExecute": s.engine.CanExecute(id)})
}

func (s *Server) listSwaps(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	startTs, err := parseTimestamp(query.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	endTs, err := parseTimestamp(query.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
	}
	records, nextCursor, err := s.ledger.List(startTs, endTs, query.Get("cursor"), limit)
	if err != nil {
		s.log.Error("list pending swaps", "err", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("list pending swaps"))
		return
	}
	rendered := make([]pendingSwapJSON, 0, len(records))
	for _, record := range records {
		rendered = append(rendered, renderPendingSwap(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"swaps":      rendered,
		"nextCursor": nextCursor,
	})
}

type submitRequest struct {
	Sender            string      `json:"sender"`
	Pool              poolKeyJSON `json:"pool"`
	ZeroForOne        bool        `json:"zeroForOne"`
	AmountIn          string      `json:"amountIn"`
	MinAmountOut      string      `json:"minAmountOut"`
	SqrtPriceLimitX96 string      `json:"sqrtPriceLimitX96"`
}

func (s *Server) submitSwap(w http.ResponseWriter, r *http.Request) {
	if s.router == nil {
		writeError(w, http.StatusNotImplemented, fmt.Errorf("swap submission not enabled"))
		return
	}
	var req submitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sender, err := types.ParseAddress(req.Sender)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amountIn, err := parseAmount(req.AmountIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if amountIn.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("amountIn must be positive"))
		return
	}
	minAmountOut := big.NewInt(0)
	if strings.TrimSpace(req.MinAmountOut) != "" {
		if minAmountOut, err = parseAmount(req.MinAmountOut); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	priceLimit := big.NewInt(0)
	if strings.TrimSpace(req.SqrtPriceLimitX96) != "" {
		if priceLimit, err = parseAmount(req.SqrtPriceLimitX96); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	currency0, err := asyncswap.NormalizeCurrency(req.Pool.Currency0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	currency1, err := asyncswap.NormalizeCurrency(req.Pool.Currency1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	key := asyncswap.PoolKey{Currency0: currency0, Currency1: currency1, FeePips: req.Pool.FeePips}
	params := asyncswap.SwapParams{
		ZeroForOne:        req.ZeroForOne,
		AmountSpecified:   new(big.Int).Neg(amountIn),
		SqrtPriceLimitX96: priceLimit,
	}
	s.mu.Lock()
	outcome, err := s.router.SubmitSwap(sender, key, params, minAmountOut)
	s.mu.Unlock()
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	if outcome.Pending != nil {
		s.log.Info("swap intercepted",
			"id", hex.EncodeToString(outcome.Pending.ID[:]),
			"owner", req.Sender,
			"amountIn", amountIn.String(),
		)
		writeJSON(w, http.StatusAccepted, map[string]any{
			"intercepted": true,
			"swap":        renderPendingSwap(outcome.Pending),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"intercepted": false,
		"amount0":     outcome.Delta.Amount0.String(),
		"amount1":     outcome.Delta.Amount1.String(),
		"amountOut":   outcome.Delta.OutputAmount(req.ZeroForOne).String(),
	})
}

type executeRequest struct {
	Executor string `json:"executor"`
}

func (s *Server) executeSwap(w http.ResponseWriter, r *http.Request) {
	id, err := parseSwapID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req executeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	executor, err := types.ParseAddress(req.Executor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	receipt, err := s.engine.Execute(id, executor)
	s.mu.Unlock()
	if err != nil {
		metrics.AsyncSwap().ObserveExecutionError(errorReason(err))
		writeError(w, errorStatus(err), err)
		return
	}
	s.log.Info("pending swap executed",
		"id", hex.EncodeToString(id[:]),
		"executor", req.Executor,
		"amountOut", receipt.AmountOut.String(),
		"fee", receipt.Fee.String(),
	)
	writeJSON(w, http.StatusOK, map[string]string{
		"id":        hex.EncodeToString(receipt.ID[:]),
		"amountOut": receipt.AmountOut.String(),
		"fee":       receipt.Fee.String(),
	})
}

type cancelRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) cancelSwap(w http.ResponseWriter, r *http.Request) {
	id, err := parseSwapID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req cancelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := types.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = s.engine.Cancel(id, caller)
	s.mu.Unlock()
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	s.log.Info("pending swap cancelled", "id", hex.EncodeToString(id[:]))
	writeJSON(w, http.StatusOK, map[string]string{"id": hex.EncodeToString(id[:])})
}

func parseSwapID(raw string) ([32]byte, error) {
	var id [32]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return id, fmt.Errorf("invalid swap id %q: %w", raw, err)
	}
	if len(decoded) != len(id) {
		return id, fmt.Errorf("invalid swap id %q: expected %d bytes", raw, len(id))
	}
	copy(id[:], decoded)
	return id, nil
}

func parseAmount(raw string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return value, nil
}

func parseTimestamp(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}
	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid timestamp %q", raw)
	}
	return value, nil
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, requestBodyLimit))
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, asyncswap.ErrExactOutputUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, asyncswap.ErrSwapNotFound):
		return http.StatusNotFound
	case errors.Is(err, asyncswap.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, asyncswap.ErrTooEarly),
		errors.Is(err, asyncswap.ErrExpired),
		errors.Is(err, asyncswap.ErrTooSoon),
		errors.Is(err, asyncswap.ErrAlreadyFinalized),
		errors.Is(err, asyncswap.ErrSlippageExceeded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, asyncswap.ErrSwapNotFound):
		return "not_found"
	case errors.Is(err, asyncswap.ErrTooEarly):
		return "too_early"
	case errors.Is(err, asyncswap.ErrExpired):
		return "expired"
	case errors.Is(err, asyncswap.ErrSlippageExceeded):
		return "slippage"
	default:
		return "pool"
	}
}
