// Package ledgertest provides an in-process Solana JSON-RPC stand-in that
// understands the handful of methods the ledger client uses.
package ledgertest

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Transfer is a decoded system-program transfer received by the server.
type Transfer struct {
	Signature solana.Signature
	From      solana.PublicKey
	To        solana.PublicKey
	Lamports  uint64
	Blockhash solana.Hash
}

// Server records every submitted transfer and can inject failures.
type Server struct {
	URL string

	mu           sync.Mutex
	slot         uint64
	balance      uint64
	transfers    []Transfer
	sendCalls    int
	blockhashErr string
	sendErr      string
	delay        time.Duration
}

// NewServer starts the fake RPC and registers cleanup on t.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{balance: 5 * 1_000_000_000}
	srv := httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(srv.Close)
	s.URL = srv.URL
	return s
}

// FailBlockhash makes getLatestBlockhash return an RPC error (empty clears).
func (s *Server) FailBlockhash(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockhashErr = msg
}

// FailSend makes sendTransaction return an RPC error (empty clears).
func (s *Server) FailSend(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = msg
}

// SetDelay delays every response, for timeout tests.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// SetBalance sets the value returned by getBalance.
func (s *Server) SetBalance(lamports uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = lamports
}

// Transfers returns a copy of every accepted transfer.
func (s *Server) Transfers() []Transfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Transfer, len(s.transfers))
	copy(out, s.transfers)
	return out
}

// SendCalls counts sendTransaction calls, including rejected ones.
func (s *Server) SendCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendCalls
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	delay := s.delay
	s.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	var (
		result any
		rerr   *rpcError
	)
	switch req.Method {
	case "getLatestBlockhash":
		result, rerr = s.latestBlockhash()
	case "sendTransaction":
		result, rerr = s.sendTransaction(req.Params)
	case "getBalance":
		result = s.getBalance()
	default:
		rerr = &rpcError{Code: -32601, Message: "Method not found"}
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if rerr != nil {
		resp["error"] = rerr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}

func (s *Server) latestBlockhash() (any, *rpcError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blockhashErr != "" {
		return nil, &rpcError{Code: -32005, Message: s.blockhashErr}
	}
	// A fresh hash per call keeps signatures of identical transfers distinct.
	s.slot++
	var h solana.Hash
	binary.LittleEndian.PutUint64(h[:], s.slot)
	h[31] = 0xAB
	return map[string]any{
		"context": map[string]any{"slot": s.slot},
		"value": map[string]any{
			"blockhash":            h.String(),
			"lastValidBlockHeight": s.slot + 150,
		},
	}, nil
}

func (s *Server) getBalance() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{
		"context": map[string]any{"slot": s.slot},
		"value":   s.balance,
	}
}

func (s *Server) sendTransaction(params []json.RawMessage) (any, *rpcError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendCalls++

	if s.sendErr != "" {
		return nil, &rpcError{Code: -32002, Message: s.sendErr}
	}
	if len(params) == 0 {
		return nil, &rpcError{Code: -32602, Message: "missing transaction"}
	}
	var encoded string
	if err := json.Unmarshal(params[0], &encoded); err != nil {
		return nil, &rpcError{Code: -32602, Message: "invalid transaction param"}
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &rpcError{Code: -32602, Message: "invalid base64"}
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, &rpcError{Code: -32602, Message: "failed to deserialize transaction"}
	}
	if err := tx.VerifySignatures(); err != nil {
		return nil, &rpcError{Code: -32003, Message: "Transaction signature verification failure"}
	}

	t, ok := decodeTransfer(tx)
	if !ok {
		return nil, &rpcError{Code: -32002, Message: "Transaction simulation failed: not a system transfer"}
	}
	s.transfers = append(s.transfers, t)
	return t.Signature.String(), nil
}

// decodeTransfer extracts the single system transfer the ledger client builds.
func decodeTransfer(tx *solana.Transaction) (Transfer, bool) {
	msg := tx.Message
	if len(msg.Instructions) != 1 || len(tx.Signatures) == 0 {
		return Transfer{}, false
	}
	ix := msg.Instructions[0]
	if int(ix.ProgramIDIndex) >= len(msg.AccountKeys) || !msg.AccountKeys[ix.ProgramIDIndex].Equals(solana.SystemProgramID) {
		return Transfer{}, false
	}
	// System transfer layout: u32 instruction index (2) followed by u64 lamports.
	if len(ix.Data) != 12 || binary.LittleEndian.Uint32(ix.Data[:4]) != 2 || len(ix.Accounts) != 2 {
		return Transfer{}, false
	}
	return Transfer{
		Signature: tx.Signatures[0],
		From:      msg.AccountKeys[ix.Accounts[0]],
		To:        msg.AccountKeys[ix.Accounts[1]],
		Lamports:  binary.LittleEndian.Uint64(ix.Data[4:]),
		Blockhash: msg.RecentBlockhash,
	}, true
}
