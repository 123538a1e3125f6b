package rewards

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	solana "github.com/gagliardetto/solana-go"

	"github.com/0gfoundation/0g-reward-payout/internal/ledger"
)

// MaxRewardSOL caps a single payout.
const MaxRewardSOL = 0.5

// RawRequest is the undecoded body of POST /reward/send. Fields stay raw so
// that type coercion happens here rather than in the JSON decoder.
type RawRequest struct {
	ReceiverWalletAddress json.RawMessage `json:"receiver_wallet_address"`
	AmountSOL             json.RawMessage `json:"amount_sol"`
	IdempotencyKey        json.RawMessage `json:"idempotency_key"`
}

// Request is a validated payout.
type Request struct {
	Recipient        solana.PublicKey
	RecipientAddress string
	AmountSOL        float64
	Lamports         uint64
	IdempotencyKey   string
}

// HasKey reports whether the caller asked for deduplication.
func (r Request) HasKey() bool { return r.IdempotencyKey != "" }

// Validate turns a raw request into a Request or a *ValidationError. The
// amount is checked before the address is parsed.
func Validate(raw RawRequest, defaultSOL float64) (Request, error) {
	addr, present := recipientString(raw.ReceiverWalletAddress)
	if !present {
		return Request{}, invalidRecipient(ReasonMissingRecipient)
	}

	amount, verr := parseAmount(raw.AmountSOL, defaultSOL)
	if verr != nil {
		return Request{}, verr
	}

	pub, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return Request{}, invalidRecipient(ReasonInvalidRecipient)
	}

	return Request{
		Recipient:        pub,
		RecipientAddress: addr,
		AmountSOL:        amount,
		Lamports:         ledger.ToLamports(amount),
		IdempotencyKey:   coerceKey(raw.IdempotencyKey),
	}, nil
}

// CheckAmount applies the amount bounds on their own; used to vet the
// configured default at startup.
func CheckAmount(sol float64) error {
	if math.IsNaN(sol) || math.IsInf(sol, 0) {
		return invalidAmount(ReasonInvalidAmount)
	}
	if sol <= 0 || sol > MaxRewardSOL || ledger.ToLamports(sol) == 0 {
		return invalidAmount(ReasonAmountOutOfRange)
	}
	return nil
}

// truthy reports whether a JSON value counts as supplied. null, false, zero,
// "" and empty containers do not.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'n', 'f':
		return false
	case 't':
		return true
	case '"':
		var s string
		return json.Unmarshal(raw, &s) != nil || s != ""
	case '{', '[':
		c := compact(raw)
		return c != "{}" && c != "[]"
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		return err != nil || f != 0
	}
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// recipientString returns the address and whether one was supplied.
// Non-string values are passed through as their JSON text so they fail
// address parsing rather than being reported as missing.
func recipientString(raw json.RawMessage) (string, bool) {
	if !truthy(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(bytes.TrimSpace(raw)), true
	}
	return s, true
}

// parseAmount uses the default only when the field is absent. An explicit
// null is not a number; booleans count as 1 and 0.
func parseAmount(raw json.RawMessage, defaultSOL float64) (float64, *ValidationError) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return defaultSOL, checkRange(defaultSOL)
	}

	var amount float64
	switch raw[0] {
	case 'n', '{', '[':
		return 0, invalidAmount(ReasonInvalidAmount)
	case 't':
		amount = 1
	case 'f':
		amount = 0
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, invalidAmount(ReasonInvalidAmount)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, invalidAmount(ReasonInvalidAmount)
		}
		amount = f
	default:
		if err := json.Unmarshal(raw, &amount); err != nil {
			return 0, invalidAmount(ReasonInvalidAmount)
		}
	}
	return amount, checkRange(amount)
}

func checkRange(amount float64) *ValidationError {
	if err := CheckAmount(amount); err != nil {
		return err.(*ValidationError)
	}
	return nil
}

// coerceKey renders a supplied key as text: strings verbatim, true as
// "True", numbers as written and containers as compact JSON. Unsupplied
// keys yield "".
func coerceKey(raw json.RawMessage) string {
	if !truthy(raw) {
		return ""
	}
	raw = bytes.TrimSpace(raw)
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case 't':
		return "True"
	case '{', '[':
		return compact(raw)
	default:
		return string(raw)
	}
}
