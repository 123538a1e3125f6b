package rewards

import (
	"encoding/json"
	"errors"
	"testing"
)

const (
	addrA = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	addrB = "So11111111111111111111111111111111111111112"

	testDefaultSOL = 0.01
)

func rawJSON(s string) json.RawMessage { return json.RawMessage(s) }

func req(addr string) RawRequest {
	b, _ := json.Marshal(addr)
	return RawRequest{ReceiverWalletAddress: b}
}

// expectReason fails unless err is a *ValidationError of kind with reason.
func expectReason(t *testing.T, err error, kind error, reason string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if !errors.Is(err, kind) {
		t.Errorf("kind: got %v want %v", verr.Kind, kind)
	}
	if verr.Reason != reason {
		t.Errorf("reason: got %q want %q", verr.Reason, reason)
	}
}

// ── Amount ────────────────────────────────────────────────────────────────────

func TestValidate_AmountWithinBounds(t *testing.T) {
	for _, amount := range []string{"0.000000001", "0.01", "0.25", "0.4999", "0.5", `"0.3"`, `" 0.1 "`} {
		t.Run(amount, func(t *testing.T) {
			r := req(addrA)
			r.AmountSOL = rawJSON(amount)

			got, err := Validate(r, testDefaultSOL)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if got.AmountSOL <= 0 || got.AmountSOL > MaxRewardSOL {
				t.Errorf("amount %v outside (0, %v]", got.AmountSOL, MaxRewardSOL)
			}
			if got.Lamports == 0 {
				t.Error("lamports should be non-zero")
			}
		})
	}
}

func TestValidate_AmountOutOfRange(t *testing.T) {
	for _, amount := range []string{"0", "-0.1", "0.5000001", "0.6", "1", "1e-12", `"0.6"`, "true", "false"} {
		t.Run(amount, func(t *testing.T) {
			r := req(addrA)
			r.AmountSOL = rawJSON(amount)

			_, err := Validate(r, testDefaultSOL)
			expectReason(t, err, ErrInvalidAmount, ReasonAmountOutOfRange)
		})
	}
}

func TestValidate_AmountNotANumber(t *testing.T) {
	for _, amount := range []string{`"abc"`, `""`, `"NaN"`, `"inf"`, "null", "[]", "{}", "1e400"} {
		t.Run(amount, func(t *testing.T) {
			r := req(addrA)
			r.AmountSOL = rawJSON(amount)

			_, err := Validate(r, testDefaultSOL)
			expectReason(t, err, ErrInvalidAmount, ReasonInvalidAmount)
		})
	}
}

func TestValidate_AbsentAmountUsesDefault(t *testing.T) {
	got, err := Validate(req(addrA), testDefaultSOL)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.AmountSOL != testDefaultSOL {
		t.Errorf("amount: got %v want %v", got.AmountSOL, testDefaultSOL)
	}
	if got.Lamports != 10_000_000 {
		t.Errorf("lamports: got %d want 10000000", got.Lamports)
	}
}

func TestValidate_NullAmountFromBody(t *testing.T) {
	var r RawRequest
	if err := json.Unmarshal([]byte(`{"receiver_wallet_address":"`+addrA+`","amount_sol":null}`), &r); err != nil {
		t.Fatal(err)
	}
	_, err := Validate(r, testDefaultSOL)
	expectReason(t, err, ErrInvalidAmount, ReasonInvalidAmount)
}

func TestValidate_BadDefaultRejected(t *testing.T) {
	_, err := Validate(req(addrA), 0.9)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

// ── Recipient ─────────────────────────────────────────────────────────────────

func TestValidate_MissingRecipient(t *testing.T) {
	for name, raw := range map[string]json.RawMessage{
		"absent": nil,
		"null":   rawJSON("null"),
		"empty":  rawJSON(`""`),
		"zero":   rawJSON("0"),
		"false":  rawJSON("false"),
		"array":  rawJSON("[]"),
		"object": rawJSON("{}"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Validate(RawRequest{ReceiverWalletAddress: raw}, testDefaultSOL)
			expectReason(t, err, ErrInvalidRecipient, ReasonMissingRecipient)
		})
	}
}

func TestValidate_MalformedRecipient(t *testing.T) {
	for _, addr := range []string{
		"abc",
		"not-a-wallet",
		"0OIl",
		"0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		addrA + "XYZ",
		" " + addrA,
	} {
		t.Run(addr, func(t *testing.T) {
			_, err := Validate(req(addr), testDefaultSOL)
			expectReason(t, err, ErrInvalidRecipient, ReasonInvalidRecipient)
		})
	}
}

func TestValidate_NonStringRecipient(t *testing.T) {
	for _, raw := range []string{"12345", "true", `["x"]`} {
		_, err := Validate(RawRequest{ReceiverWalletAddress: rawJSON(raw)}, testDefaultSOL)
		expectReason(t, err, ErrInvalidRecipient, ReasonInvalidRecipient)
	}
}

func TestValidate_AmountCheckedBeforeAddress(t *testing.T) {
	r := req("garbage")
	r.AmountSOL = rawJSON("0.6")

	_, err := Validate(r, testDefaultSOL)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestValidate_RecipientPassesThrough(t *testing.T) {
	for _, addr := range []string{addrA, addrB} {
		got, err := Validate(req(addr), testDefaultSOL)
		if err != nil {
			t.Fatalf("%s: %v", addr, err)
		}
		if got.RecipientAddress != addr || got.Recipient.String() != addr {
			t.Errorf("got %q / %s, want %q", got.RecipientAddress, got.Recipient, addr)
		}
	}
}

// ── Idempotency key ───────────────────────────────────────────────────────────

func TestValidate_IdempotencyKeyCoercion(t *testing.T) {
	cases := map[string]string{
		`"abc"`:       "abc",
		`"  spaced "`: "  spaced ",
		`42`:          "42",
		`-7`:          "-7",
		`1.5`:         "1.5",
		`true`:        "True",
		`false`:       "",
		`0`:           "",
		`0.0`:         "",
		`""`:          "",
		`null`:        "",
		`[]`:          "",
		`{}`:          "",
		`{"a": 1}`:    `{"a":1}`,
		`["x", "y"]`:  `["x","y"]`,
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			r := req(addrA)
			r.IdempotencyKey = rawJSON(in)

			got, err := Validate(r, testDefaultSOL)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if got.IdempotencyKey != want {
				t.Errorf("key: got %q want %q", got.IdempotencyKey, want)
			}
			if got.HasKey() != (want != "") {
				t.Errorf("HasKey: got %v", got.HasKey())
			}
		})
	}
}

func TestCheckAmount(t *testing.T) {
	for _, ok := range []float64{0.01, MaxRewardSOL} {
		if err := CheckAmount(ok); err != nil {
			t.Errorf("CheckAmount(%v): %v", ok, err)
		}
	}
	for _, bad := range []float64{0, 0.51} {
		if err := CheckAmount(bad); err == nil {
			t.Errorf("CheckAmount(%v): expected error", bad)
		}
	}
}
