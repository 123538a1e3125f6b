package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/0gfoundation/0g-reward-payout/internal/payer"
)

// NetworkError is returned for every failure talking to the ledger: transport
// errors, timeouts, pre-flight simulation rejections and submission errors
// all collapse into this one category.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err (or anything it wraps) is a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Client wraps the solana-go JSON-RPC client with a per-call timeout.
type Client struct {
	rpc      *rpc.Client
	endpoint string
	timeout  time.Duration
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		rpc:      rpc.New(endpoint),
		endpoint: endpoint,
		timeout:  timeout,
	}
}

// Endpoint returns the configured RPC URL.
func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// LatestBlockhash fetches a recent blockhash for transaction freshness.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, &NetworkError{Op: "getLatestBlockhash", Err: err}
	}
	if res == nil || res.Value == nil {
		return solana.Hash{}, &NetworkError{Op: "getLatestBlockhash", Err: errors.New("empty blockhash response")}
	}
	return res.Value.Blockhash, nil
}

// SubmitTransfer builds a single system-program transfer, signs it with the
// payer key and sends it with pre-flight simulation at confirmed commitment.
// The returned signature identifies the transaction on the ledger.
func (c *Client) SubmitTransfer(
	ctx context.Context,
	from *payer.Identity,
	to solana.PublicKey,
	lamports uint64,
	blockhash solana.Hash,
) (solana.Signature, error) {
	tx, err := BuildTransfer(from, to, lamports, blockhash)
	if err != nil {
		return solana.Signature{}, &NetworkError{Op: "buildTransfer", Err: err}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, &NetworkError{Op: "sendTransaction", Err: err}
	}
	return sig, nil
}

// Balance returns the lamport balance of account.
func (c *Client) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.rpc.GetBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, &NetworkError{Op: "getBalance", Err: err}
	}
	return res.Value, nil
}

// BuildTransfer returns a signed, ready-to-send transfer transaction.
func BuildTransfer(from *payer.Identity, to solana.PublicKey, lamports uint64, blockhash solana.Hash) (*solana.Transaction, error) {
	ix := system.NewTransferInstruction(lamports, from.Address(), to).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		blockhash,
		solana.TransactionPayer(from.Address()),
	)
	if err != nil {
		return nil, fmt.Errorf("new transaction: %w", err)
	}

	key := from.PrivateKey()
	if _, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(from.Address()) {
			return &key
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return tx, nil
}
