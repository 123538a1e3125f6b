package rewards

import (
	"context"
	"fmt"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-reward-payout/internal/idempotency"
	"github.com/0gfoundation/0g-reward-payout/internal/payer"
)

// Ledger is satisfied by *ledger.Client. Decoupled here so service tests can
// count submissions and inject failures.
type Ledger interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SubmitTransfer(ctx context.Context, from *payer.Identity, to solana.PublicKey, lamports uint64, blockhash solana.Hash) (solana.Signature, error)
}

// Outcome is the result of one Send. Duplicates carry only Signature and
// AlreadyPaid.
type Outcome struct {
	Signature   string
	FromWallet  string
	ToWallet    string
	AmountSOL   float64
	AlreadyPaid bool
}

// Service runs the payout pipeline: validate, dedup, submit, record.
type Service struct {
	payer      *payer.Identity
	ledger     Ledger
	store      idempotency.Store
	locks      *keyLocks
	defaultSOL float64
	now        func() time.Time
	log        *zap.Logger
}

type Option func(*Service)

// WithClock overrides time.Now for sweeps and record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	p *payer.Identity,
	l Ledger,
	store idempotency.Store,
	defaultSOL float64,
	log *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		payer:      p,
		ledger:     l,
		store:      store,
		locks:      newKeyLocks(),
		defaultSOL: defaultSOL,
		now:        time.Now,
		log:        log,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DefaultSOL returns the amount used when a request omits amount_sol.
func (s *Service) DefaultSOL() float64 { return s.defaultSOL }

// PayerAddress returns the wallet rewards are paid from.
func (s *Service) PayerAddress() string { return s.payer.Address().String() }

// Send validates raw and pays the recipient unless the same (recipient, key)
// pair was already paid within the retention window.
//
// Errors are either a *ValidationError (nothing happened) or a failure from
// the ledger or store (nothing was recorded, a retry will submit again).
func (s *Service) Send(ctx context.Context, raw RawRequest) (*Outcome, error) {
	req, err := Validate(raw, s.defaultSOL)
	if err != nil {
		return nil, err
	}

	if !req.HasKey() {
		s.sweep(ctx)
		return s.submit(context.WithoutCancel(ctx), req)
	}

	k := idempotency.Key{Recipient: req.RecipientAddress, IdempotencyKey: req.IdempotencyKey}
	unlock := s.locks.Lock(k)
	defer unlock()

	s.sweep(ctx)

	rec, ok, err := s.store.Lookup(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("lookup paid record: %w", err)
	}
	if ok {
		s.log.Info("reward already paid",
			zap.String("to", req.RecipientAddress),
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.String("signature", rec.Signature),
		)
		return &Outcome{Signature: rec.Signature, AlreadyPaid: true}, nil
	}

	// From here on a caller disconnect must not abort the transfer or the
	// record of it. The ledger client bounds each call with its own timeout.
	ctx = context.WithoutCancel(ctx)

	out, err := s.submit(ctx, req)
	if err != nil {
		return nil, err
	}

	// The transfer is already on its way; a failed save only weakens dedup
	// for later retries, so report success regardless.
	if err := s.store.Save(ctx, k, out.Signature, s.now()); err != nil {
		s.log.Error("save paid record",
			zap.String("to", req.RecipientAddress),
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.String("signature", out.Signature),
			zap.Error(err),
		)
	}
	return out, nil
}

func (s *Service) submit(ctx context.Context, req Request) (*Outcome, error) {
	blockhash, err := s.ledger.LatestBlockhash(ctx)
	if err != nil {
		s.log.Warn("reward: latest blockhash", zap.String("to", req.RecipientAddress), zap.Error(err))
		return nil, err
	}

	sig, err := s.ledger.SubmitTransfer(ctx, s.payer, req.Recipient, req.Lamports, blockhash)
	if err != nil {
		s.log.Warn("reward: submit transfer",
			zap.String("to", req.RecipientAddress),
			zap.Uint64("lamports", req.Lamports),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("reward sent",
		zap.String("to", req.RecipientAddress),
		zap.Uint64("lamports", req.Lamports),
		zap.String("signature", sig.String()),
	)
	return &Outcome{
		Signature:  sig.String(),
		FromWallet: s.payer.Address().String(),
		ToWallet:   req.RecipientAddress,
		AmountSOL:  req.AmountSOL,
	}, nil
}

func (s *Service) sweep(ctx context.Context) {
	removed, err := s.store.Sweep(ctx, s.now())
	if err != nil {
		s.log.Warn("sweep paid records", zap.Error(err))
		return
	}
	if removed > 0 {
		s.log.Debug("swept paid records", zap.Int("removed", removed))
	}
}
