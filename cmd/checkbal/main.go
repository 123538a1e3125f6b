// checkbal prints the payer wallet address and its balance on the configured
// cluster, reading the same environment as rewardd.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-reward-payout/internal/config"
	"github.com/0gfoundation/0g-reward-payout/internal/ledger"
	"github.com/0gfoundation/0g-reward-payout/internal/payer"
	"github.com/0gfoundation/0g-reward-payout/internal/rewards"
)

func main() {
	log, _ := zap.NewDevelopment()
	defer log.Sync() //nolint:errcheck

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("load .env", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}
	id, err := payer.FromBase58(cfg.Reward.WalletSecret)
	if err != nil {
		log.Fatal("invalid REWARD_WALLET_SECRET_BASE58", zap.Error(err))
	}

	report, err := checkBalance(context.Background(), ledger.NewClient(cfg.Chain.RPCURL, cfg.Chain.RPCTimeout()), id, cfg.Reward.DefaultSOL)
	if err != nil {
		log.Fatal("balance lookup failed", zap.String("rpc", cfg.Chain.RPCURL), zap.Error(err))
	}
	fmt.Print(report)
}

// checkBalance renders the payer balance and how many default-sized rewards
// it still covers.
func checkBalance(ctx context.Context, c *ledger.Client, id *payer.Identity, defaultSOL float64) (string, error) {
	lamports, err := c.Balance(ctx, id.Address())
	if err != nil {
		return "", err
	}
	perReward := ledger.ToLamports(defaultSOL)

	out := fmt.Sprintf("rpc:       %s\n", c.Endpoint())
	out += fmt.Sprintf("wallet:    %s\n", id)
	out += fmt.Sprintf("balance:   %d lamports (%.9f SOL)\n", lamports, ledger.ToSOL(lamports))
	if perReward > 0 && rewards.CheckAmount(defaultSOL) == nil {
		out += fmt.Sprintf("rewards:   %d at %g SOL\n", lamports/perReward, defaultSOL)
	}
	return out, nil
}
