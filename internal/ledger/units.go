package ledger

import "math"

// LamportsPerSOL is the fixed conversion factor between SOL and lamports.
const LamportsPerSOL = 1_000_000_000

// ToLamports converts a SOL amount to lamports, rounding to the nearest unit
// so values like 0.29 do not lose a lamport to float truncation.
func ToLamports(sol float64) uint64 {
	if sol <= 0 || math.IsNaN(sol) || math.IsInf(sol, 0) {
		return 0
	}
	return uint64(math.Round(sol * LamportsPerSOL))
}

// ToSOL converts lamports back to SOL for display.
func ToSOL(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSOL
}
