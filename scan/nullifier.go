package scan

import "crypto/subtle"

// matchNullifiers implements §4.5: for every spend's nullifier, fold over
// the tracked-nullifier table without short-circuiting, so that the time
// taken does not depend on which (if any) tracked nullifier matched. This is
// O(|spends| * |tracked|) by design — an early-exit search would leak, via
// timing, which wallet nullifiers are present in a block.
//
// Returns the spends recognized as belonging to the wallet, and the
// nullifiers that matched nothing tracked (which may belong to a note from a
// block range not yet scanned).
func matchNullifiers(spends []CompactSpend, tracked []TrackedNullifier) ([]WalletSaplingSpend, [][32]byte) {
	found := make([]WalletSaplingSpend, 0, len(spends))
	unlinked := make([][32]byte, 0, len(spends))

	for index, spend := range spends {
		account, ok := constantTimeLookup(spend.Nf, tracked)
		if ok {
			found = append(found, WalletSaplingSpend{
				Index:     index,
				Nullifier: spend.Nf,
				Account:   account,
			})
		} else {
			unlinked = append(unlinked, spend.Nf)
		}
	}

	return found, unlinked
}

// constantTimeLookup folds over tracked in order without ever branching on
// the comparison result: accountAcc and foundAcc are updated via
// subtle.ConstantTimeSelect at every step, so the instruction sequence
// executed is identical regardless of where (or whether) a match occurs.
func constantTimeLookup(nf [32]byte, tracked []TrackedNullifier) (Account, bool) {
	accountAcc := uint32(AccountZero)
	foundAcc := 0 // 0/1, constant-time boolean accumulator

	for _, entry := range tracked {
		eq := subtle.ConstantTimeCompare(nf[:], entry.Nullifier[:])

		// Take this entry's account only if we have not already found a
		// match in an earlier entry.
		takeThis := subtle.ConstantTimeSelect(foundAcc, 0, eq)
		accountAcc = uint32(subtle.ConstantTimeSelect(takeThis, int(uint32(entry.Account)), int(accountAcc)))
		foundAcc = subtle.ConstantTimeSelect(foundAcc, foundAcc, eq)
	}

	return Account(accountAcc), foundAcc == 1
}
