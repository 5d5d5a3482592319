package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
)

// newTestStore opens a store against a throwaway database file and
// registers cleanup.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "activity.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func strPtr(v string) *string { return &v }

func u64Ptr(v uint64) *uint64 { return &v }

func testOnchain(id string) *activity.OnchainActivity {
	return &activity.OnchainActivity{
		ID:        id,
		TxType:    activity.PaymentSent,
		TxID:      "tx-" + id,
		Value:     100000,
		Fee:       500,
		FeeRate:   8,
		Address:   "bc1q" + id,
		Confirmed: false,
		Timestamp: 1700000000,
	}
}

func testLightning(id string) *activity.LightningActivity {
	return &activity.LightningActivity{
		ID:        id,
		TxType:    activity.PaymentReceived,
		Status:    activity.StateSucceeded,
		Value:     25000,
		Invoice:   "lnbc-" + id,
		Message:   "",
		Timestamp: 1700000100,
	}
}

func mustInsertOnchain(t *testing.T, s *Store, a *activity.OnchainActivity) {
	t.Helper()
	require.NoError(t, s.InsertOnchain(context.Background(), a))
}

func mustInsertLightning(t *testing.T, s *Store, a *activity.LightningActivity) {
	t.Helper()
	require.NoError(t, s.InsertLightning(context.Background(), a))
}
