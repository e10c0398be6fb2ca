package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stakeline/stakeline/internal/domain"
)

const (
	alice = domain.Account("0xaaaa00000000000000000000000000000000aaaa")
	bob   = domain.Account("0xbbbb00000000000000000000000000000000bbbb")
	carol = domain.Account("0xcccc00000000000000000000000000000000cccc")
)

// supplyMatchesBalances asserts the conservation invariant.
func supplyMatchesBalances(t *testing.T, l *TokenLedger) {
	t.Helper()
	var sum uint64
	for _, account := range l.Accounts() {
		sum += l.BalanceOf(account)
	}
	require.Equal(t, l.TotalSupply(), sum)
}

func TestTokenLedgerMintBurn(t *testing.T) {
	l := NewTokenLedger()

	require.NoError(t, l.Mint(alice, 1_000))
	require.NoError(t, l.Mint(bob, 500))
	require.Equal(t, uint64(1_000), l.BalanceOf(alice))
	require.Equal(t, uint64(1_500), l.TotalSupply())
	supplyMatchesBalances(t, l)

	require.NoError(t, l.Burn(alice, 400))
	require.Equal(t, uint64(600), l.BalanceOf(alice))
	require.Equal(t, uint64(1_100), l.TotalSupply())
	supplyMatchesBalances(t, l)

	err := l.Burn(alice, 601)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	require.Equal(t, uint64(600), l.BalanceOf(alice))
}

func TestTokenLedgerMintOverflow(t *testing.T) {
	l := NewTokenLedger()
	require.NoError(t, l.Mint(alice, math.MaxUint64))

	err := l.Mint(bob, 1)
	require.ErrorIs(t, err, domain.ErrOverflow)
	// Failed mint leaves no trace.
	require.Zero(t, l.BalanceOf(bob))
	require.Equal(t, uint64(math.MaxUint64), l.TotalSupply())
}

func TestTokenLedgerTransfer(t *testing.T) {
	l := NewTokenLedger()
	require.NoError(t, l.Mint(alice, 1_000))

	require.NoError(t, l.Transfer(alice, bob, 250))
	require.Equal(t, uint64(750), l.BalanceOf(alice))
	require.Equal(t, uint64(250), l.BalanceOf(bob))
	require.Equal(t, uint64(1_000), l.TotalSupply())
	supplyMatchesBalances(t, l)

	err := l.Transfer(bob, carol, 251)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	require.Equal(t, uint64(250), l.BalanceOf(bob))
	require.Zero(t, l.BalanceOf(carol))

	// Unknown sender holds zero.
	err = l.Transfer(carol, alice, 1)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
}
