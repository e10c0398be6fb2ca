package ledger

import "github.com/stakeline/stakeline/internal/domain"

// TokenLedger owns the receipt token's total supply and per-account balances.
// Supply always equals the sum of balances: mint and burn touch both sides in
// one step, transfer touches neither sum. An absent balance key reads as zero.
type TokenLedger struct {
	supply   uint64
	balances map[domain.Account]uint64
}

// NewTokenLedger returns an empty ledger.
func NewTokenLedger() *TokenLedger {
	return &TokenLedger{balances: make(map[domain.Account]uint64)}
}

// Mint credits amount to account and grows the supply. It fails with
// domain.ErrOverflow before writing anything if either side would overflow.
func (t *TokenLedger) Mint(account domain.Account, amount uint64) error {
	newBalance, err := CheckedAdd(t.balances[account], amount)
	if err != nil {
		return err
	}
	newSupply, err := CheckedAdd(t.supply, amount)
	if err != nil {
		return err
	}
	t.balances[account] = newBalance
	t.supply = newSupply
	return nil
}

// Burn debits amount from account and shrinks the supply. It fails with
// domain.ErrInsufficientBalance when the account holds less than amount;
// once the balance check passes, plain subtraction cannot underflow.
func (t *TokenLedger) Burn(account domain.Account, amount uint64) error {
	balance := t.balances[account]
	if balance < amount {
		return domain.ErrInsufficientBalance
	}
	t.balances[account] = balance - amount
	t.supply -= amount
	return nil
}

// Transfer moves amount between accounts. Self-transfer restrictions are the
// caller's concern, not the ledger's.
func (t *TokenLedger) Transfer(from, to domain.Account, amount uint64) error {
	balance := t.balances[from]
	if balance < amount {
		return domain.ErrInsufficientBalance
	}
	// Self-transfer would otherwise double-count through the map writes.
	if from == to {
		return nil
	}
	t.balances[from] = balance - amount
	t.balances[to] += amount
	return nil
}

// BalanceOf returns the balance of account, zero when absent.
func (t *TokenLedger) BalanceOf(account domain.Account) uint64 {
	return t.balances[account]
}

// TotalSupply returns the current total supply.
func (t *TokenLedger) TotalSupply() uint64 {
	return t.supply
}

// Accounts returns every account with a nonzero balance.
func (t *TokenLedger) Accounts() []domain.Account {
	accounts := make([]domain.Account, 0, len(t.balances))
	for account, balance := range t.balances {
		if balance > 0 {
			accounts = append(accounts, account)
		}
	}
	return accounts
}

// restore seeds a balance during rehydration, bypassing overflow checks that
// already held when the snapshot was written.
func (t *TokenLedger) restore(account domain.Account, balance uint64) {
	old := t.balances[account]
	t.balances[account] = balance
	t.supply = t.supply - old + balance
}
