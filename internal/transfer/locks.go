package transfer

import (
	"sync"

	id "corebank/pkg/domain"
)

// accountLocks hands out one mutex per account and always locks a pair in
// ascending account-ID order, so two transfers touching the same two accounts
// in opposite directions cannot deadlock.
type accountLocks struct {
	mu    sync.Mutex
	locks map[id.AccountID]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[id.AccountID]*sync.Mutex)}
}

func (l *accountLocks) lockFor(accountID id.AccountID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	return m
}

// LockPair locks both accounts and returns the matching unlock. The two IDs
// must be distinct; self-transfers are rejected before locking.
func (l *accountLocks) LockPair(a, b id.AccountID) (unlock func()) {
	first, second := a, b
	if second.String() < first.String() {
		first, second = second, first
	}
	firstMu, secondMu := l.lockFor(first), l.lockFor(second)
	firstMu.Lock()
	secondMu.Lock()
	return func() {
		secondMu.Unlock()
		firstMu.Unlock()
	}
}
