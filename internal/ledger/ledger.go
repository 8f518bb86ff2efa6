// Package ledger holds the ordered transaction collection and the totals
// derived from it.
package ledger

import "kesef/internal/core"

// Ledger is an immutable, insertion-ordered list of transactions.
// The zero value is an empty ledger. Append and Remove return new values
// and never touch the receiver's backing array.
type Ledger struct {
	txs []core.Transaction
}

// New builds a ledger from the given transactions in order.
func New(txs ...core.Transaction) Ledger {
	return Ledger{txs: append([]core.Transaction(nil), txs...)}
}

// Append returns a ledger with tx added at the end.
func (l Ledger) Append(tx core.Transaction) Ledger {
	next := make([]core.Transaction, len(l.txs), len(l.txs)+1)
	copy(next, l.txs)
	return Ledger{txs: append(next, tx)}
}

// Remove returns a ledger without any transaction whose ID equals id.
// An unknown id yields a ledger with the same contents.
func (l Ledger) Remove(id string) Ledger {
	next := make([]core.Transaction, 0, len(l.txs))
	for _, tx := range l.txs {
		if tx.ID != id {
			next = append(next, tx)
		}
	}
	return Ledger{txs: next}
}

func (l Ledger) Len() int {
	return len(l.txs)
}

// All returns a copy of the transactions in insertion order.
func (l Ledger) All() []core.Transaction {
	return append([]core.Transaction(nil), l.txs...)
}

// Find returns the first transaction with the given id.
func (l Ledger) Find(id string) (core.Transaction, bool) {
	for _, tx := range l.txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}
