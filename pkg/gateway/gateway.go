// Package gateway is the mock payment processor: every charge succeeds
// and transactions live in process memory. It imitates a real gateway's
// surface so checkout does not care which one it talks to.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type Transaction struct {
	TransactionID string    `json:"transactionId"`
	Status        string    `json:"status"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"paymentMethod"`
	Timestamp     time.Time `json:"timestamp"`
	Verified      bool      `json:"verified,omitempty"`
}

type Client interface {
	Charge(ctx context.Context, amount float64, currency, paymentMethod string) (*Transaction, error)
	Verify(ctx context.Context, transactionID string) (*Transaction, error)
}

type mockClient struct {
	mu           sync.Mutex
	transactions map[string]*Transaction
}

func NewMockClient() Client {
	return &mockClient{transactions: make(map[string]*Transaction)}
}

func (c *mockClient) Charge(ctx context.Context, amount float64, currency, paymentMethod string) (*Transaction, error) {

	if amount <= 0 {
		return nil, errors.New("valid amount is required")
	}

	if currency == "" {
		currency = "USD"
	}

	// A millisecond clock alone collides under burst traffic, so the id
	// carries a random suffix like order ids do.
	txn := &Transaction{
		TransactionID: fmt.Sprintf("TXN%d%06X", time.Now().UnixMilli(), rand.IntN(1<<24)),
		Status:        "success",
		Amount:        amount,
		Currency:      currency,
		PaymentMethod: paymentMethod,
		Timestamp:     time.Now().UTC(),
	}

	c.mu.Lock()
	c.transactions[txn.TransactionID] = txn
	c.mu.Unlock()

	return txn, nil
}

func (c *mockClient) Verify(ctx context.Context, transactionID string) (*Transaction, error) {

	c.mu.Lock()
	defer c.mu.Unlock()

	txn, ok := c.transactions[transactionID]
	if !ok {
		return nil, ErrTransactionNotFound
	}

	verified := *txn
	verified.Verified = true

	return &verified, nil
}
