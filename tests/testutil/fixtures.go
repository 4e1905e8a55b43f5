package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/bankfeed/internal/adapter/teller"
)

// TestFeed is an in-process stand-in for the provider API. It serves the
// endpoints the feed client calls from fixture data held in memory, so
// integration tests run without credentials or network access.
type TestFeed struct {
	Server *httptest.Server

	mu           sync.Mutex
	order        []string
	accounts     map[string]teller.Account
	balances     map[string]teller.Balances
	transactions map[string][]teller.Transaction
}

// NewTestFeed starts a stub provider server. The server is shut down
// when the test finishes.
func NewTestFeed(t *testing.T) *TestFeed {
	t.Helper()

	feed := &TestFeed{
		accounts:     make(map[string]teller.Account),
		balances:     make(map[string]teller.Balances),
		transactions: make(map[string][]teller.Transaction),
	}

	r := chi.NewRouter()
	r.Get("/accounts", feed.handleListAccounts)
	r.Get("/accounts/{accountID}", feed.handleGetAccount)
	r.Get("/accounts/{accountID}/balances", feed.handleBalances)
	r.Get("/accounts/{accountID}/transactions", feed.handleTransactions)

	feed.Server = httptest.NewServer(r)
	t.Cleanup(feed.Server.Close)
	return feed
}

// Client returns a feed client wired to the stub server.
func (f *TestFeed) Client(t *testing.T) *teller.Client {
	t.Helper()

	client, err := teller.NewClient(teller.Config{
		BaseURL:     f.Server.URL,
		AccessToken: "test_token",
		HTTPClient:  f.Server.Client(),
		Logger:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("build feed client: %v", err)
	}
	return client
}

// AddAccount registers an account with its balances and transactions.
// Transactions are expected newest first, matching the provider.
func (f *TestFeed) AddAccount(account teller.Account, balances teller.Balances, transactions []teller.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.accounts[account.ID]; !ok {
		f.order = append(f.order, account.ID)
	}
	f.accounts[account.ID] = account
	f.balances[account.ID] = balances
	f.transactions[account.ID] = transactions
}

// SetBalances replaces the account's balances.
func (f *TestFeed) SetBalances(accountID string, balances teller.Balances) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[accountID] = balances
}

// PushTransaction prepends a new transaction, keeping newest-first order.
func (f *TestFeed) PushTransaction(accountID string, txn teller.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions[accountID] = append([]teller.Transaction{txn}, f.transactions[accountID]...)
}

func (f *TestFeed) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	accounts := make([]teller.Account, 0, len(f.order))
	for _, id := range f.order {
		accounts = append(accounts, f.accounts[id])
	}
	writeFixture(w, accounts)
}

func (f *TestFeed) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[chi.URLParam(r, "accountID")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeFixture(w, account)
}

func (f *TestFeed) handleBalances(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	balances, ok := f.balances[chi.URLParam(r, "accountID")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeFixture(w, balances)
}

func (f *TestFeed) handleTransactions(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	transactions, ok := f.transactions[chi.URLParam(r, "accountID")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeFixture(w, transactions)
}

func writeFixture(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// CheckingAccount returns a deterministic depository account fixture.
func CheckingAccount(id string) teller.Account {
	return teller.Account{
		ID:       id,
		Name:     "Everyday Checking",
		Type:     "depository",
		Subtype:  "checking",
		Currency: "USD",
		Status:   "open",
		LastFour: "4321",
		Institution: teller.Institution{
			ID:   "test_bank",
			Name: "Test Bank",
		},
	}
}

// CreditAccount returns a deterministic credit card account fixture.
func CreditAccount(id string) teller.Account {
	return teller.Account{
		ID:       id,
		Name:     "Platinum Card",
		Type:     "credit",
		Subtype:  "credit_card",
		Currency: "USD",
		Status:   "open",
		LastFour: "9876",
		Institution: teller.Institution{
			ID:   "test_bank",
			Name: "Test Bank",
		},
	}
}

// PostedTransaction returns a posted transaction fixture.
func PostedTransaction(id, accountID, date, amount, description string) teller.Transaction {
	return teller.Transaction{
		ID:          id,
		AccountID:   accountID,
		Date:        date,
		Description: description,
		Amount:      amount,
		Type:        "card_payment",
		Status:      "posted",
	}
}
