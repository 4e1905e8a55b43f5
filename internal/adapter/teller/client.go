package teller

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.teller.io"

// apiVersion is sent with every request.
const apiVersion = "2020-10-12"

// ErrNotFound marks a 404 from the provider.
var ErrNotFound = errors.New("resource not found")

// APIError is a non-2xx response from the provider.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("teller api error: status %d", e.Status)
	}
	return fmt.Sprintf("teller api error: status %d: %s: %s", e.Status, e.Code, e.Message)
}

// Config carries everything needed to reach the API. CertFile and KeyFile
// name the client certificate pair issued by the provider; AccessToken is
// the enrollment token used as the basic auth username.
type Config struct {
	BaseURL     string
	CertFile    string
	KeyFile     string
	AccessToken string
	Timeout     time.Duration
	MaxRetries  int

	// HTTPClient replaces the mTLS transport entirely when set. Tests use
	// it to point the client at a stub server.
	HTTPClient *http.Client

	Logger zerolog.Logger
}

// Client calls the Teller API over mutual TLS.
type Client struct {
	baseURL    string
	token      string
	http       *http.Client
	maxRetries int
	logger     zerolog.Logger
}

// NewClient builds a Client from cfg, loading the client certificate
// unless an HTTP client override is supplied.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					Certificates: []tls.Certificate{cert},
					MinVersion:   tls.VersionTLS12,
				},
			},
		}
	}

	return &Client{
		baseURL:    baseURL,
		token:      cfg.AccessToken,
		http:       httpClient,
		maxRetries: maxRetries,
		logger:     cfg.Logger.With().Str("component", "teller").Logger(),
	}, nil
}

// TransactionsOptions controls transaction listing. Count caps the page
// size; FromID starts the page immediately before the transaction with
// that id.
type TransactionsOptions struct {
	Count  int
	FromID string
}

// ListInstitutions returns the institutions supported by the provider.
func (c *Client) ListInstitutions(ctx context.Context) ([]Institution, error) {
	var institutions []Institution
	if err := c.get(ctx, "/institutions", nil, &institutions); err != nil {
		return nil, err
	}
	return institutions, nil
}

// Identity returns the enrolled accounts with beneficial owner identity
// information attached, unmodeled.
func (c *Client) Identity(ctx context.Context) (json.RawMessage, error) {
	var identity json.RawMessage
	if err := c.get(ctx, "/identity", nil, &identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// ListAccounts returns all accounts the end user granted access to
// during enrollment.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := c.get(ctx, "/accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetAccount retrieves a single account by id.
func (c *Client) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	var account Account
	if err := c.get(ctx, "/accounts/"+url.PathEscape(accountID), nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// DeleteAccount revokes the application's access to the account. The
// account itself is untouched.
func (c *Client) DeleteAccount(ctx context.Context, accountID string) error {
	return c.do(ctx, http.MethodDelete, "/accounts/"+url.PathEscape(accountID), nil, nil)
}

// AccountDetails returns the account and routing numbers.
func (c *Client) AccountDetails(ctx context.Context, accountID string) (*AccountDetails, error) {
	var details AccountDetails
	if err := c.get(ctx, "/accounts/"+url.PathEscape(accountID)+"/details", nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// AccountBalances returns the account's balances.
func (c *Client) AccountBalances(ctx context.Context, accountID string) (*Balances, error) {
	var balances Balances
	if err := c.get(ctx, "/accounts/"+url.PathEscape(accountID)+"/balances", nil, &balances); err != nil {
		return nil, err
	}
	return &balances, nil
}

// ListTransactions returns the account's transactions, newest first.
func (c *Client) ListTransactions(ctx context.Context, accountID string, opts TransactionsOptions) ([]Transaction, error) {
	query := url.Values{}
	if opts.Count > 0 {
		query.Set("count", fmt.Sprintf("%d", opts.Count))
	}
	if opts.FromID != "" {
		query.Set("from_id", opts.FromID)
	}

	var transactions []Transaction
	if err := c.get(ctx, "/accounts/"+url.PathEscape(accountID)+"/transactions", query, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// GetTransaction retrieves a single transaction.
func (c *Client) GetTransaction(ctx context.Context, accountID, transactionID string) (*Transaction, error) {
	path := "/accounts/" + url.PathEscape(accountID) + "/transactions/" + url.PathEscape(transactionID)
	var transaction Transaction
	if err := c.get(ctx, path, nil, &transaction); err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, out)
}

// do issues one API call with exponential backoff on transient failures.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 2 * time.Minute

	retryCount := 0

	operation := func() error {
		err := c.doOnce(ctx, method, requestURL, out)
		if err == nil {
			return nil
		}

		if !isRetryable(err) {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > c.maxRetries {
			return backoff.Permanent(err)
		}

		c.logger.Warn().
			Err(err).
			Str("method", method).
			Str("path", path).
			Int("retry", retryCount).
			Msg("transient api error, retrying")

		return err
	}

	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

func (c *Client) doOnce(ctx context.Context, method, requestURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, requestURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Teller-Version", apiVersion)
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.token, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, requestURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, requestURL)
	}
	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeAPIError lifts the provider's error envelope into an APIError.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

// isRetryable checks whether an API call failure should trigger a retry.
// Rate limiting and server-side failures retry; client errors do not.
func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
