// Package upstream is the typed HTTP client for the remote parking API.
// Every piece of durable state (spots, reservations, wallets, accounts)
// lives behind this API; the dashboard only ever reads and mutates it
// from here.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"smart-parking-dashboard/pkg/metrics"
	"smart-parking-dashboard/pkg/models"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
)

const readAttempts = 3

var (
	// ErrNoWallet is returned when the upstream reports that the user
	// has no wallet (the admin account).
	ErrNoWallet = errors.New("user has no wallet")

	// ErrLoginRejected is returned when the upstream answers the login
	// request but does not confirm the credentials.
	ErrLoginRejected = errors.New("login rejected by upstream")
)

// StatusError is a non-2xx response from the parking API, carrying the
// upstream's detail message when one was sent.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("parking api: status %d", e.Code)
	}
	return fmt.Sprintf("parking api: status %d: %s", e.Code, e.Detail)
}

// Client talks to the parking API over a fixed base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new parking API client.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "upstream").Logger(),
	}
}

type spotsResponse struct {
	Spots []models.Spot `json:"Parking Spots"`
}

type availableSpotsResponse struct {
	Spots []models.Spot `json:"Available Parking Spots"`
}

type loginResponse struct {
	Login string `json:"Login"`
}

type walletResponse struct {
	Username      string   `json:"username"`
	WalletBalance *float64 `json:"wallet_balance"`
	Message       string   `json:"message"`
}

// WalletUpdate is the upstream response to a wallet mutation.
type WalletUpdate struct {
	WalletBalance float64 `json:"wallet_balance"`
	Message       string  `json:"message"`
}

type reservedSpotsResponse struct {
	Spots []models.ReservedSpot `json:"Reserved Parking Spots"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Spots returns the full spot inventory.
func (c *Client) Spots(ctx context.Context) ([]models.Spot, error) {
	var out spotsResponse
	if err := c.get(ctx, "spots", "/parking", nil, &out); err != nil {
		return nil, err
	}
	return out.Spots, nil
}

// AvailableSpots returns only the unreserved spots. The upstream
// answers 404 when nothing is available; that is an empty list, not an
// error.
func (c *Client) AvailableSpots(ctx context.Context) ([]models.Spot, error) {
	var out availableSpotsResponse
	if err := c.get(ctx, "available_spots", "/parking/availability", nil, &out); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return out.Spots, nil
}

// Login checks credentials against the upstream. Rejected credentials
// surface as ErrLoginRejected.
func (c *Client) Login(ctx context.Context, username, password string) error {
	query := url.Values{"username": {username}, "pswd": {password}}
	var out loginResponse
	err := c.do(ctx, "login", http.MethodGet, "/user/login", query, nil, &out)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return fmt.Errorf("%w: %s", ErrLoginRejected, se.Detail)
		}
		return err
	}
	if out.Login != "Successful" {
		return ErrLoginRejected
	}
	return nil
}

// CreateUser registers a new account upstream.
func (c *Client) CreateUser(ctx context.Context, username, password string) error {
	query := url.Values{"username": {username}, "password": {password}}
	return c.do(ctx, "create_user", http.MethodPost, "/user/create", query, nil, nil)
}

// Wallet returns the user's wallet balance. Accounts without a wallet
// surface as ErrNoWallet.
func (c *Client) Wallet(ctx context.Context, username string) (float64, error) {
	var out walletResponse
	if err := c.get(ctx, "wallet", "/user/"+url.PathEscape(username)+"/getWallet", nil, &out); err != nil {
		return 0, err
	}
	if out.WalletBalance == nil {
		return 0, ErrNoWallet
	}
	return *out.WalletBalance, nil
}

// AddFunds credits the wallet. The amount is the raw user input; the
// upstream validates it.
func (c *Client) AddFunds(ctx context.Context, username, amount string) (*WalletUpdate, error) {
	query := url.Values{"amount": {amount}}
	var out WalletUpdate
	if err := c.do(ctx, "add_funds", http.MethodPut, "/user/"+url.PathEscape(username)+"/updateWallet", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeductFunds debits the wallet, typically for a reservation.
func (c *Client) DeductFunds(ctx context.Context, username, amount string) (*WalletUpdate, error) {
	query := url.Values{"amount": {amount}}
	var out WalletUpdate
	if err := c.do(ctx, "deduct_funds", http.MethodPut, "/user/"+url.PathEscape(username)+"/minusFunds", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReservedSpots lists the spots currently reserved by the user.
func (c *Client) ReservedSpots(ctx context.Context, username string) ([]models.ReservedSpot, error) {
	var out reservedSpotsResponse
	if err := c.get(ctx, "reserved_spots", "/user/"+url.PathEscape(username)+"/parking_spots", nil, &out); err != nil {
		return nil, err
	}
	return out.Spots, nil
}

// Reserve marks a spot as taken by the user.
func (c *Client) Reserve(ctx context.Context, spotID int, username string) (string, error) {
	query := url.Values{"username": {username}}
	var out messageResponse
	if err := c.do(ctx, "reserve", http.MethodPut, "/parking/reserve/"+strconv.Itoa(spotID), query, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Release frees a reserved spot.
func (c *Client) Release(ctx context.Context, spotID int) (string, error) {
	var out messageResponse
	if err := c.do(ctx, "release", http.MethodPut, "/parking/release/"+strconv.Itoa(spotID), nil, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// CreateSpot creates a new spot. The upstream assigns the real spot id;
// the request always carries id 0, availability true, and no owner.
func (c *Client) CreateSpot(ctx context.Context, price float64) (string, error) {
	body := models.Spot{
		SpotID:       0,
		Price:        price,
		Availability: true,
		UserSpot:     "",
	}
	var out messageResponse
	if err := c.do(ctx, "create_spot", http.MethodPost, "/parking/create", nil, body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// DeleteSpot removes a spot entirely.
func (c *Client) DeleteSpot(ctx context.Context, spotID int) (string, error) {
	var out messageResponse
	if err := c.do(ctx, "delete_spot", http.MethodDelete, "/parking/delete/"+strconv.Itoa(spotID), nil, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// get performs an instrumented GET, retrying transport failures. Status
// errors come from a reachable upstream and are never retried.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.instrument(op, func() error {
		return retry.Do(
			func() error {
				return c.doOnce(ctx, http.MethodGet, path, query, nil, out)
			},
			retry.Context(ctx),
			retry.Attempts(readAttempts),
			retry.LastErrorOnly(true),
			retry.RetryIf(func(err error) bool {
				var se *StatusError
				return !errors.As(err, &se)
			}),
		)
	})
}

// do performs a single instrumented request. Writes go through here and
// are never retried: a repeated reservation or debit is worse than a
// failed one.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	return c.instrument(op, func() error {
		return c.doOnce(ctx, method, path, query, body, out)
	})
}

func (c *Client) instrument(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.UpstreamRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(op, outcome).Inc()
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("parking api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return &StatusError{Code: resp.StatusCode, Detail: errResp.Detail}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
