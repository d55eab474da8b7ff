// Package horizon implements ports.Ledger against a Horizon server.
package horizon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stellar/go/clients/horizonclient"
	"golang.org/x/time/rate"

	"github.com/bft-labs/claimdrop/internal/domain"
	"github.com/bft-labs/claimdrop/internal/ports"
)

// Config configures the Horizon client.
type Config struct {
	// URL is the Horizon base URL.
	URL string

	// Timeout bounds every HTTP round trip.
	Timeout time.Duration

	// RequestsPerSecond caps outgoing requests. Zero disables the limit.
	RequestsPerSecond float64

	// AppName is reported to Horizon in the X-App-Name header.
	AppName string
}

// Client implements ports.Ledger.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  ports.Logger
}

var _ ports.Ledger = (*Client)(nil)

// New creates a Horizon-backed ledger client.
func New(cfg Config, logger ports.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, domain.ConfigError("horizon_url", "must be set")
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, domain.ConfigError("horizon_url", "%v", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.AppName == "" {
		cfg.AppName = "claimdrop"
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}, nil
}

// AccountSequence loads the account and returns its current sequence number.
func (c *Client) AccountSequence(ctx context.Context, address string) (int64, error) {
	hc, _, err := c.begin(ctx)
	if err != nil {
		return 0, err
	}
	account, err := hc.AccountDetail(horizonclient.AccountRequest{AccountID: address})
	if err != nil {
		return 0, fmt.Errorf("load account %s: %w", address, err)
	}
	seq, err := account.GetSequenceNumber()
	if err != nil {
		return 0, fmt.Errorf("parse sequence for %s: %w", address, err)
	}
	return seq, nil
}

// BaseFee returns Horizon's suggested base fee.
func (c *Client) BaseFee(ctx context.Context) (int64, error) {
	hc, _, err := c.begin(ctx)
	if err != nil {
		return 0, err
	}
	fee, err := hc.FetchBaseFee()
	if err != nil {
		return 0, fmt.Errorf("fetch base fee: %w", err)
	}
	return fee, nil
}

// SubmitEnvelope submits a signed envelope. Any rejection is returned as a
// *domain.SubmitError carrying the HTTP status and result codes.
func (c *Client) SubmitEnvelope(ctx context.Context, envelope string) (string, error) {
	hc, doer, err := c.begin(ctx)
	if err != nil {
		return "", err
	}
	tx, err := hc.SubmitTransactionXDR(envelope)
	if err != nil {
		serr := submitError(err, doer.status)
		c.logger.Debug("horizon rejected envelope", ports.Err(serr))
		return "", serr
	}
	c.logger.Debug("horizon accepted envelope", ports.String("hash", tx.Hash))
	return tx.Hash, nil
}

// ClaimableBalances returns balance IDs claimable by claimant for asset.
func (c *Client) ClaimableBalances(ctx context.Context, claimant string, asset domain.Asset, limit int) ([]string, error) {
	hc, _, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	page, err := hc.ClaimableBalances(horizonclient.ClaimableBalanceRequest{
		Claimant: claimant,
		Asset:    asset.String(),
		Limit:    uint(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list claimable balances: %w", err)
	}

	ids := make([]string, 0, len(page.Embedded.Records))
	for _, b := range page.Embedded.Records {
		ids = append(ids, b.BalanceID)
	}
	return ids, nil
}

// begin waits for the rate limiter and returns a client bound to ctx.
func (c *Client) begin(ctx context.Context) (*horizonclient.Client, *contextDoer, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	doer := &contextDoer{ctx: ctx, client: c.http}
	return &horizonclient.Client{
		HorizonURL: c.cfg.URL,
		HTTP:       doer,
		AppName:    c.cfg.AppName,
	}, doer, nil
}

// submitError translates a horizonclient error. status is the last HTTP
// status seen, used when the body was not a problem document.
func submitError(err error, status int) error {
	serr := &domain.SubmitError{Status: status, Err: err}

	herr := horizonclient.GetError(err)
	if herr == nil {
		var target *horizonclient.Error
		if errors.As(err, &target) {
			herr = target
		}
	}
	if herr == nil {
		return serr
	}

	if herr.Problem.Status != 0 {
		serr.Status = herr.Problem.Status
	}
	if codes, cerr := herr.ResultCodes(); cerr == nil && codes != nil {
		serr.TransactionCode = codes.TransactionCode
		serr.OperationCodes = codes.OperationCodes
	}
	return serr
}

// contextDoer satisfies horizonclient.HTTP, attaching ctx to every request
// and remembering the last response status.
type contextDoer struct {
	ctx    context.Context
	client *http.Client
	status int
}

func (d *contextDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.client.Do(req.WithContext(d.ctx))
	if resp != nil {
		d.status = resp.StatusCode
	}
	return resp, err
}

func (d *contextDoer) Get(u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(d.ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return d.Do(req)
}

func (d *contextDoer) PostForm(u string, data url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(d.ctx, http.MethodPost, u, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return d.Do(req)
}
