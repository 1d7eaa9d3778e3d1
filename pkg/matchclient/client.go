// Package matchclient is a fasthttp client for the chessmatch HTTP API.
package matchclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/chessmatch/pkg/matchdto"
)

type Client struct {
	baseURL string
	http    *fasthttp.Client
	player  string

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

// WithPlayer sets the X-Player-Id sent with every request.
func WithPlayer(id string) Option {
	return func(c *Client) { c.player = strings.TrimSpace(id) }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the network dialer, e.g. with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify classifies fen; a non-empty claimed label must match the classification.
func (c *Client) Verify(ctx context.Context, fen, claimed string) (*matchdto.Verification, error) {
	var out matchdto.Verification
	req := matchdto.VerifyRequest{FEN: fen, Claimed: claimed}
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/positions/verify", 0, req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Validate(ctx context.Context, req matchdto.ValidateRequest) (*matchdto.ValidateResponse, error) {
	var out matchdto.ValidateResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/positions/validate", 0, req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func matchPath(id string, rest ...string) string {
	return "/matches/" + url.PathEscape(id) + strings.Join(rest, "")
}

func profilePath(player string, rest ...string) string {
	return "/profiles/" + url.PathEscape(player) + strings.Join(rest, "")
}

// InitProfile creates the client's profile if needed and sets its display name when name is not empty.
func (c *Client) InitProfile(ctx context.Context, name string, tick uint64) (*matchdto.ProfileState, error) {
	var out matchdto.ProfileState
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/profiles", tick, matchdto.InitProfileRequest{Name: name}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProfile(ctx context.Context, player string) (*matchdto.ProfileState, error) {
	var out matchdto.ProfileState
	if err := c.doJSON(ctx, fasthttp.MethodGet, profilePath(player), 0, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Players(ctx context.Context) ([]string, error) {
	var out matchdto.IDList
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/profiles", 0, nil, &out, true); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

func (c *Client) MatchesForPlayer(ctx context.Context, player string) ([]*matchdto.MatchState, error) {
	var out matchdto.MatchList
	if err := c.doJSON(ctx, fasthttp.MethodGet, profilePath(player, "/matches"), 0, nil, &out, true); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

func (c *Client) MatchIDs(ctx context.Context) ([]string, error) {
	var out matchdto.IDList
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/matches", 0, nil, &out, true); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

func (c *Client) GetMatch(ctx context.Context, id string) (*matchdto.MatchState, error) {
	var out matchdto.MatchState
	if err := c.doJSON(ctx, fasthttp.MethodGet, matchPath(id), 0, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateMatch(ctx context.Context, req matchdto.CreateMatchRequest, tick uint64) (*matchdto.MatchState, error) {
	var out matchdto.MatchState
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/matches", tick, req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitMove plays a move. On a timeout the returned error is a
// matchdto.ErrorResponse whose Match holds the finished match.
func (c *Client) SubmitMove(ctx context.Context, id string, req matchdto.MoveRequest, tick uint64) (*matchdto.MatchState, error) {
	return c.transition(ctx, matchPath(id, "/moves"), req, tick)
}

func (c *Client) Resign(ctx context.Context, id string, tick uint64) (*matchdto.MatchState, error) {
	return c.transition(ctx, matchPath(id, "/resign"), nil, tick)
}

func (c *Client) ProposeDraw(ctx context.Context, id string, tick uint64) (*matchdto.MatchState, error) {
	return c.transition(ctx, matchPath(id, "/draw"), nil, tick)
}

func (c *Client) RespondDraw(ctx context.Context, id string, accept bool, tick uint64) (*matchdto.MatchState, error) {
	return c.transition(ctx, matchPath(id, "/draw/respond"), matchdto.RespondDrawRequest{Accept: accept}, tick)
}

func (c *Client) OverrideStatus(ctx context.Context, id, status string, tick uint64) (*matchdto.MatchState, error) {
	return c.transition(ctx, matchPath(id, "/status"), matchdto.OverrideRequest{Status: status}, tick)
}

func (c *Client) transition(ctx context.Context, path string, in any, tick uint64) (*matchdto.MatchState, error) {
	var out matchdto.MatchState
	if err := c.doJSON(ctx, fasthttp.MethodPost, path, tick, in, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Clock(ctx context.Context, id string, tick uint64) (*matchdto.ClockState, error) {
	var out matchdto.ClockState
	if err := c.doJSON(ctx, fasthttp.MethodGet, matchPath(id, "/clock"), tick, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// doJSON sends in as JSON and decodes a 2xx body into out. A non-2xx response
// carrying an error body is returned as matchdto.ErrorResponse.
func (c *Client) doJSON(ctx context.Context, method, path string, tick uint64, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.player != "" {
		req.Header.Set("X-Player-Id", c.player)
	}
	if tick > 0 {
		req.Header.Set("X-Tick", strconv.FormatUint(tick, 10))
	}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 0 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			lastErr = decodeError(status, resp.Body())
			if attempt == attempts || !shouldRetryStatus(status) {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func decodeError(status int, body []byte) error {
	var e matchdto.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Code != "" {
		return e
	}
	return fmt.Errorf("chessmatch api error: status=%d body=%s", status, truncate(string(body), 512))
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
