// Package transport talks to the remote combat service and classifies every
// failure as either turn-local (resource) or fatal to the session.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tatianab/lostcastle/internal/failure"
	"github.com/tatianab/lostcastle/internal/i18n"
	"github.com/tatianab/lostcastle/internal/models"
	"github.com/tatianab/lostcastle/internal/oplog"
	"golang.org/x/text/message"
)

// resourceMarkers are matched against failure details when the service does
// not send a structured code. Compatibility fallback only.
var resourceMarkers = []string{
	"insufficient resource",
	"insufficient mana",
	"suficiente maná",
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *oplog.Log
	p       *message.Printer
}

type Option func(*Client)

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPrinter sets the printer used for operator-facing failure text.
func WithPrinter(p *message.Printer) Option {
	return func(c *Client) { c.p = p }
}

// NewClient returns a client for the service rooted at baseURL, which must
// already include the API prefix. Failures are appended to log.
func NewClient(baseURL string, log *oplog.Log, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     log,
		p:       i18n.Printer(i18n.BaseLocale),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call sends body (if non-nil) as JSON and decodes a successful response into
// out (if non-nil). Every returned error is a *failure.Error of kind resource
// or session, and has already been written to the operator log.
func (c *Client) Call(ctx context.Context, method, endpoint string, body, out any) error {
	if fe := c.do(ctx, method, endpoint, body, out); fe != nil {
		c.log.Error(c.p.Sprintf("transport.error", fe.Error()))
		return fe
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) *failure.Error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return failure.Wrap("encode request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return failure.Wrap("build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return failure.Wrap(method+" "+endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure.Wrap("read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.classify(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		fe := failure.Wrap(c.p.Sprintf("transport.malformed", endpoint), err)
		fe.Status = resp.StatusCode
		return fe
	}
	return nil
}

// classify turns a non-success response into a resource or session failure.
func (c *Client) classify(status int, data []byte) *failure.Error {
	detail, code := parseErrorBody(data)
	msg := detail
	if msg == "" {
		msg = c.p.Sprintf("transport.generic_failure")
	}
	if code == models.CodeInsufficientResource || hasResourceMarker(detail) {
		return failure.Resource(status, msg)
	}
	return failure.Session(status, msg)
}

// parseErrorBody extracts the detail message and code. A detail that is not a
// plain string (e.g. a list of validation errors) counts as absent.
func parseErrorBody(data []byte) (detail, code string) {
	var raw struct {
		Detail json.RawMessage `json:"detail"`
		Code   string          `json:"code"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", ""
	}
	var s string
	if len(raw.Detail) > 0 && json.Unmarshal(raw.Detail, &s) == nil {
		detail = strings.TrimSpace(s)
	}
	return detail, raw.Code
}

func hasResourceMarker(detail string) bool {
	d := strings.ToLower(detail)
	for _, m := range resourceMarkers {
		if strings.Contains(d, m) {
			return true
		}
	}
	return false
}

func (c *Client) ListPlayers(ctx context.Context) ([]models.Player, error) {
	var players []models.Player
	if err := c.Call(ctx, http.MethodGet, "/players/", nil, &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (c *Client) CreatePlayer(ctx context.Context, req models.CreatePlayerRequest) (models.Player, error) {
	var p models.Player
	if err := c.Call(ctx, http.MethodPost, "/players/", req, &p); err != nil {
		return models.Player{}, err
	}
	return p, nil
}

func (c *Client) StartCombat(ctx context.Context, req models.StartCombatRequest) (models.StartCombatResponse, error) {
	var resp models.StartCombatResponse
	if err := c.Call(ctx, http.MethodPost, "/combat/start", req, &resp); err != nil {
		return models.StartCombatResponse{}, err
	}
	if resp.CombatID == "" || resp.AttackerName == "" {
		return models.StartCombatResponse{}, c.malformed("/combat/start")
	}
	return resp, nil
}

func (c *Client) ListAttacks(ctx context.Context, attackerName string) ([]models.Action, error) {
	var actions []models.Action
	endpoint := "/combat/attacks/" + url.PathEscape(attackerName)
	if err := c.Call(ctx, http.MethodGet, endpoint, nil, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

func (c *Client) TakeTurn(ctx context.Context, req models.TurnRequest) (models.TurnResult, error) {
	var res models.TurnResult
	if err := c.Call(ctx, http.MethodPost, "/combat/turn", req, &res); err != nil {
		return models.TurnResult{}, err
	}
	return res, nil
}

// malformed reports a response that decoded but is missing required fields.
func (c *Client) malformed(endpoint string) error {
	fe := failure.Session(http.StatusOK, c.p.Sprintf("transport.malformed", endpoint))
	c.log.Error(c.p.Sprintf("transport.error", fe.Error()))
	return fe
}
