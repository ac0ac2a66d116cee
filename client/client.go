// Package client is a typed HTTP client for the MetaScore API.
package client

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-resty/resty/v2"

	"github.com/Shreshtthh/MetaScore/models"
	"github.com/Shreshtthh/MetaScore/scoring"
)

// Client talks to one MetaScore server. It is safe for concurrent use once
// logged in.
type Client struct {
	http *resty.Client
}

// New creates a client for baseURL, e.g. http://localhost:8080.
func New(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)
	return &Client{http: c}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("metascore: %d %s (code %d)", e.Status, e.Message, e.Code)
}

var codeErrors = map[int]error{
	40301: scoring.ErrNotAuthorized,
	40302: scoring.ErrOwnerOnly,
	40303: scoring.ErrTransfersDisabled,
	40304: scoring.ErrSourceNotVerified,
	40001: scoring.ErrInvalidCategory,
	40002: scoring.ErrLengthMismatch,
	40003: scoring.ErrInvalidIdentity,
	40004: scoring.ErrScoreOverflow,
	40401: scoring.ErrRecordNotFound,
	40901: scoring.ErrAlreadyMinted,
}

// Unwrap exposes the domain error behind a known code, so errors.Is works
// against the scoring sentinels.
func (e *APIError) Unwrap() error { return codeErrors[e.Code] }

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call[T any](ctx context.Context, req *resty.Request, method, path string) (T, error) {
	var out T
	var env envelope
	resp, err := req.SetContext(ctx).SetResult(&env).SetError(&env).Execute(method, path)
	if err != nil {
		return out, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return out, &APIError{Status: resp.StatusCode(), Code: env.Code, Message: env.Message}
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return out, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return out, nil
}

// Login signs the server's nonce message with key and keeps the session
// token for later calls. It returns the signed-in address.
func (c *Client) Login(ctx context.Context, key *ecdsa.PrivateKey) (common.Address, error) {
	addr := crypto.PubkeyToAddress(key.PublicKey)
	nonce, err := call[struct {
		Message string `json:"message"`
	}](ctx, c.http.R().SetQueryParam("address", addr.Hex()), http.MethodGet, "/api/v1/auth/nonce")
	if err != nil {
		return common.Address{}, err
	}

	sig, err := crypto.Sign(accounts.TextHash([]byte(nonce.Message)), key)
	if err != nil {
		return common.Address{}, err
	}
	sig[crypto.RecoveryIDOffset] += 27

	login, err := call[struct {
		Token string `json:"token"`
	}](ctx, c.http.R().SetBody(map[string]string{
		"address":   addr.Hex(),
		"signature": hexutil.Encode(sig),
	}), http.MethodPost, "/api/v1/auth/login")
	if err != nil {
		return common.Address{}, err
	}
	c.http.SetAuthToken(login.Token)
	return addr, nil
}

// Info is the server's static configuration.
type Info struct {
	Name       string `json:"name"`
	Categories []struct {
		Index int    `json:"index"`
		Key   string `json:"key"`
		Label string `json:"label"`
	} `json:"categories"`
	Tiers           []scoring.Tier `json:"tiers"`
	StreakPolicy    string         `json:"streak_policy"`
	Owner           string         `json:"owner"`
	TrackerIdentity string         `json:"tracker_identity"`
}

// Record mirrors the server's record view.
type Record struct {
	ID             uint64            `json:"id"`
	Owner          string            `json:"owner"`
	TotalScore     uint64            `json:"total_score"`
	StreakDays     uint64            `json:"streak_days"`
	LastActivityAt int64             `json:"last_activity_at"`
	Tier           int               `json:"tier"`
	TierName       string            `json:"tier_name"`
	CategoryScores map[string]uint64 `json:"category_scores"`
	Progress       scoring.Progress  `json:"progress"`
}

// TrackResult is the outcome of one reported activity.
type TrackResult struct {
	Activity   models.Activity `json:"activity"`
	RecordID   uint64          `json:"record_id"`
	TotalScore uint64          `json:"total_score"`
	Tier       int             `json:"tier"`
	TierName   string          `json:"tier_name"`
	StreakDays uint64          `json:"streak_days"`
}

// Info fetches categories, tiers and roles.
func (c *Client) Info(ctx context.Context) (*Info, error) {
	out, err := call[Info](ctx, c.http.R(), http.MethodGet, "/api/v1/info")
	return &out, err
}

// Mint creates a record for to. An empty to mints for the signed-in address.
func (c *Client) Mint(ctx context.Context, to string) (*Record, error) {
	req := c.http.R()
	if to != "" {
		req.SetBody(map[string]string{"address": to})
	}
	out, err := call[Record](ctx, req, http.MethodPost, "/api/v1/records")
	return &out, err
}

// Record fetches a record by id.
func (c *Client) Record(ctx context.Context, id uint64) (*Record, error) {
	out, err := call[Record](ctx, c.http.R(), http.MethodGet, "/api/v1/records/"+strconv.FormatUint(id, 10))
	return &out, err
}

// RecordByOwner fetches the record owned by address.
func (c *Client) RecordByOwner(ctx context.Context, address string) (*Record, error) {
	out, err := call[Record](ctx, c.http.R(), http.MethodGet, "/api/v1/records/by-owner/"+address)
	return &out, err
}

// Metadata fetches a record's attribute document.
func (c *Client) Metadata(ctx context.Context, id uint64) (*scoring.Metadata, error) {
	out, err := call[scoring.Metadata](ctx, c.http.R(), http.MethodGet, "/api/v1/records/"+strconv.FormatUint(id, 10)+"/metadata")
	return &out, err
}

// UpdateScore adds delta to one category. Requires a tracker or owner session.
func (c *Client) UpdateScore(ctx context.Context, id uint64, category string, delta uint64) (*Record, error) {
	req := c.http.R().SetBody(map[string]any{"category": category, "delta": delta})
	out, err := call[Record](ctx, req, http.MethodPost, "/api/v1/records/"+strconv.FormatUint(id, 10)+"/score")
	return &out, err
}

// Authorize sets or clears the tracker flag of address. Owner session only.
func (c *Client) Authorize(ctx context.Context, address string, allowed bool) error {
	req := c.http.R().SetBody(map[string]bool{"allowed": allowed})
	_, err := call[json.RawMessage](ctx, req, http.MethodPut, "/api/v1/trackers/"+address)
	return err
}

// VerifySources registers parallel lists of sources in one batch. Owner session only.
func (c *Client) VerifySources(ctx context.Context, sources, categories []string, points []uint64) error {
	req := c.http.R().SetBody(map[string]any{"sources": sources, "categories": categories, "points": points})
	_, err := call[json.RawMessage](ctx, req, http.MethodPost, "/api/v1/sources/batch")
	return err
}

// RevokeSource stops a source from reporting. Owner session only.
func (c *Client) RevokeSource(ctx context.Context, address string) error {
	_, err := call[json.RawMessage](ctx, c.http.R(), http.MethodDelete, "/api/v1/sources/"+address)
	return err
}

// Sources lists verified sources.
func (c *Client) Sources(ctx context.Context) ([]models.VerifiedSource, error) {
	out, err := call[struct {
		Items []models.VerifiedSource `json:"items"`
	}](ctx, c.http.R(), http.MethodGet, "/api/v1/sources")
	return out.Items, err
}

// IssueSourceKey creates a new API key for a source. Owner session only.
func (c *Client) IssueSourceKey(ctx context.Context, address string) (string, error) {
	out, err := call[struct {
		APIKey string `json:"api_key"`
	}](ctx, c.http.R(), http.MethodPost, "/api/v1/sources/"+address+"/key")
	return out.APIKey, err
}

// Track reports an activity as source using its API key. With an empty key
// the current session is used and must belong to the source itself.
func (c *Client) Track(ctx context.Context, source, key, user, action string) (*TrackResult, error) {
	req := c.http.R().SetBody(map[string]string{"user": user, "action": action})
	if key != "" {
		req.SetHeader("X-Source-Address", source).SetHeader("X-Source-Key", key)
	}
	out, err := call[TrackResult](ctx, req, http.MethodPost, "/api/v1/activities")
	return &out, err
}

// Activities lists a record's newest activities.
func (c *Client) Activities(ctx context.Context, id uint64, limit int) ([]models.Activity, error) {
	out, err := call[struct {
		Items []models.Activity `json:"items"`
	}](ctx, c.http.R().SetQueryParam("limit", strconv.Itoa(limit)), http.MethodGet, "/api/v1/records/"+strconv.FormatUint(id, 10)+"/activities")
	return out.Items, err
}

// LeaderboardEntry is one ranked record.
type LeaderboardEntry struct {
	Rank           int               `json:"rank"`
	RecordID       uint64            `json:"record_id"`
	Address        string            `json:"address"`
	TotalScore     uint64            `json:"total_score"`
	Tier           int               `json:"tier"`
	TierName       string            `json:"tier_name"`
	StreakDays     uint64            `json:"streak_days"`
	CategoryScores map[string]uint64 `json:"category_scores"`
}

// Leaderboard returns the top records.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	out, err := call[struct {
		Items []LeaderboardEntry `json:"items"`
	}](ctx, c.http.R().SetQueryParam("limit", strconv.Itoa(limit)), http.MethodGet, "/api/v1/leaderboard")
	return out.Items, err
}
