// Package upstream implements the small request-scoped client used to talk
// to the external HTTP/JSON user service, the two TTL caches sitting in
// front of its most frequently hit endpoints, and the background liveness
// probe that gates dependent handlers while the service is unreachable.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pellius-net/masterd/internal/model"
)

const (
	userByIDCacheCapacity = 100
	userByIDCacheTTL      = 15 * time.Second

	sessionCountCacheCapacity = 1
	sessionCountCacheTTL      = 15 * time.Second

	sessionCountCacheKey = "sessions"
)

// userPayload is the wire shape of a user record as the user service
// represents it; it carries more fields than the core needs, so decoding
// is lenient about anything beyond id/username/playername.
type userPayload struct {
	ID         uint32 `json:"id"`
	Username   string `json:"username"`
	PlayerName string `json:"playername"`
}

func (p userPayload) toModel() *model.User {
	return &model.User{ID: p.ID, Username: p.Username, PlayerName: p.PlayerName}
}

// Client is a thin HTTP/JSON client for the upstream user service, with a
// bounded per-request timeout and two TTL caches in front of its hottest
// paths.
type Client struct {
	baseURL string
	http    *http.Client
	probe   *Probe

	userByID     *ttlCache
	sessionCount *ttlCache
}

// New constructs a Client against baseURL (e.g. "http://host:port") with
// the given per-request timeout. The returned Client's probe is not yet
// running; call Probe().Run in its own goroutine to start the background
// ticker.
func New(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	c := &Client{
		baseURL:      baseURL,
		http:         &http.Client{Timeout: timeout},
		userByID:     newTTLCache(userByIDCacheCapacity, userByIDCacheTTL),
		sessionCount: newTTLCache(sessionCountCacheCapacity, sessionCountCacheTTL),
	}
	c.probe = NewProbe(c.Ping, logger)
	return c
}

// Probe returns the client's liveness probe.
func (c *Client) Probe() *Probe { return c.probe }

// Ping hits GET /ping and reports whether the service responded with a
// success status. Used as the Probe's ping function; unlike do, it never
// triggers another CheckNow on failure, which would recurse back into the
// probe that's calling it.
func (c *Client) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Login authenticates a username/password against the upstream service.
// It returns the user id on success, 0 if no such user exists, or -1 if
// the password is wrong.
func (c *Client) Login(ctx context.Context, username, password string) (int64, error) {
	body := map[string]string{"username": username, "password": password}
	resp, err := c.doJSON(ctx, http.MethodPost, "/users/auth/validate", body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return 0, nil
	case http.StatusUnauthorized:
		return -1, nil
	case http.StatusOK:
		var out struct {
			UserID int64 `json:"userId"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return 0, fmt.Errorf("upstream: decoding login response: %w", err)
		}
		return out.UserID, nil
	default:
		return 0, c.statusError(resp)
	}
}

// ValidateCredentials re-checks a userId/password pair, used by handlers
// that already hold a user id and just need to confirm the password again
// (e.g. before a sensitive operation).
func (c *Client) ValidateCredentials(ctx context.Context, userID uint32, password string) (bool, error) {
	body := map[string]interface{}{"userId": userID, "password": password}
	resp, err := c.doJSON(ctx, http.MethodPost, "/users/auth/validate", body)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

// ValidatePasswordRecovery checks a security-question answer for a
// password-recovery flow.
func (c *Client) ValidatePasswordRecovery(ctx context.Context, userID uint32, answer string) (bool, error) {
	body := map[string]interface{}{"userId": userID, "answer": answer}
	resp, err := c.doJSON(ctx, http.MethodPost, "/users/auth/validate_security", body)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

// Logout ends a user's session. No upstream endpoint is specified for
// this in the external interface table, so Logout only invalidates the
// local userById cache entry; the user service is expected to age out its
// own session bookkeeping independently.
func (c *Client) Logout(userID uint32) {
	c.userByID.Delete(cacheKeyForID(userID))
}

// GetById fetches a user by numeric id, serving from the userById cache
// when possible. While the probe has observed the upstream service down,
// it short-circuits to a nil user rather than dialing a known-dead
// service, until the probe reports it alive again.
func (c *Client) GetById(ctx context.Context, id uint32) (*model.User, error) {
	key := cacheKeyForID(id)
	if cached, ok := c.userByID.Get(key); ok {
		return cached.(*model.User), nil
	}
	if !c.probe.IsAlive() {
		return nil, nil
	}

	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var payload userPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("upstream: decoding user: %w", err)
	}

	u := payload.toModel()
	c.userByID.Set(key, u)
	return u, nil
}

// GetByName fetches a user by player name. Not cached, per the two named
// caches in the spec (userById, sessionCount only). Short-circuits to a
// nil user while the probe has observed the upstream service down.
func (c *Client) GetByName(ctx context.Context, name string) (*model.User, error) {
	if !c.probe.IsAlive() {
		return nil, nil
	}

	resp, err := c.do(ctx, http.MethodGet, "/users/byname/"+name, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var payload userPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("upstream: decoding user: %w", err)
	}
	return payload.toModel(), nil
}

// SetPassword updates a user's password and invalidates the cached
// record.
func (c *Client) SetPassword(ctx context.Context, userID uint32, newPassword string) error {
	resp, err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/users/%d", userID), map[string]string{"password": newPassword})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.userByID.Delete(cacheKeyForID(userID))

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}
	return nil
}

// DeleteUser removes a user from the upstream service and invalidates its
// cache entry.
func (c *Client) DeleteUser(ctx context.Context, userID uint32) error {
	resp, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", userID), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.userByID.Delete(cacheKeyForID(userID))

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}
	return nil
}

// SessionCount returns the upstream-reported number of active sessions,
// served from a one-entry, 15-second TTL cache.
func (c *Client) SessionCount(ctx context.Context) (int, error) {
	if cached, ok := c.sessionCount.Get(sessionCountCacheKey); ok {
		return cached.(int), nil
	}

	resp, err := c.do(ctx, http.MethodGet, "/ping", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, c.statusError(resp)
	}

	var out struct {
		Sessions int `json:"sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("upstream: decoding ping response: %w", err)
	}

	c.sessionCount.Set(sessionCountCacheKey, out.Sessions)
	return out.Sessions, nil
}

// CreateInventory, CreateCosmetics, CreateLoadouts and CreateBuyMenu
// bootstrap a freshly created user's inventory sub-resources.
func (c *Client) CreateInventory(ctx context.Context, userID uint32, body interface{}) error {
	return c.create(ctx, fmt.Sprintf("/inventory/%d", userID), body)
}

func (c *Client) CreateCosmetics(ctx context.Context, userID uint32, body interface{}) error {
	return c.create(ctx, fmt.Sprintf("/inventory/%d/cosmetics", userID), body)
}

func (c *Client) CreateLoadouts(ctx context.Context, userID uint32, body interface{}) error {
	return c.create(ctx, fmt.Sprintf("/inventory/%d/loadout", userID), body)
}

func (c *Client) CreateBuyMenu(ctx context.Context, userID uint32, body interface{}) error {
	return c.create(ctx, fmt.Sprintf("/inventory/%d/buymenu", userID), body)
}

func (c *Client) create(ctx context.Context, path string, body interface{}) error {
	resp, err := c.doJSON(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return c.statusError(resp)
	}
	return nil
}

// GetInventory, GetCosmetics, GetLoadouts and GetBuyMenu fetch a user's
// inventory sub-resources, decoding the raw JSON body into dest.
func (c *Client) GetInventory(ctx context.Context, userID uint32, dest interface{}) error {
	return c.fetch(ctx, fmt.Sprintf("/inventory/%d", userID), dest)
}

func (c *Client) GetCosmetics(ctx context.Context, userID uint32, dest interface{}) error {
	return c.fetch(ctx, fmt.Sprintf("/inventory/%d/cosmetics", userID), dest)
}

func (c *Client) GetLoadouts(ctx context.Context, userID uint32, dest interface{}) error {
	return c.fetch(ctx, fmt.Sprintf("/inventory/%d/loadout", userID), dest)
}

func (c *Client) GetBuyMenu(ctx context.Context, userID uint32, dest interface{}) error {
	return c.fetch(ctx, fmt.Sprintf("/inventory/%d/buymenu", userID), dest)
}

func (c *Client) fetch(ctx context.Context, path string, dest interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("upstream: decoding %s: %w", path, err)
	}
	return nil
}

// SetLoadoutWeapon, SetCosmeticSlot and SetBuyMenu push a single field
// update to a user's inventory sub-resources.
func (c *Client) SetLoadoutWeapon(ctx context.Context, userID uint32, body interface{}) error {
	return c.update(ctx, fmt.Sprintf("/inventory/%d/loadout", userID), body)
}

func (c *Client) SetCosmeticSlot(ctx context.Context, userID uint32, body interface{}) error {
	return c.update(ctx, fmt.Sprintf("/inventory/%d/cosmetics", userID), body)
}

func (c *Client) SetBuyMenu(ctx context.Context, userID uint32, body interface{}) error {
	return c.update(ctx, fmt.Sprintf("/inventory/%d/buymenu", userID), body)
}

func (c *Client) update(ctx context.Context, path string, body interface{}) error {
	resp, err := c.doJSON(ctx, http.MethodPut, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("upstream: building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.probe.CheckNow(ctx)
		return nil, fmt.Errorf("%w: %s", model.ErrUpstreamUnavailable, err)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("upstream: encoding request body: %w", err)
	}
	return c.do(ctx, method, path, encoded)
}

// statusError turns a non-success response into an UpstreamUnavailable
// error, title-casing the response's status text the way the core's other user-facing
// upstream messages are rendered.
func (c *Client) statusError(resp *http.Response) error {
	caser := cases.Title(language.English)
	return fmt.Errorf("%w: %s", model.ErrUpstreamUnavailable, caser.String(resp.Status))
}

func cacheKeyForID(id uint32) string {
	return fmt.Sprintf("user:%d", id)
}
