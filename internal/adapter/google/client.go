// Package google implements domain.CalendarClient against the Google
// Calendar v3 REST API.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/neomorfeo/bookflow/internal/domain"
)

const (
	DefaultBaseURL    = "https://www.googleapis.com/calendar/v3"
	DefaultTokenURL   = "https://oauth2.googleapis.com/token"
	DefaultCalendarID = "primary"

	statusCancelled = "cancelled"
)

// Config holds the Google Calendar client settings. Zero values fall back
// to the defaults above.
type Config struct {
	BaseURL      string
	TokenURL     string
	CalendarID   string
	ClientID     string
	ClientSecret string
	// RatePerSec limits outbound requests. Zero disables the limit.
	RatePerSec float64
	Burst      int
	Timeout    time.Duration
}

// Client is a rate-limited Google Calendar client. Credentials are passed
// per call; refreshed access tokens are used for that call only.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock overrides the clock used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a Google Calendar client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = DefaultCalendarID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ domain.CalendarClient = (*Client)(nil)

type eventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type eventResource struct {
	ID          string    `json:"id,omitempty"`
	Status      string    `json:"status,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Description string    `json:"description,omitempty"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

type freeBusyItem struct {
	ID string `json:"id"`
}

type freeBusyRequest struct {
	TimeMin string         `json:"timeMin"`
	TimeMax string         `json:"timeMax"`
	Items   []freeBusyItem `json:"items"`
}

type freeBusyResponse struct {
	Calendars map[string]struct {
		Busy []struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"busy"`
	} `json:"calendars"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// CreateEvent inserts an event covering the booking's slot and returns the
// external id.
func (c *Client) CreateEvent(
	ctx context.Context,
	booking *domain.Booking,
	creds domain.CalendarCredentials,
	label string,
) (string, error) {
	slot := booking.TimeSlot()
	body := eventResource{
		Summary:     label,
		Description: fmt.Sprintf("Booking %s", booking.ID()),
		Start:       eventTime{DateTime: formatTime(slot.Start()), TimeZone: "UTC"},
		End:         eventTime{DateTime: formatTime(slot.End()), TimeZone: "UTC"},
	}

	var created eventResource
	status, err := c.do(ctx, creds, http.MethodPost, c.eventsURL(""), body, &created)
	if err != nil {
		return "", err
	}
	if !ok(status) {
		return "", unavailable("create event", status)
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: create event: response has no id", domain.ErrExternalUnavailable)
	}
	return created.ID, nil
}

// CancelEvent deletes the external event. An event that is already gone is
// not an error.
func (c *Client) CancelEvent(ctx context.Context, externalID string, creds domain.CalendarCredentials) error {
	status, err := c.do(ctx, creds, http.MethodDelete, c.eventsURL(externalID), nil, nil)
	if err != nil {
		return err
	}
	if ok(status) || gone(status) {
		return nil
	}
	return unavailable("cancel event", status)
}

// IsAvailable asks the free/busy endpoint whether r is free on the
// configured calendar.
func (c *Client) IsAvailable(ctx context.Context, r domain.TimeRange, creds domain.CalendarCredentials) (bool, error) {
	body := freeBusyRequest{
		TimeMin: formatTime(r.Start()),
		TimeMax: formatTime(r.End()),
		Items:   []freeBusyItem{{ID: c.cfg.CalendarID}},
	}

	var resp freeBusyResponse
	status, err := c.do(ctx, creds, http.MethodPost, c.cfg.BaseURL+"/freeBusy", body, &resp)
	if err != nil {
		return false, err
	}
	if !ok(status) {
		return false, unavailable("free/busy", status)
	}

	for _, cal := range resp.Calendars {
		if len(cal.Busy) > 0 {
			return false, nil
		}
	}
	return true, nil
}

// GetEvent fetches the external event. It returns nil when the event was
// deleted or cancelled upstream.
func (c *Client) GetEvent(
	ctx context.Context,
	externalID string,
	creds domain.CalendarCredentials,
) (*domain.ExternalEvent, error) {
	var ev eventResource
	status, err := c.do(ctx, creds, http.MethodGet, c.eventsURL(externalID), nil, &ev)
	if err != nil {
		return nil, err
	}
	if gone(status) {
		return nil, nil
	}
	if !ok(status) {
		return nil, unavailable("get event", status)
	}
	if ev.Status == statusCancelled {
		return nil, nil
	}

	start, err := parseEventTime(ev.Start)
	if err != nil {
		return nil, fmt.Errorf("parsing start of event %s: %w", externalID, err)
	}
	end, err := parseEventTime(ev.End)
	if err != nil {
		return nil, fmt.Errorf("parsing end of event %s: %w", externalID, err)
	}

	id := ev.ID
	if id == "" {
		id = externalID
	}
	return &domain.ExternalEvent{ID: id, Start: start, End: end}, nil
}

func (c *Client) eventsURL(id string) string {
	u := c.cfg.BaseURL + "/calendars/" + url.PathEscape(c.cfg.CalendarID) + "/events"
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return u
}

// do sends one authorized JSON request. A non-nil out is decoded only for
// 2xx responses. Transport failures wrap domain.ErrExternalUnavailable.
func (c *Client) do(
	ctx context.Context,
	creds domain.CalendarCredentials,
	method, endpoint string,
	in, out any,
) (int, error) {
	token, err := c.accessToken(ctx, creds)
	if err != nil {
		return 0, err
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("%w: rate limit: %w", domain.ErrExternalUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %w", domain.ErrExternalUnavailable, method, endpoint, err)
	}
	defer resp.Body.Close()

	if out != nil && ok(resp.StatusCode) {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: decoding response: %w", domain.ErrExternalUnavailable, err)
		}
	}
	return resp.StatusCode, nil
}

// accessToken returns a usable access token, refreshing an expired one when
// a refresh token and client credentials are available.
func (c *Client) accessToken(ctx context.Context, creds domain.CalendarCredentials) (string, error) {
	if !creds.Expired(c.now()) || creds.RefreshToken == "" || c.cfg.ClientID == "" {
		return creds.AccessToken, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {creds.RefreshToken},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit: %w", domain.ErrExternalUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: refreshing token: %w", domain.ErrExternalUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", unavailable("refresh token", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("%w: decoding token: %w", domain.ErrExternalUnavailable, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: refresh token: empty access token", domain.ErrExternalUnavailable)
	}
	return tok.AccessToken, nil
}

func ok(status int) bool { return status >= 200 && status < 300 }

func gone(status int) bool { return status == http.StatusNotFound || status == http.StatusGone }

func unavailable(op string, status int) error {
	return fmt.Errorf("%w: %s: status %d", domain.ErrExternalUnavailable, op, status)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseEventTime reads a timed event boundary, or an all-day date as UTC
// midnight.
func parseEventTime(t eventTime) (time.Time, error) {
	if t.DateTime != "" {
		return time.Parse(time.RFC3339, t.DateTime)
	}
	if t.Date != "" {
		return time.Parse(time.DateOnly, t.Date)
	}
	return time.Time{}, errors.New("event time has neither dateTime nor date")
}
