// Package availapi talks to the external availability and template service
// on behalf of one signed-in user.
package availapi

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

	"github.com/dalemusser/fiveplanner/internal/app/system/auth"
	"github.com/dalemusser/fiveplanner/internal/app/system/svctoken"
	"github.com/dalemusser/fiveplanner/internal/domain/planner"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	availabilityPath = "/api/availability"
	templatePath     = "/api/template"

	// errorBodyLimit caps how much of a failed response is kept.
	errorBodyLimit = 512
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("availapi %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("availapi %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Config configures the shared Service.
type Config struct {
	BaseURL    string
	RatePerSec float64 // outbound calls per second across all users; <= 0 disables pacing
	Burst      int
	// Transport is the base RoundTripper; nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

// Service holds what all per-user clients share: the base URL, the token
// issuer and the outbound pacing limiter.
type Service struct {
	base    *url.URL
	issuer  *svctoken.Issuer
	limiter *rate.Limiter
	rt      http.RoundTripper
	log     *zap.Logger
}

// New validates the base URL and builds a Service.
func New(cfg Config, issuer *svctoken.Issuer, logger *zap.Logger) (*Service, error) {
	if issuer == nil {
		return nil, errors.New("availapi: token issuer is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("availapi: invalid base url %q", cfg.BaseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rt := cfg.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	s := &Service{base: base, issuer: issuer, rt: rt, log: logger}
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return s, nil
}

// ForUser returns a client whose calls carry the user's service token.
// The http.Client has no timeout; calls end with the request context.
func (s *Service) ForUser(u auth.SessionUser) *Client {
	var rt http.RoundTripper = s.rt
	if s.limiter != nil {
		rt = pacedTransport{limiter: s.limiter, base: rt}
	}
	return &Client{
		svc: s,
		hc: &http.Client{Transport: &oauth2.Transport{
			Source: s.issuer.TokenSource(u),
			Base:   rt,
		}},
		log: s.log.With(zap.String("discord_id", u.DiscordID)),
	}
}

// pacedTransport waits for a limiter token before each round trip.
type pacedTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

func (p pacedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := p.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return p.base.RoundTrip(req)
}

// Client implements planner.AvailabilityService and planner.TemplateService
// for one user.
type Client struct {
	svc *Service
	hc  *http.Client
	log *zap.Logger
}

var (
	_ planner.AvailabilityService = (*Client)(nil)
	_ planner.TemplateService     = (*Client)(nil)
)

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.svc.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, op, method, target string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("availapi %s: encode: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return fmt.Errorf("availapi %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("availapi %s: %w", op, err)
	}
	defer resp.Body.Close()

	c.log.Debug("availability call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("availapi %s: decode: %w", op, err)
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| wire formats                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

type wireParticipant struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

type wireAggregate struct {
	Users []wireParticipant `json:"users"`
	Count int               `json:"count"`
}

type wireSnapshot struct {
	MySlots     []string                 `json:"mySlots"`
	SlotDetails map[string]wireAggregate `json:"slotDetails"`
}

type toggleRequest struct {
	Date string `json:"date"`
	Hour int    `json:"hour"`
}

type saveRequest struct {
	Action planner.TemplateAction `json:"action"`
	Slots  []planner.TemplateSlot `json:"slots"`
}

type applyRequest struct {
	Action     planner.TemplateAction `json:"action"`
	MondayDate string                 `json:"mondayDate"`
}

// Snapshot fetches the user's selection and every slot's aggregate for the
// week starting at monday. Keys the planner cannot parse are skipped.
func (c *Client) Snapshot(ctx context.Context, monday time.Time) (planner.Snapshot, error) {
	var w wireSnapshot
	q := url.Values{"week": {planner.FormatDate(monday)}}
	if err := c.do(ctx, "snapshot", http.MethodGet, c.endpoint(availabilityPath, q), nil, &w); err != nil {
		return planner.Snapshot{}, err
	}

	snap := planner.EmptySnapshot()
	for _, raw := range w.MySlots {
		k, err := planner.ParseSlotKey(raw)
		if err != nil {
			c.log.Debug("skipping slot key", zap.String("key", raw), zap.Error(err))
			continue
		}
		snap.Mine.Add(k)
	}
	for raw, agg := range w.SlotDetails {
		k, err := planner.ParseSlotKey(raw)
		if err != nil {
			c.log.Debug("skipping slot detail", zap.String("key", raw), zap.Error(err))
			continue
		}
		users := make([]planner.Participant, 0, len(agg.Users))
		for _, u := range agg.Users {
			users = append(users, planner.Participant{Name: u.Name, Image: u.Image})
		}
		snap.Details[k] = planner.SlotAggregate{Users: users, Count: agg.Count}
	}
	return snap, nil
}

// Toggle flips one slot for the user.
func (c *Client) Toggle(ctx context.Context, key planner.SlotKey) error {
	return c.do(ctx, "toggle", http.MethodPost, c.endpoint(availabilityPath, nil),
		toggleRequest{Date: key.Date, Hour: key.Hour}, nil)
}

// SaveTemplate replaces the user's weekly template.
func (c *Client) SaveTemplate(ctx context.Context, slots []planner.TemplateSlot) error {
	if slots == nil {
		slots = []planner.TemplateSlot{}
	}
	// An empty list is sent as [] so the server clears the template.
	return c.do(ctx, "template save", http.MethodPost, c.endpoint(templatePath, nil),
		saveRequest{Action: planner.ActionSave, Slots: slots}, nil)
}

// ApplyTemplate copies the template onto the week starting at monday.
func (c *Client) ApplyTemplate(ctx context.Context, monday time.Time) error {
	return c.do(ctx, "template apply", http.MethodPost, c.endpoint(templatePath, nil),
		applyRequest{Action: planner.ActionApply, MondayDate: planner.FormatDate(monday)}, nil)
}
