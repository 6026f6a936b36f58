package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/samirwankhede/stayinsights/internal/metrics"
)

// Query selects one page of records overlapping [From, To).
type Query struct {
	From        time.Time
	To          time.Time
	PropertyIDs []string
	Limit       int
	Offset      int
}

// Page is one upstream page. Received counts every item upstream sent,
// including quarantined ones, so short-page detection is not fooled by drops.
type Page struct {
	Records  []Record
	Received int
}

// Source is the upstream reservation system as seen by the fetcher.
type Source interface {
	ListReservations(ctx context.Context, q Query) (Page, error)
}

// ChannelResolver maps an upstream channel id to a display label.
type ChannelResolver interface {
	ChannelName(ctx context.Context, channelID string) (string, error)
}

type ClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the reservation system's REST API.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
	log   *zap.Logger
}

// NewClient validates cfg and builds a client. Missing endpoint or token
// yields ErrNotConfigured.
func NewClient(cfg ClientConfig, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%w: missing base url", ErrNotConfigured)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("%w: missing api token", ErrNotConfigured)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid base url %q", ErrNotConfigured, cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base:  base,
		token: cfg.Token,
		http:  &http.Client{Timeout: timeout},
		log:   log,
	}, nil
}

const dateLayout = "2006-01-02"

func (c *Client) ListReservations(ctx context.Context, q Query) (Page, error) {
	params := url.Values{}
	params.Set("startDate", q.From.Format(dateLayout))
	params.Set("endDate", q.To.Format(dateLayout))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))
	if len(q.PropertyIDs) > 0 {
		params.Set("listingIds", strings.Join(q.PropertyIDs, ","))
	}

	var page wirePage
	if err := c.get(ctx, "list reservations", "/reservations", params, &page); err != nil {
		return Page{}, err
	}

	out := make([]Record, 0, len(page.Result))
	for _, w := range page.Result {
		rec, err := w.toRecord()
		if err != nil {
			metrics.QuarantinedRecordsTotal.Inc()
			c.log.Warn("skipping malformed reservation", zap.Error(err), zap.Int("offset", q.Offset))
			continue
		}
		out = append(out, rec)
	}
	return Page{Records: out, Received: len(page.Result)}, nil
}

type wireChannel struct {
	Status string `json:"status"`
	Result struct {
		ID   wireID `json:"id"`
		Name string `json:"name"`
	} `json:"result"`
}

func (c *Client) ChannelName(ctx context.Context, channelID string) (string, error) {
	var ch wireChannel
	if err := c.get(ctx, "get channel", "/channels/"+url.PathEscape(channelID), nil, &ch); err != nil {
		return "", err
	}
	return strings.TrimSpace(ch.Result.Name), nil
}

type statusEnvelope interface{ status() string }

func (p *wirePage) status() string    { return p.Status }
func (p *wireChannel) status() string { return p.Status }

func (c *Client) get(ctx context.Context, op, path string, params url.Values, out statusEnvelope) error {
	u := *c.base
	u.Path = c.base.Path + path
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &UpstreamError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues("transport").Inc()
		return &UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.UpstreamErrorsTotal.WithLabelValues("status").Inc()
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(snippet)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues("decode").Inc()
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", errMalformedBody, err)}
	}
	if s := out.status(); s != "" && s != "success" {
		metrics.UpstreamErrorsTotal.WithLabelValues("decode").Inc()
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: status %q", errMalformedBody, s)}
	}
	return nil
}
