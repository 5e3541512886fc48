// Package portal is the session against the timesheet web portal: one login,
// then per-date reads of the stored day values and per-date form submissions.
package portal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/maypok86/otter/v2"

	"github.com/shaharg/timewatch/internal/timesheet"
)

const (
	loginPath  = "/punch/punch2.php"
	editPath   = "/punch/editwh2.php"
	submitPath = "/punch/editwh3.php"

	// Marker string in a 200 response body that signals the portal refused
	// the write anyway.
	rejectionMarker = "reject"
)

// Client holds the authenticated portal session. Not safe for concurrent
// use: the report driver processes one date at a time by design.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	logger     *slog.Logger

	// Set by Login.
	employee string

	// Day pages read during this run; a submit invalidates the date.
	dayCache *otter.Cache[string, DayState]
}

// NewClient builds an unauthenticated client. proxyURL applies to both HTTP
// and HTTPS; empty means direct.
func NewClient(baseURL string, creds Credentials, proxyURL string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		proxy, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parsing proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	cache := otter.Must(&otter.Options[string, DayState]{
		MaximumSize: 1024,
	})

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		httpClient: &http.Client{
			Jar:       jar,
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		logger:   logger,
		dayCache: cache,
	}, nil
}

// Login posts the credentials form and scrapes the employee auth number from
// the landing page. A redirect carrying an error query parameter means the
// portal refused the credentials; that is fatal for the run.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{
		"comp": {c.creds.Company},
		"name": {c.creds.Username},
		"pw":   {c.creds.Password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &BadStatusError{Code: resp.StatusCode}
	}
	if resp.Request.URL.Query().Has("e") {
		return fmt.Errorf("%w: %s", ErrLoginFailed, resp.Request.URL.RawQuery)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading login response: %w", err)
	}

	employee, err := parseEmployeeNumber(strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	c.employee = employee

	c.logger.Info("logged in to portal", "company", c.creds.Company, "employee", employee)
	return nil
}

func (c *Client) editURL(date time.Time) string {
	return fmt.Sprintf("%s%s?ie=%s&e=%s&d=%s&jd=%s&tl=%s",
		c.baseURL, editPath,
		url.QueryEscape(c.creds.Company),
		url.QueryEscape(c.employee),
		date.Format("2006-01-02"),
		date.Format("2006-01-02"),
		url.QueryEscape(c.employee))
}

// ReadDay fetches the stored values for a date. Results are cached for the
// life of the run; a submit for the date drops the cached entry.
func (c *Client) ReadDay(ctx context.Context, date time.Time) (DayState, error) {
	key := date.Format("2006-01-02")
	if state, ok := c.dayCache.GetIfPresent(key); ok {
		return state, nil
	}

	body, err := c.getWithRetry(ctx, c.editURL(date))
	if err != nil {
		return DayState{}, fmt.Errorf("reading day %s: %w", key, err)
	}

	state, err := parseDayPage(strings.NewReader(body), date)
	if err != nil {
		return DayState{}, fmt.Errorf("parsing day page for %s: %w", key, err)
	}

	c.dayCache.Set(key, state)
	return state, nil
}

// SubmitDay posts the full form for a date: the slot-0 pair as given, slots
// 1-4 blanked and the excuse field. The POST is never retried, so an
// explicit rejection surfaces instead of repeating a write.
func (c *Client) SubmitDay(ctx context.Context, date time.Time, sub Submission) error {
	form := c.submissionForm(date, sub)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.editURL(date))

	c.logger.Debug("submitting day",
		"date", date.Format("2006-01-02"),
		"excuse", sub.Excuse,
		"begin", formatOptional(sub.Begin),
		"end", formatOptional(sub.End))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending submit request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &BadStatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading submit response: %w", err)
	}
	if strings.Contains(string(body), rejectionMarker) {
		return ErrRejected
	}

	c.dayCache.Invalidate(date.Format("2006-01-02"))
	return nil
}

// submissionForm encodes the full 5-slot form. The portal does not support
// partial writes, so every field is always present.
func (c *Client) submissionForm(date time.Time, sub Submission) url.Values {
	d := date.Format("2006-01-02")
	form := url.Values{
		"e":  {c.employee},
		"c":  {c.creds.Company},
		"tl": {c.employee},
		"d":  {d},
		"jd": {d},
	}

	for _, prefix := range []string{"e", "x"} {
		for i := 0; i < 5; i++ {
			form.Set(fmt.Sprintf("%shh%d", prefix, i), "")
			form.Set(fmt.Sprintf("%smm%d", prefix, i), "")
		}
	}

	if sub.Begin != nil {
		form.Set("ehh0", sub.Begin.HourString())
		form.Set("emm0", sub.Begin.MinuteString())
	}
	if sub.End != nil {
		form.Set("xhh0", sub.End.HourString())
		form.Set("xmm0", sub.End.MinuteString())
	}
	form.Set("excuse", sub.Excuse.String())

	return form
}

func (c *Client) getWithRetry(ctx context.Context, rawURL string) (string, error) {
	var body string

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return &BadStatusError{Code: resp.StatusCode}
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(&BadStatusError{Code: resp.StatusCode})
			}

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			body = string(data)
			return nil
		},
		retry.Attempts(4),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying portal GET", "attempt", n+1, "error", err)
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}
	return body, nil
}

func formatOptional(t *timesheet.TimeOfDay) string {
	if t == nil {
		return ""
	}
	return t.String()
}
