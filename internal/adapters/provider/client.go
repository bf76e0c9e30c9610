// Package provider fetches raw measurements from the Ministry of
// Environment water-quality REST service (data.go.kr, WaterQualityService).
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/haebin/sujil/internal/domain/model"
)

// Default client configuration constants.
const (
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 1000
	listPath        = "/getList"

	// resultCodeOK is the service's success code.
	resultCodeOK = "00"

	sampleDateLayout = "2006-01-02"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds a single fetch. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPageSize sets the numOfRows query parameter.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// Query selects the measurements to fetch.
type Query struct {
	StationIDs []string   // ptNoList, empty means all stations
	Year       int        // wmyr
	Month      time.Month // wmod, zero means whole year
}

// Client calls the water-quality service.
type Client struct {
	http       *http.Client
	baseURL    string
	serviceKey string
	timeout    time.Duration
	pageSize   int
}

// NewClient creates a Client for the given base URL and service key.
func NewClient(baseURL, serviceKey string, opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		timeout:    defaultTimeout,
		pageSize:   defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// listResponse mirrors the service's JSON envelope.
type listResponse struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items      []rawRecord `json:"items"`
			TotalCount int         `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

// rawRecord carries one row as the service sends it. Numeric fields arrive
// as strings and may be empty.
type rawRecord struct {
	PtNo   string `json:"ptNo"`
	PtNm   string `json:"ptNm"`
	Addr   string `json:"addr"`
	ItemTp string `json:"itemTp"`
	ItemTn string `json:"itemTn"`
	LatDgr string `json:"latDgr"`
	LonDgr string `json:"lonDgr"`
	WmCymd string `json:"wmcymd"`
}

// Fetch retrieves the measurements matched by q. Any transport error,
// non-2xx status, service error code or malformed payload is reported as
// ErrFetchFailed; there is no partial success.
func (c *Client) Fetch(ctx context.Context, q Query) ([]model.Measurement, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+listPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrFetchFailed, err)
	}
	req.URL.RawQuery = c.query(q).Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrFetchFailed, resp.Status)
	}

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %w", ErrFetchFailed, err)
	}
	if code := payload.Response.Header.ResultCode; code != resultCodeOK {
		return nil, fmt.Errorf("%w: service result %s (%s)",
			ErrFetchFailed, code, payload.Response.Header.ResultMsg)
	}

	items := payload.Response.Body.Items
	ms := make([]model.Measurement, 0, len(items))
	for _, it := range items {
		ms = append(ms, it.toMeasurement())
	}
	return ms, nil
}

func (c *Client) query(q Query) url.Values {
	v := url.Values{}
	v.Set("serviceKey", c.serviceKey)
	v.Set("pageNo", "1")
	v.Set("numOfRows", strconv.Itoa(c.pageSize))
	v.Set("resultType", "JSON")
	if len(q.StationIDs) > 0 {
		v.Set("ptNoList", strings.Join(q.StationIDs, ","))
	}
	if q.Year > 0 {
		v.Set("wmyr", strconv.Itoa(q.Year))
	}
	if q.Month > 0 {
		v.Set("wmod", fmt.Sprintf("%02d", q.Month))
	}
	return v
}

// toMeasurement converts a raw row without judging it: unparsable numerics
// become NaN and are left for the validation layer to drop, matching how
// the feed intermixes corrected and malformed samples.
func (r rawRecord) toMeasurement() model.Measurement {
	m := model.Measurement{
		StationID:   strings.TrimSpace(r.PtNo),
		StationName: strings.TrimSpace(r.PtNm),
		Address:     strings.TrimSpace(r.Addr),
		Tp:          parseOptional(r.ItemTp),
		Tn:          parseOptional(r.ItemTn),
		Latitude:    parseCoord(r.LatDgr),
		Longitude:   parseCoord(r.LonDgr),
	}
	if ts, err := time.Parse(sampleDateLayout, strings.TrimSpace(r.WmCymd)); err == nil {
		m.SampleDate = ts
	}
	return m
}

func parseOptional(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f = math.NaN()
	}
	return &f
}

func parseCoord(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
