package eodhd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/valuation/date"
	"github.com/sirupsen/logrus"
)

// APIError is a non 200 answer of the API.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cannot http GET %s: %s", e.Endpoint, e.Status)
}

// get performs a rate limited GET request on path and unmarshals the JSON
// response body into data.
func (c *Client) get(ctx context.Context, path string, params url.Values, data any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")
	addr := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	return jwget(ctx, c.http, addr, path, data)
}

// jwget performs an HTTP GET request to the given address and unmarshals the
// JSON response body into data.
func jwget(ctx context.Context, client *http.Client, addr, endpoint string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Endpoint: endpoint}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), data)
}

// selectField builds the history of one field of daily bars.
//
// Bars without the field, or with a null one, are skipped.
func selectField(bars []any, field string, log logrus.FieldLogger) (*date.History[float64], error) {
	h := new(date.History[float64])
	for _, bar := range bars {
		jday, err := jsonpath.Get("$.date", bar)
		if err != nil {
			return nil, fmt.Errorf("bar without date: %w", err)
		}
		sday, ok := jday.(string)
		if !ok {
			return nil, fmt.Errorf("invalid bar date %v", jday)
		}
		day, err := date.Parse(sday)
		if err != nil {
			return nil, err
		}
		jval, err := jsonpath.Get("$."+field, bar)
		if err != nil {
			log.WithField("date", day).Debugf("bar without %s", field)
			continue
		}
		val, ok := jval.(float64)
		if !ok {
			log.WithField("date", day).Debugf("bar with invalid %s %v", field, jval)
			continue
		}
		h.Append(day, val)
	}
	return h, nil
}
