package cache

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strconv"
)

// Transport is an http.RoundTripper that serves GET responses from the
// store when fresh and records successful upstream responses. Cache
// failures degrade to plain upstream calls.
type Transport struct {
	Base  http.RoundTripper
	Store *Store
}

func NewTransport(base http.RoundTripper, store *Store) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Store: store}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.Base.RoundTrip(req)
	}

	url := req.URL.String()

	cached, ok, err := t.Store.Get(url)
	if err != nil {
		slog.Warn("Cache read failed", "url", url, "error", err)
	}
	if ok {
		return synthesize(req, cached), nil
	}

	resp, err := t.Base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	if err := t.Store.Set(url, resp.StatusCode, resp.Header.Get("Content-Type"), body); err != nil {
		slog.Warn("Cache write failed", "url", url, "error", err)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func synthesize(req *http.Request, cached *Response) *http.Response {
	header := make(http.Header)
	if cached.ContentType != "" {
		header.Set("Content-Type", cached.ContentType)
	}
	header.Set("X-Cache", "HIT")

	return &http.Response{
		Status:        strconv.Itoa(cached.Status) + " " + http.StatusText(cached.Status),
		StatusCode:    cached.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(cached.Body)),
		ContentLength: int64(len(cached.Body)),
		Request:       req,
	}
}
