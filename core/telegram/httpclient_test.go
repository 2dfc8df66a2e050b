package telegram

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestRetryTransportRetriesTransient(t *testing.T) {
	calls := 0
	rt := &retryTransport{
		maxRetries: 2,
		backoff:    time.Millisecond,
		base: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls++
			body, _ := io.ReadAll(r.Body)
			if string(body) != "chat_id=1" {
				return nil, fmt.Errorf("body = %q", body)
			}
			if calls < 3 {
				return nil, io.ErrUnexpectedEOF
			}
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		}),
	}
	req, _ := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/sendMessage", strings.NewReader("chat_id=1"))
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	resp.Body.Close()
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryTransportStopsOnPermanent(t *testing.T) {
	calls := 0
	boom := errors.New("tls: bad certificate")
	rt := &retryTransport{
		maxRetries: 3,
		base: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls++
			return nil, boom
		}),
	}
	req, _ := http.NewRequest(http.MethodGet, "https://api.telegram.org", nil)
	if _, err := rt.RoundTrip(req); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestBuildHTTPClientTimeouts(t *testing.T) {
	c := BuildHTTPClient(HTTPClientOptions{RequestTimeout: 10 * time.Second, LongPollTimeout: 10 * time.Second})
	if c.Timeout != 30*time.Second {
		t.Fatalf("timeout = %v", c.Timeout)
	}
	rt, ok := c.Transport.(*retryTransport)
	if !ok {
		t.Fatalf("transport = %T", c.Transport)
	}
	if got := rt.base.(*http.Transport).ResponseHeaderTimeout; got != 20*time.Second {
		t.Fatalf("header timeout = %v", got)
	}
}
