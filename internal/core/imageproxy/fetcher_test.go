package imageproxy

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestHTTPFetcher_Fetch_Success(t *testing.T) {
	expectedData := []byte("test image data")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img/a.png" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("unexpected user agent: %s", got)
		}
		w.WriteHeader(http.StatusOK)
		w.Write(expectedData)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5*time.Second, 10, "test-agent")

	data, err := fetcher.Fetch(context.Background(), server.URL+"/img/a.png")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if string(data) != string(expectedData) {
		t.Errorf("expected data %q, got %q", expectedData, data)
	}
}

func TestHTTPFetcher_Fetch_NotFound(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusGone} {
		t.Run(strconv.Itoa(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))
			defer server.Close()

			_, err := NewHTTPFetcher(5*time.Second, 10, "").Fetch(context.Background(), server.URL)
			if !errors.Is(err, ErrSourceNotFound) {
				t.Errorf("expected ErrSourceNotFound, got: %v", err)
			}
		})
	}
}

func TestHTTPFetcher_Fetch_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewHTTPFetcher(5*time.Second, 10, "").Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("expected ErrFetchFailed, got: %v", err)
	}
}

func TestHTTPFetcher_Fetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(50*time.Millisecond, 10, "")

	_, err := fetcher.Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrFetchTimeout) {
		t.Errorf("expected ErrFetchTimeout, got: %v", err)
	}
}

func TestHTTPFetcher_Fetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPFetcher(5*time.Second, 10, "").Fetch(ctx, server.URL)
	if !errors.Is(err, ErrFetchTimeout) {
		t.Errorf("expected ErrFetchTimeout, got: %v", err)
	}
}

func TestHTTPFetcher_Fetch_TooLarge(t *testing.T) {
	big := bytes.Repeat([]byte("x"), 1024*1024+1)

	t.Run("content length", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", strconv.Itoa(len(big)))
			w.Write(big)
		}))
		defer server.Close()

		_, err := NewHTTPFetcher(5*time.Second, 1, "").Fetch(context.Background(), server.URL)
		if !errors.Is(err, ErrImageTooLarge) {
			t.Errorf("expected ErrImageTooLarge, got: %v", err)
		}
	})

	t.Run("chunked body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
			w.Write(big)
		}))
		defer server.Close()

		_, err := NewHTTPFetcher(5*time.Second, 1, "").Fetch(context.Background(), server.URL)
		if !errors.Is(err, ErrImageTooLarge) {
			t.Errorf("expected ErrImageTooLarge, got: %v", err)
		}
	})
}

func TestHTTPFetcher_Fetch_InvalidURL(t *testing.T) {
	fetcher := NewHTTPFetcher(5*time.Second, 10, "")

	for _, u := range []string{"", "ftp://x.test/a.png", "/relative.png", "http://"} {
		t.Run(u, func(t *testing.T) {
			_, err := fetcher.Fetch(context.Background(), u)
			if !errors.Is(err, ErrInvalidSourceURL) {
				t.Errorf("expected ErrInvalidSourceURL, got: %v", err)
			}
		})
	}
}

func TestHTTPFetcher_Fetch_NetworkError(t *testing.T) {
	_, err := NewHTTPFetcher(5*time.Second, 10, "").Fetch(context.Background(), "http://127.0.0.1:1/a.png")
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("expected ErrFetchFailed, got: %v", err)
	}
}

func TestIsTimeoutError(t *testing.T) {
	if isTimeoutError(nil) {
		t.Error("nil is not a timeout")
	}
	if isTimeoutError(errors.New("boom")) {
		t.Error("plain error is not a timeout")
	}
	if !isTimeoutError(context.DeadlineExceeded) {
		t.Error("deadline exceeded is a timeout")
	}
}
