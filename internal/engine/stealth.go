package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
)

// Outbound HTTP to YouTube goes through go-stealth: a browser-fingerprinted
// client for watch pages and its retry helper for every other call.

type BrowserClient = stealth.BrowserClient

var DefaultRetryConfig = stealth.DefaultRetryConfig

func RandomUserAgent() string { return stealth.RandomUserAgent() }

func RetryHTTP(ctx context.Context, rc stealth.RetryConfig, fn func() (*http.Response, error)) (*http.Response, error) {
	return stealth.RetryHTTP(ctx, rc, fn)
}

// NewBrowserClient builds the stealth client used for watch pages. With a
// Webshare API key, requests rotate through the account's proxy pool; a pool
// that fails to load is logged and skipped.
func NewBrowserClient(timeout time.Duration, webshareKey string) (*BrowserClient, error) {
	secs := max(1, int(timeout.Seconds()))
	opts := []stealth.ClientOption{stealth.WithTimeout(secs)}

	if webshareKey != "" {
		pool, err := proxypool.NewWebshare(webshareKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}

	bc, err := stealth.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("stealth client: %w", err)
	}
	return bc, nil
}

// AcceptLanguage renders caption language preferences as an Accept-Language
// value, highest preference first: ["es","en"] → "es,en;q=0.9".
func AcceptLanguage(langs []string) string {
	if len(langs) == 0 {
		return "en-US,en;q=0.9"
	}
	parts := make([]string, 0, len(langs))
	for i, l := range langs {
		if i == 0 {
			parts = append(parts, l)
			continue
		}
		q := max(1, 10-i)
		parts = append(parts, fmt.Sprintf("%s;q=0.%d", l, q))
	}
	return strings.Join(parts, ",")
}

// WatchPageHeaders returns Chrome-like headers for a watch page request,
// asking for the preferred caption languages.
func WatchPageHeaders(langs []string) map[string]string {
	base := stealth.ChromeHeaders()
	h := make(map[string]string, len(base)+1)
	for k, v := range base {
		h[k] = v
	}
	h["Accept-Language"] = AcceptLanguage(langs)
	return h
}
