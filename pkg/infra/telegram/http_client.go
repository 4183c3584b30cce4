package telegram

import (
	"time"

	"github.com/valyala/fasthttp"
)

const (
	DefaultTimeout             = 30 * time.Second
	DefaultMaxConnsPerHost     = 64
	DefaultMaxIdleConnDuration = 90 * time.Second
	DefaultReadBufferSize      = 4096
	DefaultWriteBufferSize     = 4096
	// telegram answers with JSON only; media is referenced by file id
	DefaultMaxResponseBodySize = 10 * 1024 * 1024
)

type HTTPClientOptions struct {
	// Timeout bounds reads and writes. It must exceed the long poll timeout.
	Timeout             time.Duration
	MaxConnsPerHost     int
	MaxIdleConnDuration time.Duration
	MaxResponseBodySize int
	UserAgent           string
}

type HTTPClientOption func(*HTTPClientOptions)

func WithTimeout(timeout time.Duration) HTTPClientOption {
	return func(o *HTTPClientOptions) {
		o.Timeout = timeout
	}
}

func WithMaxConnsPerHost(max int) HTTPClientOption {
	return func(o *HTTPClientOptions) {
		o.MaxConnsPerHost = max
	}
}

func WithMaxIdleConnDuration(duration time.Duration) HTTPClientOption {
	return func(o *HTTPClientOptions) {
		o.MaxIdleConnDuration = duration
	}
}

func WithUserAgent(userAgent string) HTTPClientOption {
	return func(o *HTTPClientOptions) {
		o.UserAgent = userAgent
	}
}

// NewHTTPClient builds the fasthttp client the bot API calls go through.
func NewHTTPClient(opts ...HTTPClientOption) *fasthttp.Client {
	options := &HTTPClientOptions{
		Timeout:             DefaultTimeout,
		MaxConnsPerHost:     DefaultMaxConnsPerHost,
		MaxIdleConnDuration: DefaultMaxIdleConnDuration,
		MaxResponseBodySize: DefaultMaxResponseBodySize,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &fasthttp.Client{
		Name:                options.UserAgent,
		ReadTimeout:         options.Timeout,
		WriteTimeout:        options.Timeout,
		MaxConnsPerHost:     options.MaxConnsPerHost,
		MaxIdleConnDuration: options.MaxIdleConnDuration,
		ReadBufferSize:      DefaultReadBufferSize,
		WriteBufferSize:     DefaultWriteBufferSize,
		MaxResponseBodySize: options.MaxResponseBodySize,
	}
}
