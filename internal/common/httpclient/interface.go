package httpclient

import (
	"context"
)

// Client is the request side of the API client.
type Client interface {
	DoRequest(ctx context.Context, opts RequestOptions) ([]byte, error)
	Get(ctx context.Context, resourcePath string, queryParams map[string]string) ([]byte, error)
	Post(ctx context.Context, resourcePath string, data []byte) ([]byte, error)
	Patch(ctx context.Context, resourcePath string, data []byte) ([]byte, error)
	Delete(ctx context.Context, resourcePath string, queryParams map[string]string) error
}

// HeaderStore is the mutable default-header map of the API client.
type HeaderStore interface {
	SetDefaultHeader(key, value string)
	DeleteDefaultHeader(key string)
	DefaultHeader(key string) string
}

var (
	_ Client      = &HTTPClient{}
	_ HeaderStore = &HTTPClient{}
)
