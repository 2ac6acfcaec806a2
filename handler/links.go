package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Route names understood by LinkBuilder.
const (
	RouteGetUser  = "GetUser"
	RouteGetUsers = "GetUsers"
)

// LinkBuilder renders absolute URIs for named routes.
type LinkBuilder struct {
	baseURL        *url.URL
	trustForwarded bool
	routes         map[string]string
}

type LinkOption func(*LinkBuilder)

// WithForwardedProto honours X-Forwarded-Proto when the origin comes from the
// request. Enable it only behind a proxy that overwrites the header.
func WithForwardedProto(trust bool) LinkOption {
	return func(b *LinkBuilder) { b.trustForwarded = trust }
}

// NewLinkBuilder uses baseURL as the link origin. When baseURL is empty the
// origin is taken from each request, so the Host header decides it.
func NewLinkBuilder(baseURL string, opts ...LinkOption) (*LinkBuilder, error) {
	b := &LinkBuilder{
		routes: map[string]string{
			RouteGetUser:  "/users/{id}",
			RouteGetUsers: "/users",
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("base url %q must be absolute", baseURL)
		}
		b.baseURL = u
	}
	return b, nil
}

// Link returns the absolute URI of route with its path parameters filled in.
func (b *LinkBuilder) Link(r *http.Request, route string, params map[string]string, query url.Values) (string, error) {
	path, ok := b.routes[route]
	if !ok {
		return "", fmt.Errorf("unknown route %q", route)
	}
	for name, value := range params {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}

	var origin url.URL
	if b.baseURL != nil {
		origin = *b.baseURL
	} else {
		origin = url.URL{Scheme: b.requestScheme(r), Host: r.Host}
	}
	u := origin.JoinPath(path)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func (b *LinkBuilder) requestScheme(r *http.Request) string {
	if b.trustForwarded {
		proto := strings.Split(r.Header.Get("X-Forwarded-Proto"), ",")[0]
		switch proto = strings.ToLower(strings.TrimSpace(proto)); proto {
		case "http", "https":
			return proto
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
