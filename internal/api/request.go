package api

import (
	"net/http"
	"net/url"
	"strings"
)

// Request describes one logical API call. It is a value type: the builder
// methods return modified copies, so a Request can be shared between goroutines
// and replayed by the retry loop without mutation.
type Request struct {
	Method     string
	Path       string
	Query      url.Values
	Body       any
	Auth       bool
	Idempotent bool
}

// Get builds an authenticated, retryable GET.
func Get(path string) Request {
	return Request{Method: http.MethodGet, Path: path, Auth: true, Idempotent: true}
}

// Post builds an authenticated POST. POSTs are never retried.
func Post(path string, body any) Request {
	return Request{Method: http.MethodPost, Path: path, Body: body, Auth: true}
}

// Put builds an authenticated PUT. PUT replaces a resource and is retried.
func Put(path string, body any) Request {
	return Request{Method: http.MethodPut, Path: path, Body: body, Auth: true, Idempotent: true}
}

// Patch builds an authenticated PATCH (not retried).
func Patch(path string, body any) Request {
	return Request{Method: http.MethodPatch, Path: path, Body: body, Auth: true}
}

// Delete builds an authenticated, retryable DELETE.
func Delete(path string) Request {
	return Request{Method: http.MethodDelete, Path: path, Auth: true, Idempotent: true}
}

// Public drops the authentication requirement.
func (r Request) Public() Request {
	r.Auth = false
	return r
}

// Retryable overrides the idempotency flag.
func (r Request) Retryable(ok bool) Request {
	r.Idempotent = ok
	return r
}

// WithQuery adds a query pair; blank values are skipped.
func (r Request) WithQuery(key, value string) Request {
	value = strings.TrimSpace(value)
	if value == "" {
		return r
	}
	q := url.Values{}
	for k, vs := range r.Query {
		q[k] = append([]string(nil), vs...)
	}
	q.Add(key, value)
	r.Query = q
	return r
}

// JoinURL joins base and path with exactly one slash. Absolute http(s) paths
// are returned unchanged.
func JoinURL(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func (r Request) url(base string) string {
	u := JoinURL(base, r.Path)
	if len(r.Query) == 0 {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + r.Query.Encode()
}
