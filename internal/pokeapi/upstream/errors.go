package upstream

import (
	"fmt"
	"net/http"
)

// UpstreamError describes a failed PokeAPI call. StatusCode mirrors the
// upstream response and is 0 when no response was received.
type UpstreamError struct {
	StatusCode int
	Message    string
	Endpoint   string
	Params     map[string]string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("pokeapi %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("pokeapi %s: %s", e.Endpoint, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NotFound reports an upstream 404.
func (e *UpstreamError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// HTTPStatus is the status to answer with: the upstream's, or 500 when unknown.
func (e *UpstreamError) HTTPStatus() int {
	if e.StatusCode < 400 || e.StatusCode > 599 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// clientError reports a 4xx, which says nothing about upstream health.
func (e *UpstreamError) clientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
