package metrics

import (
	"context"
	"net/http"

	"github.com/newrelic/go-agent/v3/newrelic"
)

type newRelicContextKey struct{}

// NewRelicContextKey is the context key holding the *newrelic.Application
// used by RecordEvent, RecordCount and RecordDuration.
var NewRelicContextKey = newRelicContextKey{}

// NewContext returns a copy of ctx carrying the New Relic application. A nil
// application leaves ctx untouched.
func NewContext(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, NewRelicContextKey, app)
}

// WrapHTTPHandler starts a New Relic web transaction for every request served
// by handler, and injects the application into the request context so
// downstream code can record custom events and metrics.
func WrapHTTPHandler(app *newrelic.Application, pattern string, handler http.HandlerFunc) (string, http.HandlerFunc) {
	if app == nil {
		return pattern, handler
	}

	injected := func(w http.ResponseWriter, r *http.Request) {
		handler(w, r.WithContext(NewContext(r.Context(), app)))
	}
	return newrelic.WrapHandleFunc(app, pattern, injected)
}
