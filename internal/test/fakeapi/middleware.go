package fakeapi

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/pizzeria-pos/waiter/internal/common/httpclient"
	"github.com/pizzeria-pos/waiter/internal/common/logtrace"
	"github.com/rs/zerolog/log"
)

// requestLogger puts the caller's request id into the request context and logs the
// request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(httpclient.HeaderRequestID)
		ctx := logtrace.WithRequestID(r.Context(), requestID)
		ctx = log.With().Str("request_id", requestID).Logger().WithContext(ctx)

		w.Header().Set(httpclient.HeaderRequestID, requestID)
		log.Ctx(ctx).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("fakeapi request")
		defer func() {
			log.Ctx(ctx).Debug().
				Str("duration", fmt.Sprintf("%dms", time.Since(start).Milliseconds())).
				Msg("fakeapi request completed")
		}()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoverer turns a handler panic into a 500 response.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Ctx(r.Context()).Error().
					Str("panic", fmt.Sprintf("%v", err)).
					Str("stack_trace", string(debug.Stack())).
					Msg("panic occurred")
				errApplication().send(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
