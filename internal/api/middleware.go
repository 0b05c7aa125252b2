package api

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/randalmurphal/taskboard/internal/board"
	boarderrors "github.com/randalmurphal/taskboard/internal/errors"
)

// Headers set by the upstream gateway after it has authenticated the caller.
const (
	HeaderTenantID = "X-Tenant-ID"
	HeaderActorID  = "X-Actor-ID"
)

type callerKey struct{}

// withCaller returns a context carrying the caller identity.
func withCaller(ctx context.Context, c board.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// callerFrom returns the caller stored by requireCaller.
func callerFrom(ctx context.Context) board.Caller {
	c, _ := ctx.Value(callerKey{}).(board.Caller)
	return c
}

// requireCaller rejects requests without a tenant before any handler runs.
func requireCaller(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := strings.TrimSpace(r.Header.Get(HeaderTenantID))
		if tenantID == "" {
			handleError(w, boarderrors.ErrUnauthenticated())
			return
		}
		caller := board.Caller{
			TenantID: tenantID,
			ActorID:  strings.TrimSpace(r.Header.Get(HeaderActorID)),
		}
		h(w, r.WithContext(withCaller(r.Context(), caller)))
	}
}

// cors allows the board UI to be served from another origin.
func cors(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderTenantID+", "+HeaderActorID)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h(w, r)
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is required by the websocket upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// logRequests logs one line per request and converts panics into a 500.
func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				logger.Error("handler panic", "method", r.Method, "path", r.URL.Path, "panic", p)
				handleError(rec, boarderrors.Wrap(nil, "internal server error"))
			}
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
				"tenant", r.Header.Get(HeaderTenantID),
			)
		}()

		next.ServeHTTP(rec, r)
	})
}
