package webhookd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/subsync/pkg/paddle"
	"github.com/dmitrymomot/subsync/pkg/reconcile"
)

// Providers retry deliveries aggressively; a hard cap on payload size keeps
// a misbehaving sender from holding connections open.
const maxPayloadBytes = 1 << 20

// EventParser authenticates an inbound webhook request and decodes it into a
// reconciliation event. Satisfied by *paddle.Provider.
type EventParser interface {
	VerifyAndParse(r *http.Request) (reconcile.Event, error)
}

// EventHandler consumes decoded events. Satisfied by *reconcile.Engine.
type EventHandler interface {
	Handle(ctx context.Context, event reconcile.Event)
}

// Router returns the webhook endpoint router, mounting POST /paddle.
//
// The response contract follows webhook delivery semantics: any payload that
// authenticates is acknowledged with 200 regardless of what reconciliation
// did with it - a processing failure is an internal matter, not a delivery
// failure, and returning an error status would only trigger pointless
// provider retries. Unsigned or malformed payloads are rejected so the
// provider's dashboard surfaces a misconfiguration instead of burying it.
//
// Panics if parser or handler is nil to fail fast during initialization.
func Router(parser EventParser, handler EventHandler, opts ...Option) chi.Router {
	if parser == nil {
		panic("webhookd: event parser is required")
	}
	if handler == nil {
		panic("webhookd: event handler is required")
	}

	cfg := &config{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	r.Post("/paddle", func(w http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(w, req.Body, maxPayloadBytes)

		event, err := parser.VerifyAndParse(req)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, paddle.ErrVerificationFailed) {
				status = http.StatusUnauthorized
			}
			cfg.log.WarnContext(req.Context(), "rejected webhook delivery",
				slog.Int("status", status),
				slog.Any("error", err))
			http.Error(w, http.StatusText(status), status)
			return
		}

		handler.Handle(req.Context(), event)
		w.WriteHeader(http.StatusOK)
	})

	return r
}

type config struct {
	log *slog.Logger
}

// Option configures the webhook router.
type Option func(*config)

// WithLogger attaches a structured logger for rejected deliveries.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}
