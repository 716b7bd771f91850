// Package notify fans a newly published request out to the providers it
// matches. Delivery itself is pluggable; the package owns matching, rate
// limiting, dedupe against already-notified links, and link bookkeeping.
package notify

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gip-inclusion/directory-cli/internal/matcher"
	"github.com/gip-inclusion/directory-cli/internal/model"
	"github.com/gip-inclusion/directory-cli/internal/store"
)

// Sender delivers one notification. Implementations are expected to be
// idempotent at the transport level; the dispatcher already suppresses
// re-sends for links that carry a NotifiedAt timestamp.
type Sender interface {
	Send(ctx context.Context, r *model.Request, providerID string) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, r *model.Request, providerID string) error

func (f SenderFunc) Send(ctx context.Context, r *model.Request, providerID string) error {
	return f(ctx, r, providerID)
}

// Dispatcher matches a request against the corpus and notifies each
// compatible provider once.
type Dispatcher struct {
	store   store.Store
	matcher *matcher.Matcher
	sender  Sender
	limiter *rate.Limiter
}

func NewDispatcher(st store.Store, sender Sender, perSecond float64, burst int) *Dispatcher {
	if perSecond <= 0 {
		perSecond = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return &Dispatcher{
		store:   st,
		matcher: matcher.New(st),
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Dispatch notifies every provider matching the request that has not been
// notified before. Links are stamped after the batch so a mid-batch failure
// re-notifies at most the current batch on retry. Returns the number of
// providers notified.
func (d *Dispatcher) Dispatch(ctx context.Context, requestID string) (int, error) {
	r, err := d.store.GetRequest(ctx, requestID)
	if err != nil {
		return 0, eris.Wrap(err, "notify: load request")
	}

	ids, err := d.matcher.MatchingProviders(ctx, r)
	if err != nil {
		return 0, eris.Wrap(err, "notify: match providers")
	}

	links, err := d.store.RequestLinks(ctx, r.ID)
	if err != nil {
		return 0, eris.Wrap(err, "notify: load links")
	}
	already := make(map[string]bool, len(links))
	for _, l := range links {
		if l.Notified() {
			already[l.ProviderID] = true
		}
	}

	var sent []string
	for _, id := range ids {
		if already[id] {
			continue
		}
		if err := d.limiter.Wait(ctx); err != nil {
			return len(sent), eris.Wrap(err, "notify: rate limit wait")
		}
		if err := d.sender.Send(ctx, r, id); err != nil {
			// Stamp what went out before surfacing the failure, so the
			// retry does not double-send the delivered portion.
			if len(sent) > 0 {
				if _, markErr := d.store.MarkNotified(ctx, r.ID, sent, time.Now()); markErr != nil {
					zap.L().Error("notify: mark notified after send failure",
						zap.String("request", r.ID), zap.Error(markErr))
				}
			}
			return len(sent), eris.Wrapf(err, "notify: send to provider %s", id)
		}
		sent = append(sent, id)
	}

	if len(sent) > 0 {
		if _, err := d.store.MarkNotified(ctx, r.ID, sent, time.Now()); err != nil {
			return len(sent), eris.Wrap(err, "notify: mark notified")
		}
	}

	zap.L().Info("notify: request dispatched",
		zap.String("request", r.ID),
		zap.Int("matched", len(ids)),
		zap.Int("skipped", len(ids)-len(sent)),
		zap.Int("notified", len(sent)),
	)
	return len(sent), nil
}
