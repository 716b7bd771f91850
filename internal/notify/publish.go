package notify

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gip-inclusion/directory-cli/internal/model"
	"github.com/gip-inclusion/directory-cli/internal/store"
)

// slugRetries bounds how often Publish re-suffixes a colliding slug before
// giving up. Collisions are four-hex-digit birthday events, so two retries
// already make a failure astronomically unlikely.
const slugRetries = 3

// Publish persists a new request, deriving its slug from title and company
// name and retrying with a random suffix on collision.
func Publish(ctx context.Context, st store.Store, r *model.Request) error {
	base := model.Slugify(r.Title, r.CompanyName)
	r.Slug = base

	for attempt := 0; ; attempt++ {
		err := st.SaveRequest(ctx, r)
		if err == nil {
			return nil
		}
		if !eris.Is(err, store.ErrDuplicateSlug) || attempt >= slugRetries {
			return eris.Wrapf(err, "notify: publish request %q", r.Title)
		}
		r.Slug = model.WithUniqueSuffix(base)
		zap.L().Debug("notify: slug collision, retrying",
			zap.String("slug", base),
			zap.String("retry", r.Slug),
		)
	}
}
