package userlocale

import (
	"context"

	"github.com/pitabwire/userlocale/advertising"
)

// AdvertisingIdentifier returns the advertising identifier when the user has
// authorized tracking. It may prompt for authorization, never holds the record
// lock and never changes the record.
func (r *Resolver) AdvertisingIdentifier(ctx context.Context) (string, bool) {
	return advertising.Lookup(ctx, r.authorizer, r.identifiers)
}
