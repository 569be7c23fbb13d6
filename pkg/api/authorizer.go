package api

import (
	"context"

	"github.com/talentiq/talentstats/pkg/entities"
	"github.com/talentiq/talentstats/pkg/growthstats"
	"github.com/talentiq/talentstats/pkg/observability"
)

// Authorizer decides whether the caller may read statistics for an
// entity. Implementations return *growthstats.ForbiddenError to deny.
type Authorizer interface {
	Authorize(ctx context.Context, entity *entities.Entity) error
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, entity *entities.Entity) error

func (f AuthorizerFunc) Authorize(ctx context.Context, entity *entities.Entity) error {
	return f(ctx, entity)
}

// DomainAuthorizer denies access when the caller's domain, taken from
// the request context, does not own the entity. Requests without a
// domain are allowed through; upstream gateways strip the header for
// internal callers.
func DomainAuthorizer() Authorizer {
	return AuthorizerFunc(func(ctx context.Context, entity *entities.Entity) error {
		domainID := observability.GetDomainID(ctx)
		if domainID == 0 {
			return nil
		}
		if entity.DomainID != domainID {
			return &growthstats.ForbiddenError{
				Reason: "entity belongs to a different domain",
			}
		}
		return nil
	})
}
