package counting

import (
	"context"
	"time"

	"github.com/talentiq/talentstats/pkg/entities"
	"github.com/talentiq/talentstats/pkg/growthstats"
)

// source adapts a Client to the growthstats.CountSource capability
// for one entity. The same implementation serves all three container
// kinds; the kind only selects the filter sent to the count service.
type source struct {
	client *Client
	entity entities.Entity
}

// NewSource builds a CountSource for the entity. Pass it to
// growthstats.NewEngine as the SourceFactory:
//
//	engine := growthstats.NewEngine(index, dir, func(e entities.Entity) growthstats.CountSource {
//	    return counting.NewSource(client, e)
//	})
func NewSource(client *Client, entity entities.Entity) growthstats.CountSource {
	return &source{client: client, entity: entity}
}

func (s *source) Entity() entities.Entity { return s.entity }

func (s *source) filters() Filters {
	return Filters{
		Kind:     s.entity.Kind,
		EntityID: s.entity.ID,
		DomainID: s.entity.DomainID,
	}
}

// CountUntil counts matching candidates from epoch through until.
func (s *source) CountUntil(ctx context.Context, until time.Time) (int64, error) {
	return s.client.Count(ctx, s.filters(), time.Unix(0, 0).UTC(), until)
}

// CountByHour returns the per-hour facet over a single calendar day.
func (s *source) CountByHour(ctx context.Context, from, to time.Time) ([24]int64, error) {
	_, facets, err := s.client.CountWithHourFacet(ctx, s.filters(), from, to)
	return facets, err
}
