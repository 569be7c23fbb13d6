package entities

import (
	"fmt"
	"time"
)

// Kind identifies one of the three statistic-bearing container types.
type Kind int

const (
	TalentPool Kind = iota
	TalentPipeline
	SmartList
)

// Kinds lists every container kind, in a stable order.
var Kinds = []Kind{TalentPool, TalentPipeline, SmartList}

// String returns the plural snake_case name used in cache key prefixes
// and URL paths.
func (k Kind) String() string {
	switch k {
	case TalentPool:
		return "talent_pools"
	case TalentPipeline:
		return "talent_pipelines"
	case SmartList:
		return "smart_lists"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// ParseKind converts a container path name back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "talent_pools":
		return TalentPool, nil
	case "talent_pipelines":
		return TalentPipeline, nil
	case "smart_lists":
		return SmartList, nil
	default:
		return 0, fmt.Errorf("unknown container kind %q", s)
	}
}

// Entity is a statistic-bearing container. DomainID is carried for the
// external authorizer only; the stats core never branches on it.
type Entity struct {
	Kind      Kind      `json:"kind"`
	ID        int64     `json:"id"`
	DomainID  int64     `json:"domain_id"`
	AddedTime time.Time `json:"added_time"`
}
