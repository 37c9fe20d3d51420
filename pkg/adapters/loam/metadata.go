package loam

import (
	"github.com/aretw0/catena/pkg/domain"
)

// ChainMetadata is the frontmatter (or JSON body) of a catalog document.
// The description keys sit at the top level next to an optional explicit id.
type ChainMetadata struct {
	ID string `json:"id,omitempty" mapstructure:"id"`

	domain.ActionDescription `mapstructure:",squash"`
}
