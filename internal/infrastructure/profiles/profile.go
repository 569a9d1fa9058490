package profiles

import (
	"context"

	"github.com/labelbridge/backend/internal/domain/label"
)

// Profile is a named transform strategy: a detection predicate paired with a geometric transform
type Profile interface {
	// ID returns the stable profile identifier
	ID() label.ProfileID

	// Name returns a human-readable name
	Name() string

	// Detect reports whether the profile handles the artifact.
	// Context hints are consulted before the artifact itself.
	Detect(ctx context.Context, artifact label.SourceArtifact, pctx label.ProcessingContext) (bool, error)

	// Process transforms the artifact into a raster exactly the size of area
	Process(ctx context.Context, artifact label.SourceArtifact, pctx label.ProcessingContext, area label.Area) (*label.NormalizedArtifact, error)
}

// carrierProfile is implemented by profiles specialised for a closed set of carriers
type carrierProfile interface {
	Carriers() []string
}

// Info describes a registered profile
type Info struct {
	ID       label.ProfileID `json:"id"`
	Name     string          `json:"name"`
	Carriers []string        `json:"carriers,omitempty"`
	Fallback bool            `json:"fallback"`
}
