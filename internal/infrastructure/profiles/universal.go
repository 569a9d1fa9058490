package profiles

import (
	"context"

	"github.com/labelbridge/backend/internal/domain/label"
	"github.com/labelbridge/backend/internal/domain/shared"
	"github.com/labelbridge/backend/internal/infrastructure/labelimage"
)

// UniversalProfile fits the whole first page into the content area.
// It never crops and always detects, which makes it the registry fallback.
type UniversalProfile struct {
	source *Source
}

// NewUniversalProfile creates the fallback profile
func NewUniversalProfile(source *Source) *UniversalProfile {
	return &UniversalProfile{source: source}
}

// ID implements Profile
func (p *UniversalProfile) ID() label.ProfileID {
	return label.ProfileUniversal
}

// Name implements Profile
func (p *UniversalProfile) Name() string {
	return "Universal fit"
}

// Detect implements Profile
func (p *UniversalProfile) Detect(context.Context, label.SourceArtifact, label.ProcessingContext) (bool, error) {
	return true, nil
}

// Process implements Profile
func (p *UniversalProfile) Process(ctx context.Context, artifact label.SourceArtifact, _ label.ProcessingContext, area label.Area) (*label.NormalizedArtifact, error) {
	img, err := p.source.Load(ctx, artifact)
	if err != nil {
		return nil, err
	}
	fitted, err := labelimage.FitToArea(img, area)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeTransformFailed, "failed to fit label", err)
	}
	return &label.NormalizedArtifact{
		ProfileID: p.ID(),
		Image:     fitted,
		WidthMM:   label.TargetWidthMM,
		HeightMM:  label.TargetHeightMM,
		DPI:       area.DPI,
	}, nil
}

var _ Profile = (*UniversalProfile)(nil)
