package profiles

import (
	"context"
	"image"

	"github.com/labelbridge/backend/internal/domain/label"
	"github.com/labelbridge/backend/internal/domain/shared"
	"github.com/labelbridge/backend/internal/infrastructure/labelimage"
)

// Default carrier sets of the built-in carrier profiles
var (
	DefaultQuadrantCarriers    = []string{"mondial relay", "inpost", "relais colis"}
	DefaultHalfRotatedCarriers = []string{"colissimo", "chronopost", "la poste"}
)

// CropFunc extracts the region of a page that holds the actual label
type CropFunc func(img image.Image) (image.Image, error)

// CarrierConfig configures a carrier-specific profile
type CarrierConfig struct {
	ID       label.ProfileID
	Name     string
	Carriers []string
	// Marketplaces whose labels always use this layout
	Marketplaces []string
	// TextDetection enables matching carrier names in the page text of PDF labels
	TextDetection bool
	Crop          CropFunc
}

// CarrierProfile crops the label region out of a carrier's page layout, then fits it
type CarrierProfile struct {
	id            label.ProfileID
	name          string
	carriers      []string
	carrierSet    nameSet
	marketplaces  nameSet
	textDetection bool
	crop          CropFunc
	source        *Source
}

// NewCarrierProfile creates a carrier-specific profile
func NewCarrierProfile(cfg CarrierConfig, source *Source) *CarrierProfile {
	return &CarrierProfile{
		id:            cfg.ID,
		name:          cfg.Name,
		carriers:      append([]string(nil), cfg.Carriers...),
		carrierSet:    newNameSet(cfg.Carriers),
		marketplaces:  newNameSet(cfg.Marketplaces),
		textDetection: cfg.TextDetection,
		crop:          cfg.Crop,
		source:        source,
	}
}

// NewQuadrantProfile keeps the upper-left quarter of the page, unrotated
func NewQuadrantProfile(carriers, marketplaces []string, textDetection bool, source *Source) *CarrierProfile {
	return NewCarrierProfile(CarrierConfig{
		ID:            label.ProfileCarrierQuadrant,
		Name:          "Carrier label, upper-left quadrant",
		Carriers:      carriers,
		Marketplaces:  marketplaces,
		TextDetection: textDetection,
		Crop: func(img image.Image) (image.Image, error) {
			return labelimage.CropUpperLeftQuadrant(img)
		},
	}, source)
}

// NewHalfRotatedProfile keeps the upper half of the page and turns it upright
func NewHalfRotatedProfile(carriers, marketplaces []string, textDetection bool, source *Source) *CarrierProfile {
	return NewCarrierProfile(CarrierConfig{
		ID:            label.ProfileCarrierHalfRotated,
		Name:          "Carrier label, upper half rotated",
		Carriers:      carriers,
		Marketplaces:  marketplaces,
		TextDetection: textDetection,
		Crop: func(img image.Image) (image.Image, error) {
			half, err := labelimage.CropUpperHalf(img)
			if err != nil {
				return nil, err
			}
			return labelimage.RotateCounterClockwise(half), nil
		},
	}, source)
}

// ID implements Profile
func (p *CarrierProfile) ID() label.ProfileID {
	return p.id
}

// Name implements Profile
func (p *CarrierProfile) Name() string {
	return p.name
}

// Carriers returns the carriers this profile specialises in
func (p *CarrierProfile) Carriers() []string {
	return append([]string(nil), p.carriers...)
}

// Detect implements Profile.
// A known carrier decides on its own: a label for another carrier never falls through to
// marketplace or text matching.
func (p *CarrierProfile) Detect(ctx context.Context, artifact label.SourceArtifact, pctx label.ProcessingContext) (bool, error) {
	if pctx.HasCarrier() {
		return p.carrierSet.contains(pctx.Carrier), nil
	}
	if p.marketplaces.contains(pctx.Marketplace) {
		return true, nil
	}
	if !p.textDetection || !artifact.Kind.IsVector() {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return findIn(p.source.Text(ctx, artifact), p.carriers) != "", nil
}

// Process implements Profile
func (p *CarrierProfile) Process(ctx context.Context, artifact label.SourceArtifact, _ label.ProcessingContext, area label.Area) (*label.NormalizedArtifact, error) {
	img, err := p.source.Load(ctx, artifact)
	if err != nil {
		return nil, err
	}
	cropped, err := p.crop(img)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeTransformFailed, "failed to crop carrier label", err)
	}
	fitted, err := labelimage.FitToArea(cropped, area)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeTransformFailed, "failed to fit carrier label", err)
	}
	return &label.NormalizedArtifact{
		ProfileID: p.id,
		Image:     fitted,
		WidthMM:   label.TargetWidthMM,
		HeightMM:  label.TargetHeightMM,
		DPI:       area.DPI,
	}, nil
}

var (
	_ Profile        = (*CarrierProfile)(nil)
	_ carrierProfile = (*CarrierProfile)(nil)
)
