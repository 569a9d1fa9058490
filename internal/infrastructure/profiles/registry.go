package profiles

import (
	"context"
	"fmt"

	"github.com/labelbridge/backend/internal/domain/label"
	"github.com/labelbridge/backend/internal/domain/shared"
	"github.com/labelbridge/backend/internal/infrastructure/labelimage"
	"go.uber.org/zap"
)

// Registry classifies artifacts into profiles. It is built once at startup and is read-only
// afterwards, so it is safe for concurrent use.
type Registry struct {
	ordered  []Profile
	byID     map[label.ProfileID]Profile
	fallback Profile
	source   *Source
	logger   *zap.Logger
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithCarrierDiscovery lets the registry read page text to discover the carrier of labels
// whose context carried none
func WithCarrierDiscovery(source *Source) RegistryOption {
	return func(r *Registry) {
		r.source = source
	}
}

// WithLogger sets the registry logger
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry registers specific profiles in order, followed by the fallback.
// The fallback must detect every artifact; duplicate ids are rejected.
func NewRegistry(fallback Profile, specific []Profile, opts ...RegistryOption) (*Registry, error) {
	if fallback == nil {
		return nil, fmt.Errorf("profile registry requires a fallback profile")
	}

	r := &Registry{
		byID:     make(map[label.ProfileID]Profile, len(specific)+1),
		fallback: fallback,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("profiles")

	for _, p := range append(append([]Profile(nil), specific...), fallback) {
		if p == nil {
			return nil, fmt.Errorf("profile registry got a nil profile")
		}
		if _, exists := r.byID[p.ID()]; exists {
			return nil, fmt.Errorf("profile %q registered twice", p.ID())
		}
		r.byID[p.ID()] = p
		r.ordered = append(r.ordered, p)
	}
	return r, nil
}

// DetectProfile returns the id of the first profile that detects the artifact.
// A detector that errors or panics counts as not matching, so this never fails.
func (r *Registry) DetectProfile(ctx context.Context, artifact label.SourceArtifact, pctx label.ProcessingContext) label.ProfileID {
	return r.detect(ctx, artifact, pctx).ID()
}

func (r *Registry) detect(ctx context.Context, artifact label.SourceArtifact, pctx label.ProcessingContext) Profile {
	for _, p := range r.ordered {
		if p == r.fallback {
			break
		}
		if r.safeDetect(ctx, p, artifact, pctx) {
			return p
		}
	}
	return r.fallback
}

func (r *Registry) safeDetect(ctx context.Context, p Profile, artifact label.SourceArtifact, pctx label.ProcessingContext) (matched bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("Profile detection panicked",
				zap.String("profile", p.ID().String()),
				zap.String("recordId", pctx.RecordID.String()),
				zap.Any("panic", rec))
			matched = false
		}
	}()

	ok, err := p.Detect(ctx, artifact, pctx)
	if err != nil {
		r.logger.Warn("Profile detection failed",
			zap.String("profile", p.ID().String()),
			zap.String("recordId", pctx.RecordID.String()),
			zap.Error(err))
		return false
	}
	return ok
}

// Get returns a registered profile by id
func (r *Registry) Get(id label.ProfileID) (Profile, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Profiles lists the registered profiles in detection order
func (r *Registry) Profiles() []Info {
	infos := make([]Info, 0, len(r.ordered))
	for _, p := range r.ordered {
		info := Info{ID: p.ID(), Name: p.Name(), Fallback: p == r.fallback}
		if cp, ok := p.(carrierProfile); ok {
			info.Carriers = cp.Carriers()
		}
		infos = append(infos, info)
	}
	return infos
}

// KnownCarriers returns every carrier some profile specialises in, in detection order
func (r *Registry) KnownCarriers() []string {
	var carriers []string
	for _, p := range r.ordered {
		if cp, ok := p.(carrierProfile); ok {
			carriers = append(carriers, cp.Carriers()...)
		}
	}
	return carriers
}

// Process classifies the artifact and runs the chosen profile.
// The result always reports the label target size and holds a raster of exactly area's pixel
// size, whatever the profile returned.
func (r *Registry) Process(ctx context.Context, artifact label.SourceArtifact, pctx label.ProcessingContext, area label.Area) (*label.NormalizedArtifact, error) {
	p := r.detect(ctx, artifact, pctx)
	logger := r.logger.With(
		zap.String("profile", p.ID().String()),
		zap.String("recordId", pctx.RecordID.String()),
		zap.String("kind", artifact.Kind.String()))

	result, err := p.Process(ctx, artifact, pctx, area)
	if err != nil {
		logger.Debug("Profile processing failed", zap.Error(err))
		return nil, err
	}
	if result == nil || result.Image == nil {
		return nil, shared.NewDomainError(shared.CodeTransformFailed, fmt.Sprintf("profile %s produced no image", p.ID()))
	}

	if !labelimage.HasAreaSize(result.Image, area) {
		logger.Warn("Profile returned an off-size raster, refitting",
			zap.Int("width", result.Image.Bounds().Dx()),
			zap.Int("height", result.Image.Bounds().Dy()))
		fitted, err := labelimage.FitToArea(result.Image, area)
		if err != nil {
			return nil, shared.WrapDomainError(shared.CodeTransformFailed, "failed to fit label", err)
		}
		result.Image = fitted
	}
	result.ProfileID = p.ID()
	result.WidthMM = label.TargetWidthMM
	result.HeightMM = label.TargetHeightMM
	result.DPI = area.DPI

	if result.DetectedCarrier == "" && !pctx.HasCarrier() && r.source != nil {
		result.DetectedCarrier = findIn(r.source.Text(ctx, artifact), r.KnownCarriers())
		if result.DetectedCarrier != "" {
			logger.Debug("Carrier discovered in label text", zap.String("carrier", result.DetectedCarrier))
		}
	}

	logger.Debug("Label normalized")
	return result, nil
}
