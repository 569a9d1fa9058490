package label

import (
	"testing"

	"github.com/labelbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPreparedLabel(t *testing.T) {
	recordID := uuid.New()

	tests := []struct {
		name        string
		recordID    uuid.UUID
		profileID   ProfileID
		footer      *FooterConfig
		expectError bool
		errorMsg    string
	}{
		{
			name:      "without footer",
			recordID:  recordID,
			profileID: ProfileUniversal,
		},
		{
			name:      "with footer",
			recordID:  recordID,
			profileID: ProfileCarrierHalfRotated,
			footer:    &FooterConfig{IncludeTitle: true},
		},
		{
			name:        "nil record",
			recordID:    uuid.Nil,
			profileID:   ProfileUniversal,
			expectError: true,
			errorMsg:    "Record ID cannot be empty",
		},
		{
			name:        "empty profile",
			recordID:    recordID,
			expectError: true,
			errorMsg:    "Profile ID cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, err := NewPreparedLabel(tt.recordID, tt.profileID, tt.footer)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.True(t, shared.HasCode(err, shared.CodeInvalidInput))
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, label.ID)
			assert.Equal(t, tt.recordID, label.RecordID)
			assert.Equal(t, tt.profileID, label.ProfileID)
			assert.Equal(t, TargetWidthMM, label.WidthMM)
			assert.Equal(t, TargetHeightMM, label.HeightMM)
			assert.Equal(t, TargetDPI, label.DPI)
			assert.Equal(t, tt.footer != nil, label.FooterApplied)
			assert.False(t, label.CreatedAt.IsZero())
		})
	}
}

func TestPreparedLabel_FooterSnapshotIsCopied(t *testing.T) {
	footer := &FooterConfig{IncludeDate: true}
	label, err := NewPreparedLabel(uuid.New(), ProfileUniversal, footer)
	require.NoError(t, err)

	footer.IncludeTitle = true
	require.NotNil(t, label.FooterConfig)
	assert.False(t, label.FooterConfig.IncludeTitle)
	assert.True(t, label.FooterConfig.IncludeDate)
}

func TestPreparedLabel_RecordOutput(t *testing.T) {
	label, err := NewPreparedLabel(uuid.New(), ProfileUniversal, nil)
	require.NoError(t, err)

	assert.Error(t, label.RecordOutput(""))
	require.NoError(t, label.RecordOutput("/var/labels/2026/10/a.pdf"))
	assert.Equal(t, "/var/labels/2026/10/a.pdf", label.OutputPath)

	err = label.RecordOutput("/var/labels/other.pdf")
	require.Error(t, err)
	assert.True(t, shared.HasCode(err, shared.CodeInvalidState))
}

func TestArtifactKind(t *testing.T) {
	tests := []struct {
		kind   ArtifactKind
		vector bool
		raster bool
	}{
		{ArtifactKindPDF, true, false},
		{ArtifactKindSVG, true, false},
		{ArtifactKindPNG, false, true},
		{ArtifactKindJPEG, false, true},
		{ArtifactKindGIF, false, true},
		{ArtifactKindBMP, false, true},
		{ArtifactKindTIFF, false, true},
		{ArtifactKindWEBP, false, true},
		{ArtifactKindUnknown, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.vector, tt.kind.IsVector())
			assert.Equal(t, tt.raster, tt.kind.IsRaster())
		})
	}
}

func TestFooterFieldsFromNames(t *testing.T) {
	cfg, ok := FooterFieldsFromNames([]string{"date", "product"})
	require.True(t, ok)
	assert.Equal(t, FooterConfig{IncludeProductNumber: true, IncludeDate: true}, *cfg)
	assert.False(t, cfg.IsEmpty())

	_, ok = FooterFieldsFromNames([]string{"price"})
	assert.False(t, ok)

	cfg, ok = FooterFieldsFromNames(nil)
	require.True(t, ok)
	assert.True(t, cfg.IsEmpty())
}
