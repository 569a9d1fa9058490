package rendering

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labelbridge/backend/internal/domain/label"
)

var kindsByMIME = []struct {
	mime string
	kind label.ArtifactKind
}{
	{"application/pdf", label.ArtifactKindPDF},
	{"image/svg+xml", label.ArtifactKindSVG},
	{"image/png", label.ArtifactKindPNG},
	{"image/jpeg", label.ArtifactKindJPEG},
	{"image/gif", label.ArtifactKindGIF},
	{"image/bmp", label.ArtifactKindBMP},
	{"image/tiff", label.ArtifactKindTIFF},
	{"image/webp", label.ArtifactKindWEBP},
}

// DetectKind sniffs the content of a file. Unrecognized content yields ArtifactKindUnknown.
func DetectKind(path string) (label.ArtifactKind, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return label.ArtifactKindUnknown, fmt.Errorf("failed to sniff %s: %w", path, err)
	}
	for _, candidate := range kindsByMIME {
		if mt.Is(candidate.mime) {
			return candidate.kind, nil
		}
	}
	return label.ArtifactKindUnknown, nil
}

// Extension returns the canonical file extension for a kind
func Extension(kind label.ArtifactKind) string {
	switch kind {
	case label.ArtifactKindJPEG:
		return ".jpg"
	case label.ArtifactKindTIFF:
		return ".tif"
	case label.ArtifactKindUnknown:
		return ".bin"
	}
	return "." + kind.String()
}
