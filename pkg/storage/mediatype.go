package storage

import (
	"fmt"
	"mime"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMediaType is assigned when the caller declares no media type and
// content sniffing is disabled.
const DefaultMediaType = "application/octet-stream"

// resolveMediaType decides the media type recorded for uploaded content.
//
// A declared type must parse as a valid media type expression; anything
// else fails with ErrBadMediaType. When no type is declared the result
// depends on the sniff flag: sniffing inspects the content's magic bytes
// (falling back to application/octet-stream for unrecognized data), while
// the default path assigns the generic binary type without looking at the
// content.
func resolveMediaType(declared string, content []byte, sniff bool) (string, error) {
	if declared == "" {
		if sniff {
			return mimetype.Detect(content).String(), nil
		}
		return DefaultMediaType, nil
	}

	if _, _, err := mime.ParseMediaType(declared); err != nil {
		return "", fmt.Errorf("%w: %q", ErrBadMediaType, declared)
	}

	return declared, nil
}
