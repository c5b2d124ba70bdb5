package thumbgen

import (
	"fmt"
	"strings"

	"thumbly/internal/domain"
)

const maxInputImages = 2

// ValidateRequest checks the decoded request before any network work starts
// and resolves each image's MIME type.
func ValidateRequest(req *GenerateRequest) (*ValidatedRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", domain.ErrInvalidInput)
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrMissingField)
	}
	if len(req.UploadResponses) == 0 {
		return nil, fmt.Errorf("%w: at least one image is required", domain.ErrMissingField)
	}
	if len(req.UploadResponses) > maxInputImages {
		return nil, fmt.Errorf("%w: got %d images, maximum is %d", domain.ErrTooManyImages, len(req.UploadResponses), maxInputImages)
	}

	images := make([]SourceImage, 0, len(req.UploadResponses))
	for i, item := range req.UploadResponses {
		src := item.SourceURL()
		if src == "" {
			return nil, fmt.Errorf("%w: image %d has no hosted url", domain.ErrMissingField, i+1)
		}
		if format := declaredUnsupportedFormat(item.Name, item.FileType); format != "" {
			return nil, fmt.Errorf("%w: %s is not supported, upload png, jpeg or webp", domain.ErrUnsupportedMediaType, format)
		}
		mime := ResolveMime(item.Name, item.FileType)
		if !IsAllowedMime(mime) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMediaType, mime)
		}
		images = append(images, SourceImage{URL: src, Name: item.Name, Mime: mime})
	}

	return &ValidatedRequest{
		Query:  query,
		Images: images,
		Mode:   ParseMode(req.Mode),
		Locale: req.Locale,
	}, nil
}
