package cropdisease

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnsupportedFormat is returned for files whose extension is not an accepted image type.
	ErrUnsupportedFormat = fmt.Errorf("invalid image format. Supported formats: %s", strings.Join(SupportedExtensions, ", "))
	// ErrEmptyImage is returned for uploads without content.
	ErrEmptyImage = errors.New("image is empty")
	// ErrImageTooLarge is returned when an upload exceeds the configured limit.
	ErrImageTooLarge = errors.New("image is too large")
)

// AnalysisError wraps a diagnosis failure that happened after the image was stored.
type AnalysisError struct {
	Image Image
	Err   error
}

func (e *AnalysisError) Error() string { return "analyze crop image: " + e.Err.Error() }

func (e *AnalysisError) Unwrap() error { return e.Err }

// Service stores crop images and runs them through the vision model.
type Service struct {
	repo     Repository
	analyzer Analyzer
	logger   *slog.Logger
	maxBytes int
	now      func() time.Time
}

func NewService(repo Repository, analyzer Analyzer, logger *slog.Logger, maxBytes int) *Service {
	return &Service{repo: repo, analyzer: analyzer, logger: logger, maxBytes: maxBytes, now: time.Now}
}

// Upload validates and stores an image for userID.
func (s *Service) Upload(ctx context.Context, userID int64, in UploadInput) (Image, error) {
	ext, mimeType, ok := extensionOf(in.Filename)
	if !ok {
		return Image{}, ErrUnsupportedFormat
	}
	if len(in.Data) == 0 {
		return Image{}, ErrEmptyImage
	}
	if s.maxBytes > 0 && len(in.Data) > s.maxBytes {
		return Image{}, ErrImageTooLarge
	}

	contentType := in.ContentType
	if !strings.HasPrefix(contentType, "image/") {
		contentType = mimeType
	}
	now := s.now().UTC()
	id := uuid.New()
	img := Image{
		ID:               id.String(),
		UserID:           userID,
		Filename:         fmt.Sprintf("crop_image_%s_%s%s", now.Format("20060102_150405"), id.String()[:8], ext),
		OriginalFilename: in.Filename,
		ContentType:      contentType,
		Data:             in.Data,
		UploadedAt:       now,
	}
	if err := s.repo.Save(ctx, img); err != nil {
		return Image{}, fmt.Errorf("save crop image: %w", err)
	}
	return img, nil
}

// Analyze stores the image, diagnoses it and, unless the crop is healthy,
// asks for a remedy. Failures after the upload are returned as *AnalysisError
// so callers can still report the stored image.
func (s *Service) Analyze(ctx context.Context, userID int64, in UploadInput) (Image, Analysis, error) {
	img, err := s.Upload(ctx, userID, in)
	if err != nil {
		return Image{}, Analysis{}, err
	}

	disease, err := s.analyzer.DetectDisease(ctx, img.ContentType, img.Data)
	if err != nil {
		s.logger.Warn("crop disease detection failed", "image_id", img.ID, "error", err)
		return img, Analysis{}, &AnalysisError{Image: img, Err: err}
	}
	analysis := Analysis{Disease: disease}
	if disease.Healthy() {
		return img, analysis, nil
	}

	remedy, err := s.analyzer.SuggestRemedy(ctx, disease)
	if err != nil {
		s.logger.Warn("crop remedy lookup failed", "image_id", img.ID, "disease", disease.Name, "error", err)
		return img, analysis, &AnalysisError{Image: img, Err: err}
	}
	analysis.Remedy = &remedy
	return img, analysis, nil
}
