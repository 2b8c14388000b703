package cropdisease

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/farma-sahayak/sahayak-server/internal/httperr"
	"github.com/farma-sahayak/sahayak-server/internal/middleware"
	"github.com/farma-sahayak/sahayak-server/internal/upstream"
)

const formField = "image"

// Handler exposes the /crop-disease endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type uploadInfo struct {
	ImageID          string `json:"image_id"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	ContentType      string `json:"content_type"`
	SizeBytes        int    `json:"size_bytes"`
	UploadedAt       string `json:"uploaded_at"`
}

type diseaseInfo struct {
	Name     string `json:"disease_name"`
	Severity string `json:"severity"`
}

type remedyInfo struct {
	Steps         string `json:"remedy_steps"`
	RecheckDays   int    `json:"recheck_days"`
	EstimatedCost int    `json:"estimated_cost"`
}

type analysisInfo struct {
	Disease diseaseInfo `json:"disease"`
	Remedy  *remedyInfo `json:"remedy"`
}

// Upload handles POST /crop-disease/upload-image.
func (h *Handler) Upload(c *fiber.Ctx) error {
	in, err := h.readImage(c)
	if err != nil {
		return err
	}
	img, err := h.service.Upload(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return asHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "Image uploaded successfully",
		"data":    fiber.Map{"upload_info": toUploadInfo(img)},
	})
}

// Analyze handles POST /crop-disease/analyze. When the diagnosis fails after
// the image was stored the response is a partial success carrying the upload.
func (h *Handler) Analyze(c *fiber.Ctx) error {
	in, err := h.readImage(c)
	if err != nil {
		return err
	}
	img, analysis, err := h.service.Analyze(c.UserContext(), middleware.UserID(c), in)
	var analysisErr *AnalysisError
	if errors.As(err, &analysisErr) {
		if errors.Is(err, ErrNotConfigured) {
			return asHTTPError(err)
		}
		return c.JSON(fiber.Map{
			"status":  "partial_success",
			"message": "Image uploaded but analysis failed",
			"data": fiber.Map{
				"upload_info": toUploadInfo(analysisErr.Image),
				"analysis":    nil,
			},
		})
	}
	if err != nil {
		return asHTTPError(err)
	}

	message := "Crop analyzed successfully"
	if analysis.Disease.Healthy() {
		message = "No disease detected"
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": message,
		"data": fiber.Map{
			"upload_info": toUploadInfo(img),
			"analysis":    toAnalysisInfo(analysis),
		},
	})
}

// Health handles GET /crop-disease/health.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "crop-disease",
		"message": "Crop disease detection service is running",
	})
}

func (h *Handler) readImage(c *fiber.Ctx) (UploadInput, error) {
	header, err := c.FormFile(formField)
	if err != nil {
		return UploadInput{}, httperr.BadRequest("invalid_request", fmt.Sprintf("multipart field %q is required", formField))
	}
	if h.service.maxBytes > 0 && header.Size > int64(h.service.maxBytes) {
		return UploadInput{}, asHTTPError(ErrImageTooLarge)
	}
	file, err := header.Open()
	if err != nil {
		return UploadInput{}, httperr.Internal(fmt.Errorf("open upload: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return UploadInput{}, httperr.Internal(fmt.Errorf("read upload: %w", err))
	}
	return UploadInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

func toUploadInfo(img Image) uploadInfo {
	return uploadInfo{
		ImageID:          img.ID,
		Filename:         img.Filename,
		OriginalFilename: img.OriginalFilename,
		ContentType:      img.ContentType,
		SizeBytes:        img.Size(),
		UploadedAt:       img.UploadedAt.Format(time.RFC3339),
	}
}

func toAnalysisInfo(a Analysis) analysisInfo {
	info := analysisInfo{Disease: diseaseInfo{Name: a.Disease.Name, Severity: a.Disease.Severity}}
	if a.Remedy != nil {
		info.Remedy = &remedyInfo{
			Steps:         a.Remedy.Steps,
			RecheckDays:   a.Remedy.RecheckDays,
			EstimatedCost: a.Remedy.EstimatedCost,
		}
	}
	return info
}

func asHTTPError(err error) error {
	var statusErr *upstream.StatusError
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return httperr.BadRequest("invalid_format", "Invalid image format. Supported formats: "+strings.Join(SupportedExtensions, ", "))
	case errors.Is(err, ErrEmptyImage):
		return httperr.BadRequest("invalid_request", err.Error())
	case errors.Is(err, ErrImageTooLarge):
		return httperr.New(fiber.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
	case errors.Is(err, ErrNotConfigured):
		return httperr.New(fiber.StatusServiceUnavailable, "detection_unavailable", err.Error())
	case errors.As(err, &statusErr):
		return httperr.BadGateway("detection_failed", err)
	default:
		return httperr.Internal(err)
	}
}
