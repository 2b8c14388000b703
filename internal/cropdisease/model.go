package cropdisease

import (
	"path/filepath"
	"strings"
	"time"
)

// HealthyLabel is the disease name the model uses for a healthy crop.
const HealthyLabel = "Healthy"

// supportedTypes maps accepted file extensions to their MIME types.
var supportedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
}

// SupportedExtensions lists the accepted file extensions.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff"}

// Image is an uploaded crop photo.
type Image struct {
	ID               string
	UserID           int64
	Filename         string
	OriginalFilename string
	ContentType      string
	Data             []byte
	UploadedAt       time.Time
}

// Size is the image size in bytes.
func (i Image) Size() int { return len(i.Data) }

// Disease is the model's diagnosis of an image.
type Disease struct {
	Name     string `json:"disease_name"`
	Severity string `json:"severity"`
}

// Healthy reports whether no disease was found.
func (d Disease) Healthy() bool {
	return strings.EqualFold(strings.TrimSpace(d.Name), HealthyLabel)
}

// Remedy is the treatment advice for a diagnosed disease.
type Remedy struct {
	Steps         string `json:"remedy_steps"`
	RecheckDays   int    `json:"recheck_days"`
	EstimatedCost int    `json:"estimated_cost"`
}

// Analysis combines a diagnosis with its remedy. Remedy is nil for healthy
// crops.
type Analysis struct {
	Disease Disease
	Remedy  *Remedy
}

// UploadInput is an image received from a client.
type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
}

func extensionOf(filename string) (string, string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	mimeType, ok := supportedTypes[ext]
	return ext, mimeType, ok
}
