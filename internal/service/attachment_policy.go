package service

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/spec-kit/support-tickets/internal/config"
	apperrors "github.com/spec-kit/support-tickets/pkg/util/errorutil"
)

const (
	maxFilenameLength = 255
	fallbackFilename  = "attachment"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// AttachmentPolicy validates declared attachment metadata. The declared mime is
// trusted; file content is never inspected.
type AttachmentPolicy struct {
	MaxBytes int64
}

// NewAttachmentPolicy falls back to the default ceiling for non-positive values.
func NewAttachmentPolicy(maxBytes int64) AttachmentPolicy {
	if maxBytes <= 0 {
		maxBytes = config.DefaultAttachmentMaxBytes
	}
	return AttachmentPolicy{MaxBytes: maxBytes}
}

// AttachmentSpec is accepted attachment metadata.
type AttachmentSpec struct {
	Filename  string
	Mime      string
	SizeBytes int64
}

// Validate checks filename, mime and size in that order.
func (p AttachmentPolicy) Validate(filename, mime string, sizeBytes float64) (AttachmentSpec, error) {
	if strings.TrimSpace(filename) == "" {
		return AttachmentSpec{}, apperrors.NewBadRequest("filename is required")
	}
	if !allowedMime(mime) {
		return AttachmentSpec{}, apperrors.NewBadRequest("mime must be application/pdf or image/*")
	}
	if math.IsNaN(sizeBytes) || math.IsInf(sizeBytes, 0) || sizeBytes <= 0 || sizeBytes != math.Trunc(sizeBytes) {
		return AttachmentSpec{}, apperrors.NewBadRequest("sizeBytes must be a positive integer")
	}
	if sizeBytes > float64(p.MaxBytes) {
		return AttachmentSpec{}, apperrors.NewBadRequest(fmt.Sprintf("sizeBytes must be <= %d", p.MaxBytes))
	}
	return AttachmentSpec{
		Filename:  SanitizeFilename(filename),
		Mime:      mime,
		SizeBytes: int64(sizeBytes),
	}, nil
}

func allowedMime(mime string) bool {
	return mime == "application/pdf" || strings.HasPrefix(mime, "image/")
}

// SanitizeFilename keeps [A-Za-z0-9_.-], replaces everything else with '_',
// drops leading underscores and caps the length.
func SanitizeFilename(name string) string {
	cleaned := unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	cleaned = strings.TrimLeft(cleaned, "_")
	if len(cleaned) > maxFilenameLength {
		cleaned = cleaned[:maxFilenameLength]
	}
	if cleaned == "" {
		return fallbackFilename
	}
	return cleaned
}

// ObjectKey derives the storage key for an attachment from trusted identifiers.
func ObjectKey(tenantID, ticketID, attachmentID, sanitizedFilename string) string {
	return fmt.Sprintf("customers/%s/tickets/%s/%s-%s", tenantID, ticketID, attachmentID, sanitizedFilename)
}
