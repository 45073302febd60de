package intake

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"wastereport/internal/reports"
	"wastereport/internal/uploads"
	"wastereport/pkg/logger"
)

// PhotoSink persists an uploaded photo and returns its public URL.
// Remove deletes a stored photo by that URL.
type PhotoSink interface {
	Store(ctx context.Context, p uploads.Photo) (string, error)
	Remove(ctx context.Context, url string) error
}

// SubmitRequest carries the raw public form values.
type SubmitRequest struct {
	Address     string
	Description string
	Latitude    string
	Longitude   string
	Photo       *uploads.Photo
}

// ValidationError names the offending input. Nothing is stored when it is returned.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"error"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "intake: " + e.Message
	}
	return fmt.Sprintf("intake: %s: %s", e.Field, e.Message)
}

const maxDescriptionLength = 4000

type Service struct {
	store  reports.Store
	photos PhotoSink
	clock  func() time.Time
}

// NewService wires the intake flow. photos may be nil, in which case
// submitted photos are rejected.
func NewService(store reports.Store, photos PhotoSink) *Service {
	return &Service{store: store, photos: photos, clock: time.Now}
}

// Submit validates a public submission and creates a Report with status
// received. It returns the new Report id.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	address := strings.TrimSpace(req.Address)
	description := strings.TrimSpace(req.Description)

	lat, err := parseCoordinate("lat", req.Latitude, 90)
	if err != nil {
		return "", err
	}
	lng, err := parseCoordinate("lng", req.Longitude, 180)
	if err != nil {
		return "", err
	}
	if address == "" && (lat == nil || lng == nil) {
		return "", &ValidationError{Message: "address or both coordinates are required"}
	}
	if len([]rune(description)) > maxDescriptionLength {
		return "", &ValidationError{Field: "description", Message: "description is too long"}
	}

	var photoURL string
	if req.Photo != nil && req.Photo.Filename != "" {
		if s.photos == nil {
			return "", &ValidationError{Field: "photo", Message: "photo uploads are disabled"}
		}
		url, err := s.photos.Store(ctx, *req.Photo)
		if err != nil {
			if errors.Is(err, uploads.ErrTooLarge) {
				return "", &ValidationError{Field: "photo", Message: "photo is too large"}
			}
			logger.From(ctx).Error("photo upload failed", "filename", req.Photo.Filename, "err", err)
			return "", fmt.Errorf("store photo: %w", err)
		}
		photoURL = url
	}

	r := reports.Report{
		CreatedAt:   s.clock().UTC(),
		Address:     address,
		Latitude:    lat,
		Longitude:   lng,
		Description: description,
		PhotoURL:    photoURL,
		Status:      reports.StatusReceived,
	}
	id, err := s.store.Create(ctx, r)
	if err != nil {
		if photoURL != "" {
			s.discardPhoto(ctx, photoURL)
		}
		return "", err
	}
	logger.From(ctx).Info("report submitted", "report_id", id, "has_photo", photoURL != "")
	return id, nil
}

// discardPhoto removes a photo whose report was never created. A failed
// removal is logged with the URL so the object can be cleaned up by hand.
func (s *Service) discardPhoto(ctx context.Context, url string) {
	if err := s.photos.Remove(context.WithoutCancel(ctx), url); err != nil {
		logger.From(ctx).Error("orphaned photo left behind", "photo_url", url, "err", err)
	}
}

// parseCoordinate returns nil for blank input.
func parseCoordinate(field, raw string, limit float64) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &ValidationError{Field: field, Message: field + " must be a number"}
	}
	if v < -limit || v > limit {
		return nil, &ValidationError{Field: field, Message: fmt.Sprintf("%s must be between %g and %g", field, -limit, limit)}
	}
	return &v, nil
}
