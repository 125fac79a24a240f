package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/store"
	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/logger"
	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/metrics"
)

const (
	// MineLimit caps the "my complaints" listing.
	MineLimit = 100
	// DefaultRadiusKm is used when the map query has no usable radius.
	DefaultRadiusKm = 2.0

	mapBoxLimit    = 800
	mapRecentLimit = 200
	earthRadiusKm  = 6371.0
	kmPerDegree    = 111.0
)

// ComplaintService handles complaints submitted outside the chat flow and
// complaint queries.
type ComplaintService struct {
	store     store.Store
	publisher EventPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewComplaintService creates a new complaint service.
func NewComplaintService(st store.Store, publisher EventPublisher, log *logger.Logger) *ComplaintService {
	return &ComplaintService{
		store:     st,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// Categories lists the active categories.
func (s *ComplaintService) Categories(ctx context.Context) ([]model.Category, error) {
	cats, err := s.store.ActiveCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if cats == nil {
		cats = []model.Category{}
	}
	return cats, nil
}

// Create stores a form complaint.
func (s *ComplaintService) Create(ctx context.Context, citizenID string, req *model.CreateComplaintRequest) (*model.Complaint, error) {
	ok, err := s.store.CitizenExists(ctx, citizenID)
	if err != nil {
		return nil, fmt.Errorf("failed to check citizen: %w", err)
	}
	if !ok {
		return nil, ErrNoCitizenProfile
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	now := s.now()
	c := &model.Complaint{
		ID:          uuid.Must(uuid.NewV7()).String(),
		CitizenID:   citizenID,
		CategoryID:  req.CategoryID,
		Description: strings.TrimSpace(req.Description),
		Reference:   req.Reference,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		AddressText: req.AddressText,
		Origin:      model.OriginForm,
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateComplaint(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create complaint: %w", err)
	}

	metrics.ComplaintsTotal.WithLabelValues(model.OriginForm).Inc()
	publishEvent(ctx, s.publisher, s.logger, &model.ComplaintEvent{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Type:        model.EventTypeComplaintCreated,
		CitizenID:   citizenID,
		ComplaintID: c.ID,
		Origin:      c.Origin,
		CreatedAt:   now,
	})
	s.logger.Info("complaint created",
		zap.String("complaint_id", c.ID),
		zap.String("origin", c.Origin),
	)
	return c, nil
}

func (s *ComplaintService) validate(ctx context.Context, req *model.CreateComplaintRequest) error {
	switch {
	case req.CategoryID <= 0:
		return fmt.Errorf("%w: category_id is required", ErrInvalidInput)
	case strings.TrimSpace(req.Description) == "":
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	case req.Latitude == nil || *req.Latitude < -90 || *req.Latitude > 90:
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidInput)
	case req.Longitude == nil || *req.Longitude < -180 || *req.Longitude > 180:
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidInput)
	}

	cats, err := s.store.ActiveCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	for _, c := range cats {
		if c.ID == req.CategoryID {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown category_id %d", ErrInvalidInput, req.CategoryID)
}

// Mine returns the citizen's most recent complaints.
func (s *ComplaintService) Mine(ctx context.Context, citizenID string) ([]model.Complaint, error) {
	out, err := s.store.ListComplaints(ctx, citizenID, MineLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	if out == nil {
		out = []model.Complaint{}
	}
	return out, nil
}

// Map returns complaints for map markers. With a centre point, rows are
// prefiltered by bounding box and then by great-circle distance; without one,
// the newest complaints are returned.
func (s *ComplaintService) Map(ctx context.Context, q model.MapQuery) (*model.MapResponse, error) {
	if q.RadiusKm <= 0 || math.IsNaN(q.RadiusKm) || math.IsInf(q.RadiusKm, 0) {
		q.RadiusKm = DefaultRadiusKm
	}

	f := store.ComplaintFilter{
		CategoryID: q.CategoryID,
		Search:     strings.TrimSpace(q.Search),
		Limit:      mapRecentLimit,
	}
	if q.OnlyMine {
		f.CitizenID = q.CitizenID
	}
	if q.OnlyToday {
		now := s.now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		f.Since = &midnight
	}

	geo := q.Latitude != nil && q.Longitude != nil
	if geo {
		f.Box = boundingBox(*q.Latitude, *q.Longitude, q.RadiusKm)
		f.Limit = mapBoxLimit
	}

	rows, err := s.store.SearchComplaints(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to search complaints: %w", err)
	}

	items := make([]model.MapItem, 0, len(rows))
	for _, r := range rows {
		item := model.MapItem{
			ID:           r.ID,
			CategoryID:   r.CategoryID,
			CategoryName: r.CategoryName,
			Description:  r.Description,
			Reference:    r.Reference,
			Status:       r.Status,
			Latitude:     r.Latitude,
			Longitude:    r.Longitude,
			CreatedAt:    r.CreatedAt,
			Mine:         r.CitizenID == q.CitizenID,
		}
		if geo {
			d := haversineKm(*q.Latitude, *q.Longitude, r.Latitude, r.Longitude)
			if d > q.RadiusKm {
				continue
			}
			item.DistanceKm = &d
		}
		items = append(items, item)
	}

	return &model.MapResponse{
		Count:     len(items),
		RadiusKm:  q.RadiusKm,
		OnlyToday: q.OnlyToday,
		OnlyMine:  q.OnlyMine,
		Items:     items,
	}, nil
}

func boundingBox(lat, lng, radiusKm float64) *store.BoundingBox {
	dLat := radiusKm / kmPerDegree
	dLng := dLat
	if cos := math.Cos(lat * math.Pi / 180); cos > 1e-9 {
		dLng = radiusKm / (kmPerDegree * cos)
	}
	return &store.BoundingBox{
		MinLat: lat - dLat,
		MaxLat: lat + dLat,
		MinLng: lng - dLng,
		MaxLng: lng + dLng,
	}
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
