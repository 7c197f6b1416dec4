package memorial

import (
	"context"
	defError "errors"
	"math"
	"sort"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"

	"gorm.io/gorm"
)

const earthRadiusKm = 6371.0

type Service interface {
	CreateMemorial(ctx context.Context, actor domain.Principal, input CreateMemorialInput) (*Memorial, error)
	GetMemorial(ctx context.Context, id string) (*Memorial, error)
	ListFeed(ctx context.Context, page, pageSize int) ([]Memorial, MemorialsMeta, error)
	Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]NearbyMemorial, error)
	UpdateMemorial(ctx context.Context, id string, actor domain.Principal, input UpdateMemorialInput) (*Memorial, error)
	DeleteMemorial(ctx context.Context, id string, actor domain.Principal) error
}

type CreateMemorialInput struct {
	DisplayName string
	Description *string
	Lat         *float64
	Lng         *float64
	Published   bool
}

type UpdateMemorialInput struct {
	DisplayName *string
	Description *string
	Lat         *float64
	Lng         *float64
	Published   *bool
}

type NearbyMemorial struct {
	Memorial
	DistanceKm float64 `json:"distance_km"`
}

type DefaultService struct {
	repository MemorialRepository
}

func NewService(repository MemorialRepository) Service {
	return &DefaultService{repository: repository}
}

func (s *DefaultService) CreateMemorial(ctx context.Context, actor domain.Principal, input CreateMemorialInput) (*Memorial, error) {
	memorial := &Memorial{
		OwnerUserID: actor.UserID,
		DisplayName: input.DisplayName,
		Description: input.Description,
		Lat:         input.Lat,
		Lng:         input.Lng,
		Published:   input.Published,
	}

	if err := s.repository.Create(ctx, memorial); err != nil {
		return nil, err
	}
	return memorial, nil
}

func (s *DefaultService) GetMemorial(ctx context.Context, id string) (*Memorial, error) {
	return s.resolve(ctx, id)
}

func (s *DefaultService) ListFeed(ctx context.Context, page, pageSize int) ([]Memorial, MemorialsMeta, error) {
	return s.repository.ListPublished(ctx, page, pageSize)
}

// Nearby computes distances client-side with Haversine over memorials that
// have coordinates. Fine at this catalog size; a geo index is not warranted.
func (s *DefaultService) Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]NearbyMemorial, error) {
	memorials, err := s.repository.ListWithCoordinates(ctx)
	if err != nil {
		return nil, err
	}

	nearby := make([]NearbyMemorial, 0, len(memorials))
	for _, m := range memorials {
		d := Haversine(lat, lng, *m.Lat, *m.Lng)
		if d <= radiusKm {
			nearby = append(nearby, NearbyMemorial{Memorial: m, DistanceKm: d})
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

func (s *DefaultService) UpdateMemorial(ctx context.Context, id string, actor domain.Principal, input UpdateMemorialInput) (*Memorial, error) {
	memorial, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if memorial.OwnerUserID != actor.UserID {
		return nil, errors.Forbidden("Only the owner can update a memorial", nil)
	}

	if input.DisplayName != nil {
		memorial.DisplayName = *input.DisplayName
	}
	if input.Description != nil {
		memorial.Description = input.Description
	}
	if input.Lat != nil {
		memorial.Lat = input.Lat
	}
	if input.Lng != nil {
		memorial.Lng = input.Lng
	}
	if input.Published != nil {
		memorial.Published = *input.Published
	}

	if err := s.repository.Save(ctx, memorial); err != nil {
		return nil, err
	}
	return memorial, nil
}

func (s *DefaultService) DeleteMemorial(ctx context.Context, id string, actor domain.Principal) error {
	memorial, err := s.resolve(ctx, id)
	if err != nil {
		return err
	}

	if memorial.OwnerUserID != actor.UserID {
		return errors.Forbidden("Only the owner can delete a memorial", nil)
	}

	return s.repository.Delete(ctx, id)
}

func (s *DefaultService) resolve(ctx context.Context, id string) (*Memorial, error) {
	memorial, err := s.repository.FindByID(ctx, id)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Memorial not found", err)
		}
		return nil, err
	}
	return memorial, nil
}

// Haversine returns the great-circle distance between two points in km.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
