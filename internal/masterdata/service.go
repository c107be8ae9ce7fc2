package masterdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput marks validation failures on master data writes.
var ErrInvalidInput = errors.New("invalid master data input")

var plotStatuses = map[string]bool{
	PlotAvailable: true,
	PlotBooked:    true,
	PlotSold:      true,
}

var plotCategories = map[string]bool{
	"residential": true,
	"commercial":  true,
}

var propertyTypes = map[string]bool{
	"house":     true,
	"apartment": true,
	"shop":      true,
	"office":    true,
	"farmhouse": true,
}

var propertyPurposes = map[string]bool{
	"sale": true,
	"rent": true,
}

// service implements Service interface.
type service struct {
	repo Repository
}

// NewService creates a new master data service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// City operations
func (s *service) ListCities(ctx context.Context) ([]City, error) {
	return s.repo.ListCities(ctx)
}

func (s *service) CreateCity(ctx context.Context, city City) (City, error) {
	city.Name = strings.TrimSpace(city.Name)
	if city.Name == "" {
		return City{}, fmt.Errorf("%w: city name is required", ErrInvalidInput)
	}
	return s.repo.CreateCity(ctx, city)
}

// Society operations
func (s *service) ListSocieties(ctx context.Context, filters ListFilters) ([]Society, int, error) {
	return s.repo.ListSocieties(ctx, filters)
}

func (s *service) GetSociety(ctx context.Context, id int64) (Society, error) {
	if id <= 0 {
		return Society{}, fmt.Errorf("%w: invalid society id", ErrInvalidInput)
	}
	return s.repo.GetSociety(ctx, id)
}

func (s *service) CreateSociety(ctx context.Context, society Society) (Society, error) {
	if err := validateSociety(society); err != nil {
		return Society{}, err
	}
	return s.repo.CreateSociety(ctx, society)
}

func (s *service) UpdateSociety(ctx context.Context, id int64, society Society) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid society id", ErrInvalidInput)
	}
	if err := validateSociety(society); err != nil {
		return err
	}
	return s.repo.UpdateSociety(ctx, id, society)
}

func (s *service) DeleteSociety(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid society id", ErrInvalidInput)
	}
	return s.repo.DeleteSociety(ctx, id)
}

// Block operations
func (s *service) ListBlocks(ctx context.Context, societyID *int64) ([]Block, error) {
	return s.repo.ListBlocks(ctx, societyID)
}

func (s *service) CreateBlock(ctx context.Context, block Block) (Block, error) {
	if block.SocietyID <= 0 || strings.TrimSpace(block.Name) == "" {
		return Block{}, fmt.Errorf("%w: block needs a society and a name", ErrInvalidInput)
	}
	return s.repo.CreateBlock(ctx, block)
}

func (s *service) UpdateBlock(ctx context.Context, id int64, block Block) error {
	if id <= 0 || strings.TrimSpace(block.Name) == "" {
		return fmt.Errorf("%w: block needs an id and a name", ErrInvalidInput)
	}
	return s.repo.UpdateBlock(ctx, id, block)
}

func (s *service) DeleteBlock(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid block id", ErrInvalidInput)
	}
	return s.repo.DeleteBlock(ctx, id)
}

// Street operations
func (s *service) ListStreets(ctx context.Context, blockID *int64) ([]Street, error) {
	return s.repo.ListStreets(ctx, blockID)
}

func (s *service) CreateStreet(ctx context.Context, street Street) (Street, error) {
	if street.BlockID <= 0 || strings.TrimSpace(street.Name) == "" {
		return Street{}, fmt.Errorf("%w: street needs a block and a name", ErrInvalidInput)
	}
	return s.repo.CreateStreet(ctx, street)
}

func (s *service) UpdateStreet(ctx context.Context, id int64, street Street) error {
	if id <= 0 || strings.TrimSpace(street.Name) == "" {
		return fmt.Errorf("%w: street needs an id and a name", ErrInvalidInput)
	}
	return s.repo.UpdateStreet(ctx, id, street)
}

func (s *service) DeleteStreet(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid street id", ErrInvalidInput)
	}
	return s.repo.DeleteStreet(ctx, id)
}

// Plot operations
func (s *service) ListPlots(ctx context.Context, filters ListFilters) ([]Plot, int, error) {
	return s.repo.ListPlots(ctx, filters)
}

func (s *service) GetPlot(ctx context.Context, id int64) (Plot, error) {
	if id <= 0 {
		return Plot{}, fmt.Errorf("%w: invalid plot id", ErrInvalidInput)
	}
	return s.repo.GetPlot(ctx, id)
}

func (s *service) CreatePlot(ctx context.Context, plot Plot) (Plot, error) {
	if plot.Status == "" {
		plot.Status = PlotAvailable
	}
	if err := validatePlot(plot); err != nil {
		return Plot{}, err
	}
	return s.repo.CreatePlot(ctx, plot)
}

func (s *service) UpdatePlot(ctx context.Context, id int64, plot Plot) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid plot id", ErrInvalidInput)
	}
	if err := validatePlot(plot); err != nil {
		return err
	}
	return s.repo.UpdatePlot(ctx, id, plot)
}

func (s *service) DeletePlot(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid plot id", ErrInvalidInput)
	}
	return s.repo.DeletePlot(ctx, id)
}

func (s *service) AssignPlot(ctx context.Context, id int64, dealerID *int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid plot id", ErrInvalidInput)
	}
	if dealerID != nil && *dealerID <= 0 {
		return fmt.Errorf("%w: invalid dealer id", ErrInvalidInput)
	}
	return s.repo.AssignPlot(ctx, id, dealerID)
}

func (s *service) MarkPlotStatus(ctx context.Context, id int64, status string) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid plot id", ErrInvalidInput)
	}
	if !plotStatuses[status] {
		return fmt.Errorf("%w: unknown plot status %q", ErrInvalidInput, status)
	}
	return s.repo.SetPlotStatus(ctx, id, status)
}

// Property operations
func (s *service) ListProperties(ctx context.Context, filters ListFilters) ([]Property, int, error) {
	return s.repo.ListProperties(ctx, filters)
}

func (s *service) GetProperty(ctx context.Context, id int64) (Property, error) {
	if id <= 0 {
		return Property{}, fmt.Errorf("%w: invalid property id", ErrInvalidInput)
	}
	return s.repo.GetProperty(ctx, id)
}

func (s *service) CreateProperty(ctx context.Context, property Property) (Property, error) {
	if err := validateProperty(property); err != nil {
		return Property{}, err
	}
	return s.repo.CreateProperty(ctx, property)
}

func (s *service) UpdateProperty(ctx context.Context, id int64, property Property) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid property id", ErrInvalidInput)
	}
	if err := validateProperty(property); err != nil {
		return err
	}
	return s.repo.UpdateProperty(ctx, id, property)
}

func (s *service) DeleteProperty(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid property id", ErrInvalidInput)
	}
	return s.repo.DeleteProperty(ctx, id)
}

func validateSociety(society Society) error {
	if society.CityID <= 0 {
		return fmt.Errorf("%w: society needs a city", ErrInvalidInput)
	}
	if strings.TrimSpace(society.Name) == "" {
		return fmt.Errorf("%w: society name is required", ErrInvalidInput)
	}
	return nil
}

func validatePlot(plot Plot) error {
	if plot.SocietyID <= 0 {
		return fmt.Errorf("%w: plot needs a society", ErrInvalidInput)
	}
	if strings.TrimSpace(plot.PlotNumber) == "" {
		return fmt.Errorf("%w: plot number is required", ErrInvalidInput)
	}
	if !plotCategories[plot.Category] {
		return fmt.Errorf("%w: unknown plot category %q", ErrInvalidInput, plot.Category)
	}
	if plot.SizeValue <= 0 {
		return fmt.Errorf("%w: plot size must be positive", ErrInvalidInput)
	}
	if plot.Price < 0 {
		return fmt.Errorf("%w: plot price cannot be negative", ErrInvalidInput)
	}
	if !plotStatuses[plot.Status] {
		return fmt.Errorf("%w: unknown plot status %q", ErrInvalidInput, plot.Status)
	}
	return nil
}

func validateProperty(property Property) error {
	if property.CityID <= 0 {
		return fmt.Errorf("%w: property needs a city", ErrInvalidInput)
	}
	if strings.TrimSpace(property.Title) == "" {
		return fmt.Errorf("%w: property title is required", ErrInvalidInput)
	}
	if !propertyTypes[property.Type] {
		return fmt.Errorf("%w: unknown property type %q", ErrInvalidInput, property.Type)
	}
	if !propertyPurposes[property.Purpose] {
		return fmt.Errorf("%w: unknown property purpose %q", ErrInvalidInput, property.Purpose)
	}
	if property.Price < 0 {
		return fmt.Errorf("%w: property price cannot be negative", ErrInvalidInput)
	}
	return nil
}
