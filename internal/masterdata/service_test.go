package masterdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/estatedesk/estatedesk/internal/shared"
)

type memoryRepo struct {
	nextID     int64
	cities     map[int64]City
	societies  map[int64]Society
	blocks     map[int64]Block
	streets    map[int64]Street
	plots      map[int64]Plot
	properties map[int64]Property
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nextID:     1,
		cities:     map[int64]City{},
		societies:  map[int64]Society{},
		blocks:     map[int64]Block{},
		streets:    map[int64]Street{},
		plots:      map[int64]Plot{},
		properties: map[int64]Property{},
	}
}

func (m *memoryRepo) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *memoryRepo) ListCities(ctx context.Context) ([]City, error) {
	var out []City
	for _, c := range m.cities {
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryRepo) CreateCity(ctx context.Context, city City) (City, error) {
	city.ID = m.id()
	m.cities[city.ID] = city
	return city, nil
}

func (m *memoryRepo) ListSocieties(ctx context.Context, filters ListFilters) ([]Society, int, error) {
	var out []Society
	for _, s := range m.societies {
		if filters.CityID != nil && s.CityID != *filters.CityID {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *memoryRepo) GetSociety(ctx context.Context, id int64) (Society, error) {
	s, ok := m.societies[id]
	if !ok {
		return Society{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *memoryRepo) CreateSociety(ctx context.Context, society Society) (Society, error) {
	society.ID = m.id()
	m.societies[society.ID] = society
	return society, nil
}

func (m *memoryRepo) UpdateSociety(ctx context.Context, id int64, society Society) error {
	if _, ok := m.societies[id]; !ok {
		return shared.ErrNotFound
	}
	society.ID = id
	m.societies[id] = society
	return nil
}

func (m *memoryRepo) DeleteSociety(ctx context.Context, id int64) error {
	if _, ok := m.societies[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.societies, id)
	return nil
}

func (m *memoryRepo) ListBlocks(ctx context.Context, societyID *int64) ([]Block, error) {
	var out []Block
	for _, b := range m.blocks {
		if societyID != nil && b.SocietyID != *societyID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *memoryRepo) CreateBlock(ctx context.Context, block Block) (Block, error) {
	block.ID = m.id()
	m.blocks[block.ID] = block
	return block, nil
}

func (m *memoryRepo) UpdateBlock(ctx context.Context, id int64, block Block) error {
	if _, ok := m.blocks[id]; !ok {
		return shared.ErrNotFound
	}
	block.ID = id
	m.blocks[id] = block
	return nil
}

func (m *memoryRepo) DeleteBlock(ctx context.Context, id int64) error {
	if _, ok := m.blocks[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.blocks, id)
	return nil
}

func (m *memoryRepo) ListStreets(ctx context.Context, blockID *int64) ([]Street, error) {
	var out []Street
	for _, s := range m.streets {
		if blockID != nil && s.BlockID != *blockID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryRepo) CreateStreet(ctx context.Context, street Street) (Street, error) {
	street.ID = m.id()
	m.streets[street.ID] = street
	return street, nil
}

func (m *memoryRepo) UpdateStreet(ctx context.Context, id int64, street Street) error {
	if _, ok := m.streets[id]; !ok {
		return shared.ErrNotFound
	}
	street.ID = id
	m.streets[id] = street
	return nil
}

func (m *memoryRepo) DeleteStreet(ctx context.Context, id int64) error {
	if _, ok := m.streets[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.streets, id)
	return nil
}

func (m *memoryRepo) ListPlots(ctx context.Context, filters ListFilters) ([]Plot, int, error) {
	var out []Plot
	for _, p := range m.plots {
		if filters.Status != "" && p.Status != filters.Status {
			continue
		}
		if filters.DealerID != nil && (p.DealerID == nil || *p.DealerID != *filters.DealerID) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memoryRepo) GetPlot(ctx context.Context, id int64) (Plot, error) {
	p, ok := m.plots[id]
	if !ok {
		return Plot{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) CreatePlot(ctx context.Context, plot Plot) (Plot, error) {
	plot.ID = m.id()
	m.plots[plot.ID] = plot
	return plot, nil
}

func (m *memoryRepo) UpdatePlot(ctx context.Context, id int64, plot Plot) error {
	if _, ok := m.plots[id]; !ok {
		return shared.ErrNotFound
	}
	plot.ID = id
	m.plots[id] = plot
	return nil
}

func (m *memoryRepo) DeletePlot(ctx context.Context, id int64) error {
	if _, ok := m.plots[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.plots, id)
	return nil
}

func (m *memoryRepo) AssignPlot(ctx context.Context, id int64, dealerID *int64) error {
	p, ok := m.plots[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.DealerID = dealerID
	m.plots[id] = p
	return nil
}

func (m *memoryRepo) SetPlotStatus(ctx context.Context, id int64, status string) error {
	p, ok := m.plots[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Status = status
	m.plots[id] = p
	return nil
}

func (m *memoryRepo) ListProperties(ctx context.Context, filters ListFilters) ([]Property, int, error) {
	var out []Property
	for _, p := range m.properties {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memoryRepo) GetProperty(ctx context.Context, id int64) (Property, error) {
	p, ok := m.properties[id]
	if !ok {
		return Property{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) CreateProperty(ctx context.Context, property Property) (Property, error) {
	property.ID = m.id()
	m.properties[property.ID] = property
	return property, nil
}

func (m *memoryRepo) UpdateProperty(ctx context.Context, id int64, property Property) error {
	if _, ok := m.properties[id]; !ok {
		return shared.ErrNotFound
	}
	property.ID = id
	m.properties[id] = property
	return nil
}

func (m *memoryRepo) DeleteProperty(ctx context.Context, id int64) error {
	if _, ok := m.properties[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.properties, id)
	return nil
}

func TestCreatePlotDefaultsToAvailable(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	plot, err := svc.CreatePlot(context.Background(), Plot{
		SocietyID:  1,
		PlotNumber: "A-101",
		Category:   "residential",
		SizeValue:  5,
		SizeUnit:   "marla",
		Price:      2500000,
	})
	require.NoError(t, err)
	require.Equal(t, PlotAvailable, plot.Status)
}

func TestCreatePlotValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreatePlot(ctx, Plot{PlotNumber: "A-1", Category: "residential", SizeValue: 5})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreatePlot(ctx, Plot{SocietyID: 1, Category: "residential", SizeValue: 5})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreatePlot(ctx, Plot{SocietyID: 1, PlotNumber: "A-1", Category: "industrial", SizeValue: 5})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreatePlot(ctx, Plot{SocietyID: 1, PlotNumber: "A-1", Category: "commercial", SizeValue: 0})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPlotAssignmentAndStatus(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	plot, err := svc.CreatePlot(ctx, Plot{
		SocietyID:  1,
		PlotNumber: "B-7",
		Category:   "commercial",
		SizeValue:  10,
		SizeUnit:   "marla",
	})
	require.NoError(t, err)

	dealerID := int64(42)
	require.NoError(t, svc.AssignPlot(ctx, plot.ID, &dealerID))
	got, err := svc.GetPlot(ctx, plot.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DealerID)
	require.Equal(t, dealerID, *got.DealerID)

	require.NoError(t, svc.MarkPlotStatus(ctx, plot.ID, PlotSold))
	got, err = svc.GetPlot(ctx, plot.ID)
	require.NoError(t, err)
	require.Equal(t, PlotSold, got.Status)

	require.ErrorIs(t, svc.MarkPlotStatus(ctx, plot.ID, "vanished"), ErrInvalidInput)
	require.ErrorIs(t, svc.AssignPlot(ctx, 999, &dealerID), shared.ErrNotFound)
}

func TestCreatePropertyValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateProperty(ctx, Property{CityID: 1, Title: "Corner House", Type: "house", Purpose: "sale"})
	require.NoError(t, err)

	_, err = svc.CreateProperty(ctx, Property{Title: "No City", Type: "house", Purpose: "sale"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateProperty(ctx, Property{CityID: 1, Title: "Bad Type", Type: "castle", Purpose: "sale"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateProperty(ctx, Property{CityID: 1, Title: "Bad Purpose", Type: "house", Purpose: "lease"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSocietyLifecycle(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	society, err := svc.CreateSociety(ctx, Society{CityID: 1, Name: "Green Valley"})
	require.NoError(t, err)

	society.Description = "Phase 2 extension"
	require.NoError(t, svc.UpdateSociety(ctx, society.ID, society))

	got, err := svc.GetSociety(ctx, society.ID)
	require.NoError(t, err)
	require.Equal(t, "Phase 2 extension", got.Description)

	require.NoError(t, svc.DeleteSociety(ctx, society.ID))
	_, err = svc.GetSociety(ctx, society.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.CreateSociety(ctx, Society{Name: "No City"})
	require.ErrorIs(t, err, ErrInvalidInput)
}
