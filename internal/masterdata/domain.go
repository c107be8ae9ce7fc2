package masterdata

import (
	"context"
	"time"
)

// ListFilters represents standard list page filters.
type ListFilters struct {
	Page   int
	Limit  int
	Search string

	// Entity specific filters
	CityID    *int64
	SocietyID *int64
	BlockID   *int64
	StreetID  *int64
	DealerID  *int64
	Status    string
}

// City represents a city used to group societies and properties.
type City struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Society represents a housing society.
type Society struct {
	ID          int64     `json:"id"`
	CityID      int64     `json:"city_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Block represents a block inside a society.
type Block struct {
	ID        int64     `json:"id"`
	SocietyID int64     `json:"society_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Street represents a street inside a block.
type Street struct {
	ID        int64     `json:"id"`
	BlockID   int64     `json:"block_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Plot statuses.
const (
	PlotAvailable = "available"
	PlotBooked    = "booked"
	PlotSold      = "sold"
)

// Plot represents a plot inside a society inventory.
type Plot struct {
	ID         int64     `json:"id"`
	SocietyID  int64     `json:"society_id"`
	BlockID    *int64    `json:"block_id,omitempty"`
	StreetID   *int64    `json:"street_id,omitempty"`
	PlotNumber string    `json:"plot_number"`
	Category   string    `json:"category"`
	SizeValue  float64   `json:"size_value"`
	SizeUnit   string    `json:"size_unit"`
	Price      int64     `json:"price"`
	Status     string    `json:"status"`
	DealerID   *int64    `json:"dealer_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Property represents a built property listed for sale or rent.
type Property struct {
	ID        int64     `json:"id"`
	CityID    int64     `json:"city_id"`
	SocietyID *int64    `json:"society_id,omitempty"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Purpose   string    `json:"purpose"`
	Bedrooms  int       `json:"bedrooms"`
	Bathrooms int       `json:"bathrooms"`
	AreaValue float64   `json:"area_value"`
	AreaUnit  string    `json:"area_unit"`
	Price     int64     `json:"price"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository defines the persistence surface for master data.
type Repository interface {
	ListCities(ctx context.Context) ([]City, error)
	CreateCity(ctx context.Context, city City) (City, error)

	ListSocieties(ctx context.Context, filters ListFilters) ([]Society, int, error)
	GetSociety(ctx context.Context, id int64) (Society, error)
	CreateSociety(ctx context.Context, society Society) (Society, error)
	UpdateSociety(ctx context.Context, id int64, society Society) error
	DeleteSociety(ctx context.Context, id int64) error

	ListBlocks(ctx context.Context, societyID *int64) ([]Block, error)
	CreateBlock(ctx context.Context, block Block) (Block, error)
	UpdateBlock(ctx context.Context, id int64, block Block) error
	DeleteBlock(ctx context.Context, id int64) error

	ListStreets(ctx context.Context, blockID *int64) ([]Street, error)
	CreateStreet(ctx context.Context, street Street) (Street, error)
	UpdateStreet(ctx context.Context, id int64, street Street) error
	DeleteStreet(ctx context.Context, id int64) error

	ListPlots(ctx context.Context, filters ListFilters) ([]Plot, int, error)
	GetPlot(ctx context.Context, id int64) (Plot, error)
	CreatePlot(ctx context.Context, plot Plot) (Plot, error)
	UpdatePlot(ctx context.Context, id int64, plot Plot) error
	DeletePlot(ctx context.Context, id int64) error
	AssignPlot(ctx context.Context, id int64, dealerID *int64) error
	SetPlotStatus(ctx context.Context, id int64, status string) error

	ListProperties(ctx context.Context, filters ListFilters) ([]Property, int, error)
	GetProperty(ctx context.Context, id int64) (Property, error)
	CreateProperty(ctx context.Context, property Property) (Property, error)
	UpdateProperty(ctx context.Context, id int64, property Property) error
	DeleteProperty(ctx context.Context, id int64) error
}

// Service defines master data business operations.
type Service interface {
	ListCities(ctx context.Context) ([]City, error)
	CreateCity(ctx context.Context, city City) (City, error)

	ListSocieties(ctx context.Context, filters ListFilters) ([]Society, int, error)
	GetSociety(ctx context.Context, id int64) (Society, error)
	CreateSociety(ctx context.Context, society Society) (Society, error)
	UpdateSociety(ctx context.Context, id int64, society Society) error
	DeleteSociety(ctx context.Context, id int64) error

	ListBlocks(ctx context.Context, societyID *int64) ([]Block, error)
	CreateBlock(ctx context.Context, block Block) (Block, error)
	UpdateBlock(ctx context.Context, id int64, block Block) error
	DeleteBlock(ctx context.Context, id int64) error

	ListStreets(ctx context.Context, blockID *int64) ([]Street, error)
	CreateStreet(ctx context.Context, street Street) (Street, error)
	UpdateStreet(ctx context.Context, id int64, street Street) error
	DeleteStreet(ctx context.Context, id int64) error

	ListPlots(ctx context.Context, filters ListFilters) ([]Plot, int, error)
	GetPlot(ctx context.Context, id int64) (Plot, error)
	CreatePlot(ctx context.Context, plot Plot) (Plot, error)
	UpdatePlot(ctx context.Context, id int64, plot Plot) error
	DeletePlot(ctx context.Context, id int64) error
	AssignPlot(ctx context.Context, id int64, dealerID *int64) error
	MarkPlotStatus(ctx context.Context, id int64, status string) error

	ListProperties(ctx context.Context, filters ListFilters) ([]Property, int, error)
	GetProperty(ctx context.Context, id int64) (Property, error)
	CreateProperty(ctx context.Context, property Property) (Property, error)
	UpdateProperty(ctx context.Context, id int64, property Property) error
	DeleteProperty(ctx context.Context, id int64) error
}
