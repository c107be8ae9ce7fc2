package masterdata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estatedesk/estatedesk/internal/shared"
)

// repo implements Repository interface.
type repo struct {
	db *pgxpool.Pool
}

// NewRepository creates a new master data repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repo{db: db}
}

func pageLimits(filters ListFilters) (limit, offset int) {
	limit = filters.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// City operations
func (r *repo) ListCities(ctx context.Context) ([]City, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM cities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cities []City
	for rows.Next() {
		var c City
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}

func (r *repo) CreateCity(ctx context.Context, city City) (City, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO cities (name) VALUES ($1) RETURNING id`, city.Name).Scan(&city.ID)
	if err != nil {
		return City{}, err
	}
	return city, nil
}

// Society operations
func (r *repo) ListSocieties(ctx context.Context, filters ListFilters) ([]Society, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filters.CityID != nil {
		args = append(args, *filters.CityID)
		where = append(where, "city_id = $"+strconv.Itoa(len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where = append(where, "name ILIKE $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM societies WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageLimits(filters)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, city_id, name, description, location, created_at, updated_at
		FROM societies WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		cond, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var societies []Society
	for rows.Next() {
		var s Society
		if err := rows.Scan(&s.ID, &s.CityID, &s.Name, &s.Description, &s.Location, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		societies = append(societies, s)
	}
	return societies, total, rows.Err()
}

func (r *repo) GetSociety(ctx context.Context, id int64) (Society, error) {
	var s Society
	err := r.db.QueryRow(ctx, `
		SELECT id, city_id, name, description, location, created_at, updated_at
		FROM societies WHERE id = $1`, id).
		Scan(&s.ID, &s.CityID, &s.Name, &s.Description, &s.Location, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Society{}, shared.ErrNotFound
	}
	return s, err
}

func (r *repo) CreateSociety(ctx context.Context, society Society) (Society, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO societies (city_id, name, description, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`,
		society.CityID, society.Name, society.Description, society.Location, now).Scan(&society.ID)
	if err != nil {
		return Society{}, err
	}
	society.CreatedAt = now
	society.UpdatedAt = now
	return society, nil
}

func (r *repo) UpdateSociety(ctx context.Context, id int64, society Society) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE societies SET city_id = $1, name = $2, description = $3, location = $4, updated_at = $5
		WHERE id = $6`,
		society.CityID, society.Name, society.Description, society.Location, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) DeleteSociety(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM societies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Block operations
func (r *repo) ListBlocks(ctx context.Context, societyID *int64) ([]Block, error) {
	query := `SELECT id, society_id, name, created_at, updated_at FROM blocks`
	args := []any{}
	if societyID != nil {
		query += ` WHERE society_id = $1`
		args = append(args, *societyID)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []Block
	for rows.Next() {
		var b Block
		if err := rows.Scan(&b.ID, &b.SocietyID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (r *repo) CreateBlock(ctx context.Context, block Block) (Block, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO blocks (society_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $3) RETURNING id`,
		block.SocietyID, block.Name, now).Scan(&block.ID)
	if err != nil {
		return Block{}, err
	}
	block.CreatedAt = now
	block.UpdatedAt = now
	return block, nil
}

func (r *repo) UpdateBlock(ctx context.Context, id int64, block Block) error {
	tag, err := r.db.Exec(ctx, `UPDATE blocks SET name = $1, updated_at = $2 WHERE id = $3`,
		block.Name, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) DeleteBlock(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM blocks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Street operations
func (r *repo) ListStreets(ctx context.Context, blockID *int64) ([]Street, error) {
	query := `SELECT id, block_id, name, created_at, updated_at FROM streets`
	args := []any{}
	if blockID != nil {
		query += ` WHERE block_id = $1`
		args = append(args, *blockID)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var streets []Street
	for rows.Next() {
		var s Street
		if err := rows.Scan(&s.ID, &s.BlockID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		streets = append(streets, s)
	}
	return streets, rows.Err()
}

func (r *repo) CreateStreet(ctx context.Context, street Street) (Street, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO streets (block_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $3) RETURNING id`,
		street.BlockID, street.Name, now).Scan(&street.ID)
	if err != nil {
		return Street{}, err
	}
	street.CreatedAt = now
	street.UpdatedAt = now
	return street, nil
}

func (r *repo) UpdateStreet(ctx context.Context, id int64, street Street) error {
	tag, err := r.db.Exec(ctx, `UPDATE streets SET name = $1, updated_at = $2 WHERE id = $3`,
		street.Name, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) DeleteStreet(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM streets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Plot operations
func (r *repo) ListPlots(ctx context.Context, filters ListFilters) ([]Plot, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filters.SocietyID != nil {
		args = append(args, *filters.SocietyID)
		where = append(where, "society_id = $"+strconv.Itoa(len(args)))
	}
	if filters.BlockID != nil {
		args = append(args, *filters.BlockID)
		where = append(where, "block_id = $"+strconv.Itoa(len(args)))
	}
	if filters.DealerID != nil {
		args = append(args, *filters.DealerID)
		where = append(where, "dealer_id = $"+strconv.Itoa(len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where = append(where, "plot_number ILIKE $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM plots WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageLimits(filters)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, society_id, block_id, street_id, plot_number, category, size_value, size_unit,
			price, status, dealer_id, created_at, updated_at
		FROM plots WHERE %s ORDER BY plot_number LIMIT $%d OFFSET $%d`,
		cond, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var plots []Plot
	for rows.Next() {
		var p Plot
		if err := rows.Scan(&p.ID, &p.SocietyID, &p.BlockID, &p.StreetID, &p.PlotNumber, &p.Category,
			&p.SizeValue, &p.SizeUnit, &p.Price, &p.Status, &p.DealerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		plots = append(plots, p)
	}
	return plots, total, rows.Err()
}

func (r *repo) GetPlot(ctx context.Context, id int64) (Plot, error) {
	var p Plot
	err := r.db.QueryRow(ctx, `
		SELECT id, society_id, block_id, street_id, plot_number, category, size_value, size_unit,
			price, status, dealer_id, created_at, updated_at
		FROM plots WHERE id = $1`, id).
		Scan(&p.ID, &p.SocietyID, &p.BlockID, &p.StreetID, &p.PlotNumber, &p.Category,
			&p.SizeValue, &p.SizeUnit, &p.Price, &p.Status, &p.DealerID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plot{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repo) CreatePlot(ctx context.Context, plot Plot) (Plot, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO plots (society_id, block_id, street_id, plot_number, category, size_value, size_unit,
			price, status, dealer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11) RETURNING id`,
		plot.SocietyID, plot.BlockID, plot.StreetID, plot.PlotNumber, plot.Category,
		plot.SizeValue, plot.SizeUnit, plot.Price, plot.Status, plot.DealerID, now).Scan(&plot.ID)
	if err != nil {
		return Plot{}, err
	}
	plot.CreatedAt = now
	plot.UpdatedAt = now
	return plot, nil
}

func (r *repo) UpdatePlot(ctx context.Context, id int64, plot Plot) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE plots SET society_id = $1, block_id = $2, street_id = $3, plot_number = $4, category = $5,
			size_value = $6, size_unit = $7, price = $8, status = $9, updated_at = $10
		WHERE id = $11`,
		plot.SocietyID, plot.BlockID, plot.StreetID, plot.PlotNumber, plot.Category,
		plot.SizeValue, plot.SizeUnit, plot.Price, plot.Status, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) DeletePlot(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM plots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) AssignPlot(ctx context.Context, id int64, dealerID *int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE plots SET dealer_id = $1, updated_at = $2 WHERE id = $3`,
		dealerID, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) SetPlotStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE plots SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Property operations
func (r *repo) ListProperties(ctx context.Context, filters ListFilters) ([]Property, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filters.CityID != nil {
		args = append(args, *filters.CityID)
		where = append(where, "city_id = $"+strconv.Itoa(len(args)))
	}
	if filters.SocietyID != nil {
		args = append(args, *filters.SocietyID)
		where = append(where, "society_id = $"+strconv.Itoa(len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where = append(where, "title ILIKE $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM properties WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageLimits(filters)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, city_id, society_id, title, type, purpose, bedrooms, bathrooms, area_value, area_unit,
			price, address, status, created_at, updated_at
		FROM properties WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		cond, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var properties []Property
	for rows.Next() {
		var p Property
		if err := rows.Scan(&p.ID, &p.CityID, &p.SocietyID, &p.Title, &p.Type, &p.Purpose, &p.Bedrooms,
			&p.Bathrooms, &p.AreaValue, &p.AreaUnit, &p.Price, &p.Address, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		properties = append(properties, p)
	}
	return properties, total, rows.Err()
}

func (r *repo) GetProperty(ctx context.Context, id int64) (Property, error) {
	var p Property
	err := r.db.QueryRow(ctx, `
		SELECT id, city_id, society_id, title, type, purpose, bedrooms, bathrooms, area_value, area_unit,
			price, address, status, created_at, updated_at
		FROM properties WHERE id = $1`, id).
		Scan(&p.ID, &p.CityID, &p.SocietyID, &p.Title, &p.Type, &p.Purpose, &p.Bedrooms,
			&p.Bathrooms, &p.AreaValue, &p.AreaUnit, &p.Price, &p.Address, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Property{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repo) CreateProperty(ctx context.Context, property Property) (Property, error) {
	now := time.Now()
	if property.Status == "" {
		property.Status = "active"
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO properties (city_id, society_id, title, type, purpose, bedrooms, bathrooms,
			area_value, area_unit, price, address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13) RETURNING id`,
		property.CityID, property.SocietyID, property.Title, property.Type, property.Purpose,
		property.Bedrooms, property.Bathrooms, property.AreaValue, property.AreaUnit,
		property.Price, property.Address, property.Status, now).Scan(&property.ID)
	if err != nil {
		return Property{}, err
	}
	property.CreatedAt = now
	property.UpdatedAt = now
	return property, nil
}

func (r *repo) UpdateProperty(ctx context.Context, id int64, property Property) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE properties SET city_id = $1, society_id = $2, title = $3, type = $4, purpose = $5,
			bedrooms = $6, bathrooms = $7, area_value = $8, area_unit = $9, price = $10,
			address = $11, status = $12, updated_at = $13
		WHERE id = $14`,
		property.CityID, property.SocietyID, property.Title, property.Type, property.Purpose,
		property.Bedrooms, property.Bathrooms, property.AreaValue, property.AreaUnit,
		property.Price, property.Address, property.Status, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) DeleteProperty(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
