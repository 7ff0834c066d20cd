package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"elitetransport-backend/internal/models"
	"elitetransport-backend/pkg/database"
)

// RouteRepository handles route_groups and routes database operations.
type RouteRepository struct {
	db *database.DB
}

func NewRouteRepository(db *database.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// ListGroups returns every route group, each carrying its own routes.
func (r *RouteRepository) ListGroups(ctx context.Context) ([]models.RouteGroup, error) {
	query := `SELECT id, key, name, description FROM route_groups ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list route groups: %w", err)
	}
	defer rows.Close()

	var groups []models.RouteGroup
	for rows.Next() {
		var g models.RouteGroup
		if err := rows.Scan(&g.ID, &g.Key, &g.Name, &g.Description); err != nil {
			return nil, fmt.Errorf("failed to scan route group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ListRoutes returns every route, regardless of group.
func (r *RouteRepository) ListRoutes(ctx context.Context) ([]models.Route, error) {
	query := `SELECT id, group_id, name, description FROM routes ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	defer rows.Close()

	var routes []models.Route
	for rows.Next() {
		var rt models.Route
		if err := rows.Scan(&rt.ID, &rt.GroupID, &rt.Name, &rt.Description); err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		routes = append(routes, rt)
	}
	return routes, rows.Err()
}

// CountAll returns the total number of routes, for the admin dashboard
// bootstrap.
func (r *RouteRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM routes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count routes: %w", err)
	}
	return count, nil
}

// GetRoute fetches a single route by id.
func (r *RouteRepository) GetRoute(ctx context.Context, id int64) (*models.Route, error) {
	query := `SELECT id, group_id, name, description FROM routes WHERE id = $1`

	var rt models.Route
	err := r.db.QueryRowContext(ctx, query, id).Scan(&rt.ID, &rt.GroupID, &rt.Name, &rt.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("route not found")
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	return &rt, nil
}
