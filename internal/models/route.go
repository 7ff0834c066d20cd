package models

// RouteGroup is a top-level catalog bucket grouping related routes
// (e.g. all routes sharing a terminal or a corridor).
type RouteGroup struct {
	ID          int64  `json:"id" db:"id"`
	Key         string `json:"key" db:"key"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

// Route is a named origin-destination pair belonging to a RouteGroup.
type Route struct {
	ID          int64  `json:"id" db:"id"`
	GroupID     int64  `json:"group_id" db:"group_id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}
