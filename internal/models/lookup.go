package models

import "time"

// LookupGroup identifies a reference-data table.
type LookupGroup string

const (
	LookupGroupCostCodes LookupGroup = "cost_codes"
	LookupGroupMaterials LookupGroup = "materials"
	LookupGroupUnits     LookupGroup = "units"
	LookupGroupTrades    LookupGroup = "trades"
)

// KnownLookupGroups lists the supported reference tables.
func KnownLookupGroups() []LookupGroup {
	return []LookupGroup{LookupGroupCostCodes, LookupGroupMaterials, LookupGroupUnits, LookupGroupTrades}
}

// LookupValue is one entry in a lookup table.
type LookupValue struct {
	ID        string      `db:"id" json:"id"`
	Group     LookupGroup `db:"lookup_group" json:"group"`
	Value     string      `db:"value" json:"value"`
	Label     string      `db:"label" json:"label"`
	SortOrder int         `db:"sort_order" json:"sort_order"`
	Active    bool        `db:"active" json:"active"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}
