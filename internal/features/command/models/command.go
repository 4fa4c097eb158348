package models

import "time"

type Category string

const (
	CategoryGeneral Category = "general"
	CategoryUtility Category = "utility"
	CategoryFun     Category = "fun"
	CategoryAdmin   Category = "admin"
	CategoryOwner   Category = "owner"
)

// Categories in menu order.
var Categories = []Category{CategoryGeneral, CategoryUtility, CategoryFun, CategoryAdmin, CategoryOwner}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Descriptor is the operator-editable registry entry of a command.
type Descriptor struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Usage       string    `json:"usage"`
	Cooldown    int       `json:"cooldown"` // seconds
	OwnerOnly   bool      `json:"owner_only"`
	IsActive    bool      `json:"is_active"`
	UsageCount  int64     `json:"usage_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d Descriptor) CooldownDuration() time.Duration {
	return time.Duration(d.Cooldown) * time.Second
}

// DescriptorUpdate holds the fields the dashboard may change.
type DescriptorUpdate struct {
	Description *string `json:"description,omitempty"`
	Cooldown    *int    `json:"cooldown,omitempty"`
	OwnerOnly   *bool   `json:"owner_only,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type CommandsResponse struct {
	Items []*Descriptor `json:"items"`
	Total int64         `json:"total_commands"`
}
