package shared

// Master data (inventory) permissions.
const (
	PermSocietiesView   = "societies.view"
	PermSocietiesCreate = "societies.create"
	PermSocietiesEdit   = "societies.edit"
	PermSocietiesDelete = "societies.delete"

	PermBlocksView   = "blocks.view"
	PermBlocksCreate = "blocks.create"
	PermBlocksEdit   = "blocks.edit"
	PermBlocksDelete = "blocks.delete"

	PermStreetsView   = "streets.view"
	PermStreetsCreate = "streets.create"
	PermStreetsEdit   = "streets.edit"
	PermStreetsDelete = "streets.delete"

	PermPlotsView   = "plots.view"
	PermPlotsCreate = "plots.create"
	PermPlotsEdit   = "plots.edit"
	PermPlotsDelete = "plots.delete"
	PermPlotsAssign = "plots.assign"

	PermPropertiesView   = "properties.view"
	PermPropertiesCreate = "properties.create"
	PermPropertiesEdit   = "properties.edit"
	PermPropertiesDelete = "properties.delete"
)

// MasterDataScopes lists all inventory related permissions.
func MasterDataScopes() []string {
	return []string{
		PermSocietiesView, PermSocietiesCreate, PermSocietiesEdit, PermSocietiesDelete,
		PermBlocksView, PermBlocksCreate, PermBlocksEdit, PermBlocksDelete,
		PermStreetsView, PermStreetsCreate, PermStreetsEdit, PermStreetsDelete,
		PermPlotsView, PermPlotsCreate, PermPlotsEdit, PermPlotsDelete, PermPlotsAssign,
		PermPropertiesView, PermPropertiesCreate, PermPropertiesEdit, PermPropertiesDelete,
	}
}
