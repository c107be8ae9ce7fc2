package shared

// GuardWeb is the guard context for the web application catalog.
const GuardWeb = "web"

// Core platform permissions.
const (
	PermUsersView   = "users.view"
	PermUsersCreate = "users.create"
	PermUsersEdit   = "users.edit"
	PermUsersDelete = "users.delete"

	PermRolesView   = "roles.view"
	PermRolesManage = "roles.manage"

	PermSettingsManage = "settings.manage"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersCreate,
		PermUsersEdit,
		PermUsersDelete,
		PermRolesView,
		PermRolesManage,
		PermSettingsManage,
	}
}

// AllScopes returns the complete permission catalog.
func AllScopes() []string {
	var all []string
	all = append(all, CoreScopes()...)
	all = append(all, MasterDataScopes()...)
	all = append(all, CRMScopes()...)
	all = append(all, FinanceScopes()...)
	return all
}
