// Package bootstrap seeds the permission catalog, the predefined roles,
// the default users and the city list. Every step upserts by natural key
// so re-running the seeder never duplicates rows.
package bootstrap

import (
	"strings"

	"github.com/estatedesk/estatedesk/internal/shared"
)

// Predefined role names.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleDealer     = "dealer"
	RoleAccountant = "accountant"
	RoleStaff      = "staff"
)

// RolePolicy couples a role with the permission set it is granted at
// bootstrap. Application is replace-not-append: seeding a policy
// overwrites whatever the role held before.
type RolePolicy struct {
	Name        string
	Description string
	Permissions []string
}

// AdminPermissions grants every permission in the catalog.
func AdminPermissions() []string {
	return shared.AllScopes()
}

// ManagerPermissions grants everything except user deletion, role
// management and settings management.
func ManagerPermissions() []string {
	excluded := map[string]struct{}{
		shared.PermUsersDelete:    {},
		shared.PermRolesManage:    {},
		shared.PermSettingsManage: {},
	}
	var out []string
	for _, p := range shared.AllScopes() {
		if _, skip := excluded[p]; skip {
			continue
		}
		out = append(out, p)
	}
	return out
}

// DealerPermissions grants the sales pipeline to dealers: full working
// access on leads, clients, deals and follow-ups, read-only inventory.
func DealerPermissions() []string {
	return []string{
		shared.PermLeadsView, shared.PermLeadsCreate, shared.PermLeadsEdit,
		shared.PermClientsView, shared.PermClientsCreate, shared.PermClientsEdit,
		shared.PermDealsView, shared.PermDealsCreate, shared.PermDealsEdit,
		shared.PermFollowupsView, shared.PermFollowupsCreate, shared.PermFollowupsEdit,
		shared.PermPropertiesView,
		shared.PermPlotsView,
		shared.PermSocietiesView,
		shared.PermBlocksView,
		shared.PermFilesView,
	}
}

// AccountantPermissions grants the finance surfaces.
func AccountantPermissions() []string {
	return []string{
		shared.PermPaymentsView, shared.PermPaymentsCreate, shared.PermPaymentsEdit, shared.PermPaymentsViewAll,
		shared.PermExpensesView, shared.PermExpensesCreate, shared.PermExpensesEdit, shared.PermExpensesViewAll,
		shared.PermFilesView, shared.PermFilesEdit,
		shared.PermClientsView, shared.PermClientsViewAll,
		shared.PermReportsView, shared.PermReportsFinancial,
		shared.PermDealsView, shared.PermDealsViewAll,
	}
}

// StaffPermissions grants read-only access to the day-to-day screens.
func StaffPermissions() []string {
	return []string{
		shared.PermSocietiesView,
		shared.PermBlocksView,
		shared.PermPlotsView,
		shared.PermPropertiesView,
		shared.PermClientsView,
		shared.PermLeadsView,
	}
}

// RolePolicies returns the five predefined roles in seeding order.
func RolePolicies() []RolePolicy {
	return []RolePolicy{
		{RoleAdmin, "Full access to all modules", AdminPermissions()},
		{RoleManager, "Manage operations", ManagerPermissions()},
		{RoleDealer, "Sales pipeline access", DealerPermissions()},
		{RoleAccountant, "Payments, expenses and financial reports", AccountantPermissions()},
		{RoleStaff, "Read-only access", StaffPermissions()},
	}
}

// DescriptionFor derives a human readable description from a permission
// name such as "plots.assign".
func DescriptionFor(permission string) string {
	resource, action, ok := strings.Cut(permission, ".")
	if !ok {
		return permission
	}
	switch action {
	case "view":
		return "View " + resource
	case "view_all":
		return "View all " + resource
	case "create":
		return "Create " + resource
	case "edit":
		return "Edit " + resource
	case "delete":
		return "Delete " + resource
	case "assign":
		return "Assign " + resource
	case "approve":
		return "Approve " + resource
	case "manage":
		return "Manage " + resource
	case "financial":
		return "View financial " + resource
	default:
		return action + " " + resource
	}
}
