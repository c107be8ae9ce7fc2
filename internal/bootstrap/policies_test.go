package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/estatedesk/estatedesk/internal/shared"
)

func TestCatalogHasNoDuplicates(t *testing.T) {
	seen := make(map[string]struct{})
	for _, p := range shared.AllScopes() {
		_, dup := seen[p]
		require.False(t, dup, "duplicate catalog entry %s", p)
		seen[p] = struct{}{}
	}
}

func TestAdminGetsFullCatalog(t *testing.T) {
	require.ElementsMatch(t, shared.AllScopes(), AdminPermissions())
}

func TestManagerExclusions(t *testing.T) {
	perms := ManagerPermissions()
	require.NotContains(t, perms, shared.PermUsersDelete)
	require.NotContains(t, perms, shared.PermRolesManage)
	require.NotContains(t, perms, shared.PermSettingsManage)
	require.Len(t, perms, len(shared.AllScopes())-3)
	require.Contains(t, perms, shared.PermUsersView)
	require.Contains(t, perms, shared.PermPaymentsApprove)
}

func TestStaffIsViewOnly(t *testing.T) {
	for _, p := range StaffPermissions() {
		require.Regexp(t, `\.view$`, p)
	}
}

func TestDealerHasNoDeleteOrFinance(t *testing.T) {
	perms := DealerPermissions()
	require.Contains(t, perms, shared.PermLeadsCreate)
	require.Contains(t, perms, shared.PermFilesView)
	require.NotContains(t, perms, shared.PermLeadsDelete)
	require.NotContains(t, perms, shared.PermPaymentsView)
	require.NotContains(t, perms, shared.PermFilesEdit)
}

func TestAllPoliciesResolveAgainstCatalog(t *testing.T) {
	catalog := make(map[string]struct{})
	for _, p := range shared.AllScopes() {
		catalog[p] = struct{}{}
	}
	for _, policy := range RolePolicies() {
		for _, p := range policy.Permissions {
			_, ok := catalog[p]
			require.True(t, ok, "role %s references unknown permission %s", policy.Name, p)
		}
	}
}

func TestDescriptionFor(t *testing.T) {
	cases := map[string]string{
		"plots.assign":      "Assign plots",
		"payments.view_all": "View all payments",
		"roles.manage":      "Manage roles",
		"reports.financial": "View financial reports",
	}
	for in, want := range cases {
		require.Equal(t, want, DescriptionFor(in))
	}
}
