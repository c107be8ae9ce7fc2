package shared

// CRM permissions.
const (
	PermClientsView    = "clients.view"
	PermClientsViewAll = "clients.view_all"
	PermClientsCreate  = "clients.create"
	PermClientsEdit    = "clients.edit"
	PermClientsDelete  = "clients.delete"

	PermLeadsView    = "leads.view"
	PermLeadsViewAll = "leads.view_all"
	PermLeadsCreate  = "leads.create"
	PermLeadsEdit    = "leads.edit"
	PermLeadsDelete  = "leads.delete"

	PermFollowupsView   = "followups.view"
	PermFollowupsCreate = "followups.create"
	PermFollowupsEdit   = "followups.edit"
	PermFollowupsDelete = "followups.delete"

	PermDealsView    = "deals.view"
	PermDealsViewAll = "deals.view_all"
	PermDealsCreate  = "deals.create"
	PermDealsEdit    = "deals.edit"
	PermDealsDelete  = "deals.delete"
	PermDealsApprove = "deals.approve"

	PermDealersView   = "dealers.view"
	PermDealersCreate = "dealers.create"
	PermDealersEdit   = "dealers.edit"
	PermDealersDelete = "dealers.delete"
)

// CRMScopes lists all client and sales pipeline permissions.
func CRMScopes() []string {
	return []string{
		PermClientsView, PermClientsViewAll, PermClientsCreate, PermClientsEdit, PermClientsDelete,
		PermLeadsView, PermLeadsViewAll, PermLeadsCreate, PermLeadsEdit, PermLeadsDelete,
		PermFollowupsView, PermFollowupsCreate, PermFollowupsEdit, PermFollowupsDelete,
		PermDealsView, PermDealsViewAll, PermDealsCreate, PermDealsEdit, PermDealsDelete, PermDealsApprove,
		PermDealersView, PermDealersCreate, PermDealersEdit, PermDealersDelete,
	}
}
