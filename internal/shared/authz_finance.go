package shared

// Finance permissions covering property files, payments and expenses.
const (
	PermFilesView    = "files.view"
	PermFilesViewAll = "files.view_all"
	PermFilesCreate  = "files.create"
	PermFilesEdit    = "files.edit"
	PermFilesDelete  = "files.delete"

	PermPaymentsView    = "payments.view"
	PermPaymentsViewAll = "payments.view_all"
	PermPaymentsCreate  = "payments.create"
	PermPaymentsEdit    = "payments.edit"
	PermPaymentsApprove = "payments.approve"

	PermExpensesView    = "expenses.view"
	PermExpensesViewAll = "expenses.view_all"
	PermExpensesCreate  = "expenses.create"
	PermExpensesEdit    = "expenses.edit"
	PermExpensesDelete  = "expenses.delete"
	PermExpensesApprove = "expenses.approve"

	PermReportsView      = "reports.view"
	PermReportsFinancial = "reports.financial"
)

// FinanceScopes lists all finance related permissions.
func FinanceScopes() []string {
	return []string{
		PermFilesView, PermFilesViewAll, PermFilesCreate, PermFilesEdit, PermFilesDelete,
		PermPaymentsView, PermPaymentsViewAll, PermPaymentsCreate, PermPaymentsEdit, PermPaymentsApprove,
		PermExpensesView, PermExpensesViewAll, PermExpensesCreate, PermExpensesEdit, PermExpensesDelete, PermExpensesApprove,
		PermReportsView, PermReportsFinancial,
	}
}
