package core

// ExpenseList is a filtered page of expenses plus aggregates computed over
// the entire filtered set, not just the returned page.
type ExpenseList struct {
	Items                []Expense `json:"items"`
	TotalCount           int64     `json:"total_count"`
	TotalAmount          Money     `json:"total_amount"`
	TotalAvoidableAmount Money     `json:"total_avoidable_amount"`
}

// MonthlySummary aggregates one calendar month of spending for one owner.
// LifetimeTotal deliberately ignores the month filter: the monthly figure and
// the all-time figure are surfaced together.
type MonthlySummary struct {
	TotalAmount       Money            `json:"total_amount"`
	Count             int64            `json:"count"`
	LifetimeTotal     Money            `json:"lifetime_total"`
	CategoryBreakdown map[string]Money `json:"category_breakdown"`
}
