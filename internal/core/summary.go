package core

// CategoryAmount is the amount spent for one category.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthOverview holds aggregated spending for one calendar month.
type MonthOverview struct {
	Year       int
	Month      int
	Total      Money
	ByCategory []CategoryAmount
}
