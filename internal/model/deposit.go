package model

// DepositMonth is the savings state of one month. Amounts are in cents.
// MonthStartTime is unique within a collection.
type DepositMonth struct {
	MonthStartTime int64 `json:"month_start_time"`
	CurrentAmount  int64 `json:"current_amount"`
	MonthlyIncome  int64 `json:"monthly_income"`
	ExtraDeposit   int64 `json:"extra_deposit"`
}
