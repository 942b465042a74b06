package ratios

// Line-item aliases in lookup order. Display names come first, vendor camelCase
// names after them.
var (
	CurrentAssetsAliases      = []string{"Total Current Assets", "Current Assets", "totalCurrentAssets"}
	CurrentLiabilitiesAliases = []string{"Total Current Liabilities", "Current Liabilities", "totalCurrentLiabilities"}
	TotalDebtAliases          = []string{"Total Debt", "Total Liabilities Net Minority Interest", "shortLongTermDebtTotal", "totalLiab"}
	EquityAliases             = []string{"Total Stockholders Equity", "Stockholders Equity", "totalStockholderEquity"}
	NetIncomeAliases          = []string{"Net Income", "Net Income Common Stockholders", "netIncome"}
	RevenueAliases            = []string{"Total Revenue", "Revenue", "totalRevenue"}
)
