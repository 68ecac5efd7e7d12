package categorization

import "github.com/shopspring/decimal"

// CatalogVersion identifies the built-in categories and keyword list. Bump it
// whenever either changes so stored classifications can be told apart.
const CatalogVersion = "2026.1"

func cat(id, name, color string, budget int64, typ CategoryType) Category {
	return Category{ID: id, Name: name, Color: color, Budget: decimal.NewFromInt(budget), Type: typ}
}

var defaultCategories = []Category{
	cat("income", "Income", "#6BCB77", 0, TypeIncome),
	cat("savings", "Savings", "#FCD34D", 500, TypeSavings),
	cat("marcus", "Marcus", "#FCD34D", 0, TypeSavings),
	cat("housing", "Rent", "#A78BFA", 1500, TypeExpense),
	cat("food", "Food & Dining", "#4ECDC4", 600, TypeExpense),
	cat("grocery", "Grocery", "#34D399", 400, TypeExpense),
	cat("transport", "Transportation", "#FFE66D", 200, TypeExpense),
	cat("gasoline", "Gasoline", "#FB923C", 150, TypeExpense),
	cat("electricity", "Electricity", "#60A5FA", 150, TypeExpense),
	cat("wifi", "Wi-Fi", "#818CF8", 80, TypeExpense),
	cat("phone", "Phone", "#A78BFA", 80, TypeExpense),
	cat("health_ins", "Health Insurance", "#6BCB77", 300, TypeExpense),
	cat("dental", "Dental", "#6EE7B7", 100, TypeExpense),
	cat("medical", "Medical Bills", "#F87171", 200, TypeExpense),
	cat("car_payment", "Car Payment", "#FBBF24", 400, TypeExpense),
	cat("apple_card", "Apple Card", "#E5E7EB", 200, TypeExpense),
	cat("citi_card", "CITI Card", "#3B82F6", 200, TypeExpense),
	cat("care_credit", "Care Credit", "#EC4899", 100, TypeExpense),
	cat("wells_fargo", "Wells Fargo Card", "#EF4444", 200, TypeExpense),
	cat("amoco_loan", "AMOCO Loan", "#F59E0B", 0, TypeExpense),
	cat("jgw", "JG Wentworth", "#D97706", 0, TypeExpense),
	cat("fitness", "Fitness", "#4ADE80", 60, TypeExpense),
	cat("self_care", "Self Care", "#F472B6", 100, TypeExpense),
	cat("dogs", "Dogs", "#A3E635", 100, TypeExpense),
	cat("baby", "Baby", "#FDE68A", 150, TypeExpense),
	cat("contribution", "Contribution", "#C4B5FD", 100, TypeExpense),
	cat("subscriptions", "Subscriptions", "#A78BFA", 100, TypeExpense),
	cat("entertainment", "Entertainment", "#F472B6", 100, TypeExpense),
	cat("travel", "Travel", "#67E8F9", 200, TypeExpense),
	cat("shopping", "Shopping / Misc", "#FB923C", 200, TypeExpense),
	cat("work", "Work", "#94A3B8", 0, TypeExpense),
	cat(FallbackCategoryID, "Other", "#8B86B0", 100, TypeExpense),
}

// builtinRules is evaluated in order after user rules; "uber eats" must stay
// above "uber".
var builtinRules = []KeywordRule{
	{"kw_payroll", "payroll", "income"},
	{"kw_salary", "salary", "income"},
	{"kw_ddep", "direct deposit", "income"},
	{"kw_zelle", "zelle", "income"},
	{"kw_acorns", "acorns", "savings"},
	{"kw_marcus1", "marcus", "marcus"},
	{"kw_transfer", "transfer", "savings"},
	{"kw_rent", "apts lewis", "housing"},
	{"kw_rent2", "rent", "housing"},
	{"kw_mortgage", "mortgage", "housing"},
	{"kw_chickfila", "chick-fil-a", "food"},
	{"kw_dq", "dairy queen", "food"},
	{"kw_doordash", "doordash", "food"},
	{"kw_mcdonalds", "mcdonald", "food"},
	{"kw_shipley", "shipley", "food"},
	{"kw_starbucks", "starbucks", "food"},
	{"kw_wingstop", "wingstop", "food"},
	{"kw_restaurant", "restaurant", "food"},
	{"kw_ubereats", "uber eats", "food"},
	{"kw_grubhub", "grubhub", "food"},
	{"kw_heb", "h-e-b", "grocery"},
	{"kw_kroger", "kroger", "grocery"},
	{"kw_walmart", "wal-mart", "grocery"},
	{"kw_walmart2", "walmart", "grocery"},
	{"kw_aldi", "aldi", "grocery"},
	{"kw_chevron", "chevron", "gasoline"},
	{"kw_fuel", "fuel", "gasoline"},
	{"kw_shell", "shell", "gasoline"},
	{"kw_exxon", "exxon", "gasoline"},
	{"kw_cpenergy", "cpenergy", "electricity"},
	{"kw_reliant", "reliant", "electricity"},
	{"kw_comcast", "comcast", "wifi"},
	{"kw_mobile", "mobile", "phone"},
	{"kw_tmobile", "t-mobile", "phone"},
	{"kw_att", "at&t", "phone"},
	{"kw_aetna", "aetna", "health_ins"},
	{"kw_ambetter", "ambetter", "health_ins"},
	{"kw_guardian", "guardian", "health_ins"},
	{"kw_dental", "dental", "dental"},
	{"kw_napaa", "napaanesth", "medical"},
	{"kw_peds_uro", "pediatric urology", "medical"},
	{"kw_serene", "serene", "medical"},
	{"kw_kelsey", "kelsey", "medical"},
	{"kw_memorial", "memorial herma", "medical"},
	{"kw_wf_pay", "wf payment", "car_payment"},
	{"kw_apple", "applecard", "apple_card"},
	{"kw_citi", "citi", "citi_card"},
	{"kw_sync", "synchrony bank", "care_credit"},
	{"kw_wf_cred", "wf credit", "wells_fargo"},
	{"kw_amoco", "amoco", "amoco_loan"},
	{"kw_jgw", "jgw", "jgw"},
	{"kw_goldman", "goldman", "marcus"},
	{"kw_fitness", "fitness", "fitness"},
	{"kw_sally", "sally", "self_care"},
	{"kw_rainwalk", "rainwalk", "dogs"},
	{"kw_petco", "petco", "dogs"},
	{"kw_petsmart", "petsmart", "dogs"},
	{"kw_carters", "carters", "baby"},
	{"kw_tithe", "tithe.ly", "contribution"},
	{"kw_sub", "subscription", "subscriptions"},
	{"kw_netflix", "netflix", "subscriptions"},
	{"kw_spotify", "spotify", "subscriptions"},
	{"kw_hulu", "hulu", "subscriptions"},
	{"kw_disney", "disney+", "subscriptions"},
	{"kw_movie", "movie", "entertainment"},
	{"kw_cinema", "cinema", "entertainment"},
	{"kw_amazon", "amazon", "shopping"},
	{"kw_homedepot", "home depot", "shopping"},
	{"kw_oportun", "oportun", "shopping"},
	{"kw_target", "target", "shopping"},
	{"kw_hctra", "hctra", "transport"},
	{"kw_parking", "parking", "transport"},
	{"kw_uber", "uber", "transport"},
	{"kw_lyft", "lyft", "transport"},
	{"kw_iah", "iah", "travel"},
	{"kw_airport", "airport", "travel"},
	{"kw_hotel", "hotel", "travel"},
	{"kw_mailmeteor", "mailmeteor", "work"},
}

// DefaultCategories returns a copy of the built-in categories.
func DefaultCategories() []Category {
	out := make([]Category, len(defaultCategories))
	copy(out, defaultCategories)
	return out
}

// BuiltinRules returns a copy of the built-in keyword rules in evaluation order.
func BuiltinRules() []KeywordRule {
	out := make([]KeywordRule, len(builtinRules))
	copy(out, builtinRules)
	return out
}

// categoryMigrations renames category ids used by older data.
var categoryMigrations = map[string]string{
	"utilities": "electricity",
	"groceries": "grocery",
	"dining":    "food",
	"rent":      "housing",
	"gas":       "gasoline",
	"subs":      "subscriptions",
	"misc":      "shopping",
	"internet":  "wifi",
}

// MigrateCategoryID maps a stored category id to its current name. Unknown ids
// are returned unchanged.
func MigrateCategoryID(id string) string {
	if to, ok := categoryMigrations[id]; ok {
		return to
	}
	return id
}
