package schema

import "strings"

// The fixed sheet layouts. Each table is an ordered list of
// (key, label) pairs: the key addresses the extraction record, the
// label is the rendered header or row caption. Rendering logic never
// hardcodes a field name; it walks these tables, so layout and
// transformation stay independently testable.

// Field is one (record key, display label) pair. A Field with an empty
// Key is a section-header row: it renders only its label.
type Field struct {
	Key   string
	Label string
}

// LineItem is one column of the transposed period-triplet sheets.
// Header marks section-caption pseudo-fields, which never carry values.
type LineItem struct {
	Section string
	Key     string
	Label   string
	Header  bool
}

// Sheet names, in workbook order.
const (
	SheetPortfolioSummary           = "Portfolio Summary"
	SheetScheduleOfInvestments      = "Schedule of Investments"
	SheetStatementOfOperations      = "Statement of Operations"
	SheetStatementOfCashflows       = "Statement of Cashflows"
	SheetPCAPStatement              = "PCAP Statement"
	SheetPortfolioCompanyProfile    = "Portfolio Company Profile"
	SheetPortfolioCompanyFinancials = "Portfolio Company Financials"
	SheetFootnotes                  = "Footnotes"
	SheetReferenceValues            = "Reference Values"
)

// PeriodLabels are the row captions of the transposed statement sheets.
var PeriodLabels = []string{"Current Period", "Prior Period", "Year to Date"}

// PortfolioSummaryFields is the key/value sheet layout.
var PortfolioSummaryFields = []Field{
	{"general_partner", "General Partner"},
	{"ilpa_gp", "ILPA GP"},
	{"assets_under_management", "Assets Under Management"},
	{"active_funds", "Active Funds"},
	{"active_portfolio_companies", "Active Portfolio Companies"},
	{"fund_name", "Fund Name"},
	{"fund_currency", "Fund Currency"},
	{"total_commitments", "Total Commitments"},
	{"total_drawdowns", "Total Drawdowns"},
	{"remaining_commitments", "Remaining Commitments"},
	{"net_contributions", "Net Contributions"},
	{"nav", "NAV"},
	{"fair_value", "Fair Value"},
	{"total_investments", "Total Number of Investments"},
	{"realized_investments", "Realized Investments"},
	{"unrealized_investments", "Unrealized Investments"},
	{"total_distributions", "Total Distributions"},
	{"distributions_percent_of_drawdowns", "- as % of Drawdowns"},
	{"distributions_percent_of_commitments", "- as % of Commitments"},
	{"dpi", "DPI"},
	{"rvpi", "RVPI"},
	{"tvpi", "TVPI"},
	{"irr", "IRR"},
	{"moic", "MOIC"},
	{"", "Portfolio Breakdown By Region"},
	{"north_america_percent", "North America"},
	{"europe_percent", "Europe"},
	{"asia_percent", "Asia"},
	{"other_region_percent", "Other Regions"},
	{"", "Portfolio Breakdown By Industry"},
	{"consumer_goods_percent", "Consumer Goods"},
	{"it_percent", "IT"},
	{"financials_percent", "Financials"},
	{"healthcare_percent", "HealthCare"},
	{"services_percent", "Services"},
	{"industrials_percent", "Industrials"},
	{"other_industry_percent", "Other"},
}

// ScheduleOfInvestmentsColumns lays out one row per investment.
var ScheduleOfInvestmentsColumns = []Field{
	{"company", "Company"},
	{"fund", "Fund"},
	{"reported_date", "Reported Date"},
	{"investment_status", "Investment Status"},
	{"security_type", "Security Type"},
	{"number_of_shares", "Number of Shares"},
	{"fund_ownership_percent", "Fund Ownership %"},
	{"initial_investment_date", "Initial Investment Date"},
	{"fund_commitment", "Fund Commitment"},
	{"total_invested", "Total Invested (A)"},
	{"current_cost", "Current Cost (B)"},
	{"reported_value", "Reported Value (C)"},
	{"realized_proceeds", "Realized Proceeds (D)"},
	{"lp_ownership_percent_fully_diluted", "LP Ownership % (Fully Diluted)"},
	{"final_exit_date", "Final Exit Date"},
	{"valuation_policy", "Valuation Policy"},
	{"period_change_in_valuation", "Period Change in Valuation"},
	{"period_change_in_cost", "Period Change in Cost"},
	{"unrealized_gains_losses", "Unrealized Gains/(Losses)"},
	{"movement_summary", "Movement Summary"},
	{"current_quarter_investment_multiple", "Current Quarter Investment Multiple"},
	{"prior_quarter_investment_multiple", "Prior Quarter Investment Multiple"},
	{"since_inception_irr", "Since Inception IRR"},
}

// StatementOfOperationsColumns lays out one row per reporting period.
var StatementOfOperationsColumns = []Field{
	{"period", "Period"},
	{"portfolio_interest_income", "Portfolio Interest Income"},
	{"portfolio_dividend_income", "Portfolio Dividend Income"},
	{"other_interest_earned", "Other Interest Earned"},
	{"total_income", "Total Income"},
	{"management_fees_net", "Management Fees, Net"},
	{"broken_deal_fees", "Broken Deal Fees"},
	{"interest", "Interest"},
	{"professional_fees", "Professional Fees"},
	{"bank_fees", "Bank Fees"},
	{"advisory_directors_fees", "Advisory Directors' Fees"},
	{"insurance", "Insurance"},
	{"total_expenses", "Total Expenses"},
	{"net_operating_income_deficit", "Net Operating Income / (Deficit)"},
	{"net_realized_gain_loss_on_investments", "Net Realized Gain / (Loss) on Investments"},
	{"net_change_in_unrealized_gain_loss_on_investments", "Net Change in Unrealized Gain / (Loss) on Investments"},
	{"net_realized_gain_loss_due_to_fx", "Net Realized Gain / (Loss) due to F/X"},
	{"net_realized_and_unrealized_gain_loss_on_investments", "Net Realized and Unrealized Gain / (Loss) on Investments"},
	{"net_increase_decrease_in_partners_capital", "Net Increase / (Decrease) in Partners' Capital Resulting from Operations"},
}

// Cashflow statement sections, in declared order.
const (
	CashflowOperating    = "operating_activities"
	CashflowFinancing    = "financing_activities"
	CashflowCashSummary  = "cash_summary"
	CashflowSupplemental = "supplemental_information"
)

var CashflowSections = []string{
	CashflowOperating,
	CashflowFinancing,
	CashflowCashSummary,
	CashflowSupplemental,
}

// CashflowLineItems define the transposed Statement of Cashflows sheet:
// one column per entry, grouped by section in declared order.
var CashflowLineItems = []LineItem{
	{CashflowOperating, "section_header", "Cash flows from operating activities", true},
	{CashflowOperating, "net_increase_decrease_partners_capital", "Net increase/(decrease) in partners' capital", false},
	{CashflowOperating, "adjustments_to_reconcile", "Adjustments to reconcile net increase/(decrease)", false},
	{CashflowOperating, "net_realized_gain_loss_investments", "Net realized (gain)/loss on investments", false},
	{CashflowOperating, "net_change_unrealized_gain_loss", "Net change in unrealized (gain)/loss on investments", false},
	{CashflowOperating, "changes_in_operating_assets_liabilities", "Changes in operating assets and liabilities", false},
	{CashflowOperating, "increase_decrease_due_from_affiliates", "(Increase)/decrease in due from affiliates", false},
	{CashflowOperating, "increase_decrease_due_from_third_party", "(Increase)/decrease in due from third party", false},
	{CashflowOperating, "increase_decrease_due_from_investment", "(Increase)/decrease in due from investment", false},
	{CashflowOperating, "purchase_of_investments", "Purchase of investments", false},
	{CashflowOperating, "proceeds_from_sale_of_investments", "Proceeds from sale of investments", false},
	{CashflowOperating, "net_cash_provided_by_operating_activities", "Net cash provided by/(used in) operating activities", false},
	{CashflowFinancing, "section_header", "Cash flows from financing activities", true},
	{CashflowFinancing, "capital_contributions", "Capital contributions", false},
	{CashflowFinancing, "distributions", "Distributions", false},
	{CashflowFinancing, "increase_decrease_due_to_limited_partners", "Increase/(decrease) in due to limited partners", false},
	{CashflowFinancing, "increase_decrease_due_to_affiliates", "Increase/(decrease) in due to affiliates", false},
	{CashflowFinancing, "increase_decrease_due_from_limited_partners", "(Increase)/decrease in due from limited partners", false},
	{CashflowFinancing, "proceeds_from_loans", "Proceeds from loans", false},
	{CashflowFinancing, "repayment_of_loans", "Repayment of loans", false},
	{CashflowFinancing, "net_cash_provided_by_financing_activities", "Net cash provided by/(used in) financing activities", false},
	{CashflowCashSummary, "net_increase_decrease_cash", "Net increase/(decrease) in cash and cash equivalents", false},
	{CashflowCashSummary, "cash_beginning_of_period", "Cash and cash equivalents, beginning of period", false},
	{CashflowCashSummary, "cash_end_of_period", "Cash and cash equivalents, end of period", false},
	{CashflowSupplemental, "supplemental_disclosure_header", "Supplemental disclosure of cash flow information", true},
	{CashflowSupplemental, "cash_paid_for_interest", "Cash paid for interest", false},
}

// PCAP statement sections, in declared order.
const (
	PCAPNavMovements     = "nav_movements"
	PCAPFeesAndExpenses  = "fees_and_expenses"
	PCAPIncomePerf       = "income_and_performance"
	PCAPEndingNav        = "ending_nav_and_commitments"
)

var PCAPSections = []string{
	PCAPNavMovements,
	PCAPFeesAndExpenses,
	PCAPIncomePerf,
	PCAPEndingNav,
}

// PCAPLineItems define the transposed PCAP Statement sheet.
var PCAPLineItems = []LineItem{
	{PCAPNavMovements, "beginning_nav_net_of_incentive", "Beginning NAV - Net of Incentive Allocation", false},
	{PCAPNavMovements, "contributions_cash_non_cash", "Contributions - Cash & Non-Cash", false},
	{PCAPNavMovements, "distributions_cash_non_cash", "Distributions - Cash & Non-Cash", false},
	{PCAPNavMovements, "total_cash_non_cash_flows", "Total Cash / Non-Cash Flows", false},
	{PCAPFeesAndExpenses, "management_fees_gross", "(Management Fees - Gross of Offsets, Waivers & Rebates)", false},
	{PCAPFeesAndExpenses, "management_fee_rebate", "(Management Fee Rebate)", false},
	{PCAPFeesAndExpenses, "partnership_expenses_total", "(Partnership Expenses - Total)", false},
	{PCAPFeesAndExpenses, "total_offsets_to_fees_expenses", "Total Offsets to Fees & Expenses", false},
	{PCAPFeesAndExpenses, "fee_waiver", "Fee Waiver", false},
	{PCAPIncomePerf, "interest_income", "Interest Income", false},
	{PCAPIncomePerf, "dividend_income", "Dividend Income", false},
	{PCAPIncomePerf, "interest_expense", "(Interest Expense)", false},
	{PCAPIncomePerf, "other_income_expense", "Other Income/(Expense)", false},
	{PCAPIncomePerf, "total_net_operating_income", "Total Net Operating Income / (Expense)", false},
	{PCAPIncomePerf, "placement_fees", "(Placement Fees)", false},
	{PCAPIncomePerf, "realized_gain_loss", "Realized Gain / (Loss)", false},
	{PCAPIncomePerf, "change_in_unrealized_gain_loss", "Change in Unrealized Gain / (Loss)", false},
	{PCAPEndingNav, "ending_nav_net_of_incentive", "Ending NAV - Net of Incentive Allocation", false},
	{PCAPEndingNav, "incentive_allocation_paid", "Incentive Allocation - Paid During the Period", false},
	{PCAPEndingNav, "accrued_incentive_allocation_change", "Accrued Incentive Allocation - Periodic Change", false},
	{PCAPEndingNav, "accrued_incentive_allocation_balance", "Accrued Incentive Allocation - Ending Period Balance", false},
	{PCAPEndingNav, "ending_nav_gross_of_incentive", "Ending NAV - Gross of Accrued Incentive Allocation", false},
	{PCAPEndingNav, "total_commitment", "Total Commitment", false},
	{PCAPEndingNav, "beginning_unfunded_commitment", "Beginning Unfunded Commitment", false},
	{PCAPEndingNav, "plus_recallable_distributions", "Plus Recallable Distributions", false},
	{PCAPEndingNav, "less_expired_released_commitments", "Less Expired/Released Commitments", false},
	{PCAPEndingNav, "other_unfunded_adjustment", "+/- Other Unfunded Adjustment", false},
	{PCAPEndingNav, "ending_unfunded_commitment", "Ending Unfunded Commitment", false},
}

// CompanyProfileColumns lay out one row per portfolio company profile.
var CompanyProfileColumns = []Field{
	{"company_name", "Company Name"},
	{"initial_investment_date", "Initial Investment Date"},
	{"industry", "Industry"},
	{"headquarters", "Headquarters"},
	{"company_description", "Company Description"},
	{"fund_ownership_percent", "Fund Ownership %"},
	{"investor_group_ownership_percent", "Investor Group Ownership %"},
	{"enterprise_valuation_at_closing", "Enterprise Valuation at Closing"},
	{"securities_held", "Securities Held"},
	{"ticker_symbol", "Ticker Symbol"},
	{"investor_group_members", "Investor Group Members"},
	{"management_ownership_percent", "Management Ownership %"},
	{"board_representation", "Board Representation"},
	{"board_members", "Board Members"},
	{"investment_commitment", "Investment Commitment"},
	{"invested_capital", "Invested Capital"},
	{"reported_value", "Reported Value"},
	{"realized_proceeds", "Realized Proceeds"},
	{"investment_multiple", "Investment Multiple"},
	{"gross_irr", "Gross IRR (All Security Types)"},
	{"investment_background", "Investment Background"},
	{"initial_investment_thesis", "Initial Investment Thesis"},
	{"exit_expectations", "Exit Expectations"},
	{"recent_events_key_initiatives", "Recent Events & Key Initiatives"},
	{"company_assessment", "Company Assessment"},
	{"valuation_methodology", "Valuation Methodology"},
	{"risk_assessment_update", "Risk Assessment / Update"},
}

// CompanyFinancialsColumns lay out one row per company financial record.
var CompanyFinancialsColumns = []Field{
	{"company", "Company"},
	{"company_currency", "Company Currency"},
	{"operating_data_date", "Operating Data Date"},
	{"data_type", "Data Type"},
	{"ltm_revenue", "LTM Revenue"},
	{"ltm_ebitda", "LTM EBITDA"},
	{"cash", "Cash"},
	{"book_value", "Book Value"},
	{"gross_debt", "Gross Debt"},
	{"debt_1_year", "1 Year"},
	{"debt_2_years", "2 Years"},
	{"debt_3_years", "3 Years"},
	{"debt_4_years", "4 Years"},
	{"debt_5_years", "5 Years"},
	{"debt_after_5_years", "After 5 Years"},
	{"yoy_percent_growth_revenue", "YOY % Growth (Revenue)"},
	{"ltm_ebitda_pro_forma", "LTM EBITDA (Pro-forma)"},
	{"yoy_percent_growth_ebitda", "YOY % Growth (EBITDA)"},
	{"ebitda_margin", "EBITDA Margin"},
	{"total_enterprise_value", "Total Enterprise Value (TEV)"},
	{"tev_multiple", "TEV Multiple"},
	{"total_leverage", "Total Leverage"},
	{"total_leverage_multiple", "Total Leverage Multiple"},
}

// FootnoteColumns lay out one row per footnote.
var FootnoteColumns = []Field{
	{"note_number", "Note #"},
	{"note_header", "Note Header"},
	{"operating_data_date", "Operating Data Date"},
	{"description", "Description"},
}

// ReferenceCategories lists the distinct-value categories collected
// from the source document. Categories absent from the input still
// render as an (empty) column.
var ReferenceCategories = []string{
	"investment_status_types",
	"security_types",
	"industries",
	"currencies",
	"valuation_methods",
}

// HumanizeKey turns a snake_case record key into a display header,
// e.g. "security_types" -> "Security Types".
func HumanizeKey(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
