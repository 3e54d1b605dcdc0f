// Package relevance separates sector-wide headlines from single-company
// noise. The same check runs twice in the pipeline: once before persisting
// (to save classification budget) and once after classification (to force
// single-company headlines to neutral no matter what the model said).
package relevance

import "regexp"

// Sector-level keywords. A headline carrying one of these is likely about
// the sector, not one company.
var sectorKeywords = regexp.MustCompile(
	`(?i)\b(sector|industry|industries|market|markets|regulation|regulatory|policy|` +
		`across|widespread|multiple|wave|trend|downgrade|upgrade|analyst|index|` +
		`benchmark|etf|outlook|forecast|tariff|trade war|antitrust|merger wave|` +
		`layoffs|hiring|strike|federal reserve|fed |interest rate|inflation|` +
		`bipartisan|legislation|mandate|compliance|sector-wide|industrywide)\b`,
)

// Single-company action patterns: earnings, exec moves, deals, ratings.
var companyPatterns = regexp.MustCompile(
	`(?i)\b(reports earnings|beats estimates|misses estimates|quarterly results|` +
		`revenue (rises|falls|surges|drops)|stock (rises|falls|surges|drops|jumps|plunges)|` +
		`shares (rise|fall|surge|drop|jump|plunge|of )|CEO|CFO|CTO|COO|appoints|names|hires|fires|` +
		`IPO filing|stock buyback|dividend (hike|cut)|price target|` +
		`launches product|unveils|announces partnership|announces deal|` +
		`acquires|to acquire|buys|to buy|agreed to|signs deal|` +
		`rated buy|rated sell|rated hold|rated overweight|rated underweight)\b`,
)

// Cashtag tokens: $AAPL, $TSLA.
var tickerPattern = regexp.MustCompile(`\$[A-Z]{1,5}\b`)

// Mega-cap names that routinely pollute sector feeds.
var majorCompanies = regexp.MustCompile(
	`(?i)\b(Apple|Google|Alphabet|Tesla|Amazon|Microsoft|Meta|Facebook|Netflix|Nvidia|` +
		`AMD|Intel|Qualcomm|Broadcom|Salesforce|Adobe|Oracle|Cisco|IBM|` +
		`JPMorgan|Goldman Sachs|Morgan Stanley|Bank of America|Citigroup|Wells Fargo|` +
		`ExxonMobil|Chevron|ConocoPhillips|Shell|BP|` +
		`Johnson & Johnson|Pfizer|Merck|AbbVie|UnitedHealth|Eli Lilly|` +
		`Walmart|Target|Costco|Home Depot|McDonald's|Starbucks|Nike|` +
		`Disney|Comcast|AT&T|Verizon|T-Mobile|` +
		`Boeing|Lockheed Martin|Caterpillar|3M|Honeywell|` +
		`Berkshire|Visa|Mastercard|PayPal)\b`,
)

// IsSingleCompanyNews reports whether a headline is about a single company
// rather than the sector. Pure and deterministic; any matching rule
// suffices.
func IsSingleCompanyNews(title string) bool {
	hasSectorKeyword := sectorKeywords.MatchString(title)
	hasCompanyPattern := companyPatterns.MatchString(title)
	hasTicker := tickerPattern.MatchString(title)
	hasMajorCompany := majorCompanies.MatchString(title)

	// Ticker mention without sector keywords.
	if hasTicker && !hasSectorKeyword {
		return true
	}
	// Company action pattern without sector keywords.
	if hasCompanyPattern && !hasSectorKeyword {
		return true
	}
	// Major company plus action pattern wins even over sector keywords.
	if hasMajorCompany && hasCompanyPattern {
		return true
	}
	// Major company without sector keywords.
	if hasMajorCompany && !hasSectorKeyword {
		return true
	}
	return false
}
