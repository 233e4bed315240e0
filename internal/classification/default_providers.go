package classification

// DefaultProviders returns the built-in table of UK statement issuers.
func DefaultProviders() []Provider {
	return []Provider{
		// Pensions
		{Name: "Aviva", Keywords: []string{"aviva"}, MaxConfidence: 95},
		{Name: "Legal & General", Keywords: []string{"legal & general", "legal and general", "legal general", "l&g", "landg"}, MaxConfidence: 95},
		{Name: "Scottish Widows", Keywords: []string{"scottish widows", "scottishwidows"}, MaxConfidence: 95},
		{Name: "Standard Life", Keywords: []string{"standard life", "standardlife"}, MaxConfidence: 95},
		{Name: "Royal London", Keywords: []string{"royal london", "royallondon"}, MaxConfidence: 95},
		{Name: "Nest", Keywords: []string{"nest pension", "nestpension", "nest corporation"}, MaxConfidence: 90},
		{Name: "Aegon", Keywords: []string{"aegon"}, MaxConfidence: 95},
		{Name: "PensionBee", Keywords: []string{"pensionbee", "pension bee"}, MaxConfidence: 95},
		{Name: "Prudential", Keywords: []string{"prudential", "m&g wealth"}, MaxConfidence: 95},
		{Name: "Scottish Equitable", Keywords: []string{"scottish equitable"}, MaxConfidence: 90},

		// Investments
		{Name: "Hargreaves Lansdown", Keywords: []string{"hargreaves lansdown", "hargreaves", "hl vantage"}, MaxConfidence: 95},
		{Name: "Vanguard", Keywords: []string{"vanguard"}, MaxConfidence: 95},
		{Name: "Fidelity", Keywords: []string{"fidelity"}, MaxConfidence: 95},
		{Name: "AJ Bell", Keywords: []string{"aj bell", "ajbell", "youinvest"}, MaxConfidence: 95},
		{Name: "Interactive Investor", Keywords: []string{"interactive investor", "ii.co.uk"}, MaxConfidence: 90},
		{Name: "Trading 212", Keywords: []string{"trading 212", "trading212"}, MaxConfidence: 95},
		{Name: "Freetrade", Keywords: []string{"freetrade"}, MaxConfidence: 95},

		// Banks and building societies
		{Name: "Nationwide", Keywords: []string{"nationwide"}, MaxConfidence: 95},
		{Name: "Barclays", Keywords: []string{"barclays", "barclaycard"}, MaxConfidence: 95},
		{Name: "HSBC", Keywords: []string{"hsbc"}, MaxConfidence: 95},
		{Name: "Lloyds", Keywords: []string{"lloyds"}, MaxConfidence: 95},
		{Name: "Santander", Keywords: []string{"santander"}, MaxConfidence: 95},
		{Name: "NatWest", Keywords: []string{"natwest", "national westminster"}, MaxConfidence: 95},
		{Name: "Halifax", Keywords: []string{"halifax"}, MaxConfidence: 95},
		{Name: "Monzo", Keywords: []string{"monzo"}, MaxConfidence: 95},
		{Name: "Starling", Keywords: []string{"starling"}, MaxConfidence: 95},
		{Name: "Marcus", Keywords: []string{"marcus by goldman", "marcus"}, MaxConfidence: 90},
		{Name: "Zopa", Keywords: []string{"zopa"}, MaxConfidence: 95},

		// Credit
		{Name: "American Express", Keywords: []string{"american express", "amex"}, MaxConfidence: 95},
		{Name: "Capital One", Keywords: []string{"capital one", "capitalone"}, MaxConfidence: 95},
	}
}
