package tool

// DefaultCatalog returns the built-in marketplace tool registry with USDC
// prices. Prices are immutable for the lifetime of the snapshot.
func DefaultCatalog() *Catalog {
	cat, err := NewCatalog(marketplaceTools)
	if err != nil {
		// The built-in registry is static data; a mismatch is a programming
		// error caught by tests, not a runtime condition.
		panic(err)
	}
	return cat
}

var countryProp = Property{
	Type:        "string",
	Description: "ISO 3166-1 alpha-2 country code, e.g. gb, us, in",
}

var locationParams = ParameterSpec{
	Type: "object",
	Properties: map[string]Property{
		"location": {
			Type:        "string",
			Description: "The city and state, e.g. San Francisco, CA",
		},
	},
	Required: []string{"location"},
}

var marketplaceTools = []Descriptor{
	{
		Name:        "get_weather1",
		Description: "Get the current weather for a location. COSTS: 0.04 USDC per call",
		Parameters:  locationParams,
		Price:       "0.04",
		Currency:    "USDC",
	},
	{
		Name:        "get_weather2",
		Description: "Get the current weather for a location. COSTS: 0.02 USDC per call",
		Parameters:  locationParams,
		Price:       "0.02",
		Currency:    "USDC",
	},
	{
		Name:        "get_weather3",
		Description: "Get the current weather for a location. COSTS: 0.01 USDC per call",
		Parameters:  locationParams,
		Price:       "0.01",
		Currency:    "USDC",
	},
	{
		Name:        "get_audio",
		Description: "Convert text to speech. RETURNS: WAV audio. COSTS: 0.03 USDC",
		Parameters: ParameterSpec{
			Type: "object",
			Properties: map[string]Property{
				"text": {
					Type:        "string",
					Description: "Text to convert into speech",
				},
				"voice": {
					Type:        "string",
					Description: "Voice name (default: autumn)",
					Enum:        []string{"autumn"},
					Default:     "autumn",
				},
			},
			Required: []string{"text"},
		},
		Price:    "0.03",
		Currency: "USDC",
	},
	{
		Name:        "adzuna_search_jobs",
		Description: "Search job listings across countries using Adzuna. RETURNS: job list with salaries, company, location. COSTS: 0.05 USDC per call",
		Parameters: ParameterSpec{
			Type: "object",
			Properties: map[string]Property{
				"country": countryProp,
				"keywords": {
					Type:        "string",
					Description: "Job search keywords, e.g. python developer",
				},
				"location": {
					Type:        "string",
					Description: "City or region, e.g. London, Bangalore",
				},
				"page": {
					Type:        "number",
					Description: "Page number (starts from 1)",
					Default:     1,
				},
				"resultsPerPage": {
					Type:        "number",
					Description: "Results per page (max 50)",
					Default:     10,
				},
			},
			Required: []string{"country"},
		},
		Price:    "0.05",
		Currency: "USDC",
	},
	{
		Name:        "adzuna_get_categories",
		Description: "Get valid job category tags for a country. REQUIRED before filtered searches. COSTS: 0.01 USDC per call",
		Parameters: ParameterSpec{
			Type:       "object",
			Properties: map[string]Property{"country": countryProp},
			Required:   []string{"country"},
		},
		Price:    "0.01",
		Currency: "USDC",
	},
	{
		Name:        "adzuna_salary_histogram",
		Description: "Get salary distribution histogram for matching jobs. RETURNS: salary buckets. COSTS: 0.02 USDC per call",
		Parameters: ParameterSpec{
			Type: "object",
			Properties: map[string]Property{
				"country":  countryProp,
				"keywords": {Type: "string", Description: "Job keywords"},
			},
			Required: []string{"country"},
		},
		Price:    "0.02",
		Currency: "USDC",
	},
	{
		Name:        "adzuna_top_companies",
		Description: "Get top hiring companies ranked by open positions. COSTS: 0.02 USDC per call",
		Parameters: ParameterSpec{
			Type:       "object",
			Properties: map[string]Property{"country": countryProp},
			Required:   []string{"country"},
		},
		Price:    "0.02",
		Currency: "USDC",
	},
	{
		Name:        "adzuna_geodata",
		Description: "Get job count and average salary by region. Useful for relocation analysis. COSTS: 0.02 USDC per call",
		Parameters: ParameterSpec{
			Type:       "object",
			Properties: map[string]Property{"country": countryProp},
			Required:   []string{"country"},
		},
		Price:    "0.02",
		Currency: "USDC",
	},
	{
		Name:        "adzuna_salary_history",
		Description: "Get historical salary trends over time. RETURNS: monthly averages. COSTS: 0.02 USDC per call",
		Parameters: ParameterSpec{
			Type:       "object",
			Properties: map[string]Property{"country": countryProp},
			Required:   []string{"country"},
		},
		Price:    "0.02",
		Currency: "USDC",
	},
}
