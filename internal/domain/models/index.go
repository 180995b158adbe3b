package models

// IndexDefinition groups instruments into a composite index.
type IndexDefinition struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// IndexValue is the computed value of one index.
type IndexValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func DefaultIndexes() []IndexDefinition {
	return []IndexDefinition{
		{Name: "CQA", Members: []string{"MICX", "APPL", "APP", "SNRG", "CITI", "MGMT", "AUTX", "MDXX"}},
		{Name: "TechPower", Members: []string{"MICX", "APPL"}},
		{Name: "CoalCore", Members: []string{"APP", "SNRG"}},
		{Name: "MainStreet", Members: []string{"CITI", "MGMT", "AUTX"}},
		{Name: "BioFuture", Members: []string{"MDXX"}},
	}
}
