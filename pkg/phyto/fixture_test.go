package phyto

func strPtr(s string) *string { return &s }

// testDataset is a small registry covering the cases the resolver tests need:
// shared display names, secondary names, a retired product and a near-miss spelling.
func testDataset() *Dataset {
	return &Dataset{
		Version: "2024-06-01",
		Products: []*Product{
			{Code: "8800006", Name: "DIMATE BF 400", Status: StatusAuthorized, Substances: "diméthoate 400.0 g/L", Function: "Insecticide", Formulation: "EC", Holder: "Cheminova"},
			{Code: "2240297", Name: "ABADIA", Status: StatusAuthorized, Function: "Fongicide", Holder: "Adama"},
			{Code: "2150918", Name: "Roundup Innov", SecondaryNames: []string{"Roundup Flash"}, Status: StatusAuthorized, Function: "Herbicide", Holder: "Bayer"},
			{Code: "9800336", Name: "Karaté Zéon", Status: StatusRetired, WithdrawalDate: strPtr("2021-03-31"), Function: "Insecticide", Holder: "Syngenta"},
			{Code: "2010513", Name: "Karate K", Status: StatusAuthorized, Function: "Insecticide", Holder: "Syngenta"},
			{Code: "2000462", Name: "CORAIL", Status: StatusAuthorized, Function: "Fongicide"},
			{Code: "2000463", Name: "Corail", Status: StatusRetired, WithdrawalDate: strPtr("2019-01-01"), Function: "Fongicide"},
		},
	}
}

func testBundle() *Bundle {
	return &Bundle{
		Dataset:        testDataset(),
		Aliases:        map[string]string{"abadia": "2240297", "round up": "2150918"},
		AliasNormalize: "lowercase_trim",
		Hazards:        map[string][]string{"8800006": {"H351"}, "9800336": {"H360FD", "H362"}},
	}
}

func testResolver() *Resolver {
	b := testBundle()
	return NewResolver(NewIndex(b.Dataset), NewAliasTable(b.Aliases, nil), DefaultMatchConfig())
}
