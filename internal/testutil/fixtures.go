// Package testutil holds fixture rows and a fixed clock shared by tests.
package testutil

// CountryRows returns the country fixture: three rows with
// numeric ids, a nil code on Mexico and mixed active flags.
func CountryRows() []map[string]any {
	return []map[string]any{
		{"id": 1, "name": "Canada", "code": "CA", "active": true, "population": 38},
		{"id": 2, "name": "Mexico", "code": nil, "active": false, "population": 126},
		{"id": 3, "name": "Peru", "code": "PE", "active": true, "population": 33},
	}
}

// PairRows returns [{id:1,name:"a"},{id:2,name:"b"}].
func PairRows() []map[string]any {
	return []map[string]any{
		{"id": 1, "name": "a"},
		{"id": 2, "name": "b"},
	}
}

// CurrencyRows returns rows keyed by string ids, for stores where max+1
// id assignment does not apply.
func CurrencyRows() []map[string]any {
	return []map[string]any{
		{"id": "USD", "name": "US Dollar", "symbol": "$"},
		{"id": "EUR", "name": "Euro", "symbol": "€"},
	}
}
