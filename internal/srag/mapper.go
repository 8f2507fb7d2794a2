package srag

import "strings"

// Field names a categorical column of the raw file.
type Field string

const (
	FieldEvolution    Field = "EVOLUCAO"
	FieldICU          Field = "UTI"
	FieldVaccineFlu   Field = "VACINA"
	FieldVaccineCovid Field = "VACINA_COV"
)

// The INFLUD dictionary encodes categoricals as small integers. The tables
// below are the canonical mappings; anything not listed resolves to Ignored.
//
// Evolution merges raw code 3 ("death from other causes") into Death. The
// merge lives here, in the table, so no downstream computation can re-derive
// it differently.
var evolutionCodes = map[string]Category{
	"1": Cure,
	"2": Death,
	"3": Death,
	"9": Ignored,
}

var yesNoCodes = map[string]Category{
	"1": Yes,
	"2": No,
	"9": Ignored,
}

var fieldCodes = map[Field]map[string]Category{
	FieldEvolution:    evolutionCodes,
	FieldICU:          yesNoCodes,
	FieldVaccineFlu:   yesNoCodes,
	FieldVaccineCovid: yesNoCodes,
}

// Resolve maps a raw cell value to its category. known is false when the
// value was non-empty but matched no table entry; the caller logs those and
// still gets Ignored back (mapping errors are tolerated, never fatal).
func Resolve(field Field, raw string) (cat Category, known bool) {
	code := normalizeCode(raw)
	if code == "" {
		return Ignored, true // absent values are Ignored by definition
	}
	table, ok := fieldCodes[field]
	if !ok {
		return Ignored, false
	}
	if cat, ok := table[code]; ok {
		return cat, true
	}
	return Ignored, false
}

// normalizeCode trims the cell and strips a float-style ".0" suffix:
// exported CSVs carry "1.0" where the dictionary says 1.
func normalizeCode(raw string) string {
	code := strings.TrimSpace(raw)
	code = strings.TrimSuffix(code, ".0")
	return code
}
