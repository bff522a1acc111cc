package data360

// aggregateCodes are the regional and income-group aggregates the source
// returns alongside individual countries (e.g. WLD = World, HIC = High
// income). The tool layer filters these out by default so "top N countries"
// answers are not dominated by rollups.
var aggregateCodes = map[string]struct{}{
	"AFE": {}, "AFW": {}, "ARB": {}, "CEB": {}, "CSS": {}, "EAP": {},
	"EAR": {}, "EAS": {}, "ECA": {}, "ECS": {}, "EMU": {}, "EUU": {},
	"FCS": {}, "HIC": {}, "HPC": {}, "IBD": {}, "IBT": {}, "IDA": {},
	"IDB": {}, "IDX": {}, "INX": {}, "LAC": {}, "LCN": {}, "LDC": {},
	"LIC": {}, "LMC": {}, "LMY": {}, "LTE": {}, "MEA": {}, "MIC": {},
	"MNA": {}, "NAC": {}, "OED": {}, "OSS": {}, "PRE": {}, "PSS": {},
	"PST": {}, "SAS": {}, "SSA": {}, "SSF": {}, "SST": {}, "TEA": {},
	"TEC": {}, "TLA": {}, "TMN": {}, "TSA": {}, "TSS": {}, "UMC": {},
	"WLD": {},
}

// IsAggregate reports whether a reference-area code is a regional or
// income-group aggregate rather than an individual country.
func IsAggregate(code string) bool {
	_, ok := aggregateCodes[code]
	return ok
}
