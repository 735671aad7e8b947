package rules

import (
	"kinfilter/internal/domain/filter"
	"kinfilter/internal/domain/record"
)

// EntireDatabaseName is the name of the built-in filter every namespace offers.
const EntireDatabaseName = "all"

// EntireDatabase returns the built-in filter matching every record of kind.
// Its display name is translated when shown.
func EntireDatabase(kind record.Kind) *filter.Filter {
	f := filter.NewDeferred(filter.DescriptorFor(kind), "Entire Database", "")
	f.SetName(EntireDatabaseName)
	f.AddRule(&Everything{Base: Base{class: "Everything", kind: kind}})
	return f
}
