package dto

import (
	"kinfilter/internal/domain/filter"
	"kinfilter/internal/domain/filter/rules"
)

// RuleDTO is one rule of a filter definition.
type RuleDTO struct {
	Class    string   `json:"class" binding:"required"`
	Values   []string `json:"values"`
	UseRegex bool     `json:"use_regex"`
}

// FilterResponse describes a custom filter.
type FilterResponse struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Comment     string    `json:"comment,omitempty"`
	Function    string    `json:"function"`
	Invert      bool      `json:"invert"`
	Builtin     bool      `json:"builtin,omitempty"`
	Rules       []RuleDTO `json:"rules"`
}

// FromFilter converts a filter; loc translates deferred names.
func FromFilter(f *filter.Filter, loc filter.Localizer, builtin bool) FilterResponse {
	resp := FilterResponse{
		Name:        f.Name,
		DisplayName: f.DisplayName(loc),
		Comment:     f.Comment,
		Function:    string(f.LogicalOp),
		Invert:      f.Invert,
		Builtin:     builtin,
		Rules:       []RuleDTO{},
	}
	for _, r := range f.Rules() {
		if def, ok := r.(rules.Definition); ok {
			resp.Rules = append(resp.Rules, RuleDTO{
				Class:    def.Class(),
				Values:   def.Values(),
				UseRegex: def.UseRegex(),
			})
		}
	}
	return resp
}

// ApplyRequest runs a filter over the whole table, or over Handles only.
type ApplyRequest struct {
	Handles             []string `json:"handles"`
	Tree                bool     `json:"tree"`
	DisableOptimization bool     `json:"disable_optimization"`
}

// AdHocFilterRequest defines and runs a filter in one request.
type AdHocFilterRequest struct {
	ApplyRequest
	Function string    `json:"function"`
	Invert   bool      `json:"invert"`
	Rules    []RuleDTO `json:"rules" binding:"dive"`
}

// ApplyResponse lists the matching handles in evaluation order.
type ApplyResponse struct {
	Namespace string   `json:"namespace"`
	Filter    string   `json:"filter,omitempty"`
	Handles   []string `json:"handles"`
	Count     int      `json:"count"`
}

// RuleClassResponse describes a rule class usable in a namespace.
type RuleClassResponse struct {
	Class       string   `json:"class"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Labels      []string `json:"labels,omitempty"`
}
