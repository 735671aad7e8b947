package filter

import (
	"fmt"
)

// Localizer translates message ids into a user's language.
type Localizer interface {
	Gettext(msgid string) string
}

// DeferredName is a filter name resolved at display time: Template is
// translated, then Param is interpolated into it when non-empty.
type DeferredName struct {
	Template string
	Param    string
}

// Resolve translates and interpolates the name. A nil Localizer leaves the
// template untranslated.
func (d DeferredName) Resolve(loc Localizer) string {
	tmpl := d.Template
	if loc != nil {
		tmpl = loc.Gettext(tmpl)
	}
	if d.Param == "" {
		return tmpl
	}
	return fmt.Sprintf(tmpl, d.Param)
}

// NewDeferred creates an empty filter whose display name is resolved lazily,
// e.g. NewDeferred(PersonKind, "Descendants of %s", "Smith, John").
func NewDeferred(kind *Descriptor, template, param string) *Filter {
	f := New(kind)
	f.deferred = &DeferredName{Template: template, Param: param}
	return f
}

// Deferred returns the deferred name, or nil for a plainly named filter.
func (f *Filter) Deferred() *DeferredName {
	return f.deferred
}

// DisplayName returns the name to show a user. Filters created by NewDeferred
// resolve their template through loc; others return Name.
func (f *Filter) DisplayName(loc Localizer) string {
	if f.deferred != nil {
		return f.deferred.Resolve(loc)
	}
	return f.Name
}
