// Package filterfile reads and writes custom filter definitions in the
// custom_filters.xml format:
//
//	<filters>
//	  <object type="Person">
//	    <filter name="Smiths" function="and" invert="1" comment="...">
//	      <rule class="HasNameOf" use_regex="False">
//	        <arg value=""/>
//	        <arg value="Smith"/>
//	      </rule>
//	    </filter>
//	  </object>
//	</filters>
package filterfile

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/domain/filter"
	"kinfilter/internal/domain/filter/rules"
	"kinfilter/internal/domain/record"
)

type xmlFilters struct {
	XMLName xml.Name    `xml:"filters"`
	Objects []xmlObject `xml:"object"`
}

type xmlObject struct {
	Type    string      `xml:"type,attr"`
	Filters []xmlFilter `xml:"filter"`
}

type xmlFilter struct {
	Name     string    `xml:"name,attr"`
	Function string    `xml:"function,attr,omitempty"`
	Invert   string    `xml:"invert,attr,omitempty"`
	Comment  string    `xml:"comment,attr,omitempty"`
	Rules    []xmlRule `xml:"rule"`
}

type xmlRule struct {
	Class    string   `xml:"class,attr"`
	UseRegex string   `xml:"use_regex,attr"`
	Args     []xmlArg `xml:"arg"`
}

type xmlArg struct {
	Value string `xml:"value,attr"`
}

// Load parses definitions into a new library. Rules that reference other
// filters by name resolve them through that library.
func Load(r io.Reader) (*filter.Library, error) {
	lib := filter.NewLibrary()
	if err := LoadInto(r, lib); err != nil {
		return nil, err
	}
	return lib, nil
}

// LoadInto parses definitions into lib, replacing filters with the same name.
// Nothing is added when the input has an error.
func LoadInto(r io.Reader, lib *filter.Library) error {
	parsed, err := Parse(r, lib)
	if err != nil {
		return err
	}
	for _, f := range parsed {
		lib.Add(f)
	}
	return nil
}

// Parse decodes definitions without storing them. Rules that reference other
// filters by name resolve them through lib.
func Parse(r io.Reader, lib *filter.Library) ([]*filter.Filter, error) {
	var doc xmlFilters
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, apperror.NewValidation("malformed filter definitions").WithCause(err)
	}

	var parsed []*filter.Filter
	for _, obj := range doc.Objects {
		kind, err := record.ParseKind(obj.Type)
		if err != nil {
			return nil, err
		}
		for _, xf := range obj.Filters {
			f, err := decodeFilter(kind, xf, lib)
			if err != nil {
				return nil, fmt.Errorf("filter %q: %w", xf.Name, err)
			}
			parsed = append(parsed, f)
		}
	}
	return parsed, nil
}

func decodeFilter(kind record.Kind, xf xmlFilter, lib *filter.Library) (*filter.Filter, error) {
	f := filter.New(filter.DescriptorFor(kind))
	f.SetName(xf.Name)
	f.SetComment(xf.Comment)
	f.SetInvert(parseBool(xf.Invert))
	if xf.Function != "" {
		op, err := filter.ParseOp(xf.Function)
		if err != nil {
			return nil, err
		}
		f.LogicalOp = op
	}

	for _, xr := range xf.Rules {
		values := make([]string, len(xr.Args))
		for i, a := range xr.Args {
			values[i] = a.Value
		}
		rule, err := rules.Build(kind, xr.Class, rules.Args{
			Values:   values,
			UseRegex: parseBool(xr.UseRegex),
			Library:  lib,
		})
		if err != nil {
			return nil, err
		}
		f.AddRule(rule)
	}
	return f, nil
}

// Save writes every filter of lib, grouped by namespace.
// Filters holding rules that cannot be written (nested *filter.Filter values,
// rules from outside the rules package) are an error.
func Save(w io.Writer, lib *filter.Library) error {
	doc := xmlFilters{}
	for _, kind := range lib.Kinds() {
		obj := xmlObject{Type: string(kind)}
		for _, f := range lib.List(kind) {
			xf, err := encodeFilter(f)
			if err != nil {
				return err
			}
			obj.Filters = append(obj.Filters, xf)
		}
		doc.Objects = append(doc.Objects, obj)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode filters: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func encodeFilter(f *filter.Filter) (xmlFilter, error) {
	xf := xmlFilter{
		Name:     f.Name,
		Function: string(f.LogicalOp),
		Comment:  f.Comment,
	}
	if f.Invert {
		xf.Invert = "1"
	}
	for _, r := range f.Rules() {
		def, ok := r.(rules.Definition)
		if !ok {
			return xmlFilter{}, apperror.NewValidation(fmt.Sprintf("filter %q holds a rule that cannot be saved (%T)", f.Name, r))
		}
		xr := xmlRule{Class: def.Class(), UseRegex: formatBool(def.UseRegex())}
		for _, v := range def.Values() {
			xr.Args = append(xr.Args, xmlArg{Value: v})
		}
		xf.Rules = append(xf.Rules, xr)
	}
	return xf, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
