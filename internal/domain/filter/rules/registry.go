package rules

import (
	"slices"
	"sort"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/domain/filter"
	"kinfilter/internal/domain/record"
)

// Args are the construction arguments of a rule as found in a filter definition.
type Args struct {
	Values   []string
	UseRegex bool

	// Kind is the namespace the rule is built for. Set by Build.
	Kind record.Kind

	// Library resolves nested filters by name. Rules that reference other
	// filters match nothing without it.
	Library *filter.Library
}

// Constructor builds a rule from its arguments.
type Constructor func(Args) (filter.Rule, error)

// Definition is implemented by every rule built here, so that it can be
// written back to a filter definition.
type Definition interface {
	filter.Rule
	Class() string
	Values() []string
	UseRegex() bool
}

// Info is the user-facing description of a rule class. Name, Description and
// Labels are message ids, translated for display.
type Info struct {
	Class       string
	Name        string
	Description string
	Category    string
	Labels      []string
}

type entry struct {
	info  Info
	kinds []record.Kind // nil: every kind
	build Constructor
}

var registry = map[string]entry{}

// Register adds a rule class. kinds restricts the namespaces it may be used in;
// none means any namespace. Registering a class twice panics.
func Register(info Info, build Constructor, kinds ...record.Kind) {
	if _, dup := registry[info.Class]; dup {
		panic("rules: duplicate class " + info.Class)
	}
	registry[info.Class] = entry{info: info, kinds: kinds, build: build}
}

// Build constructs the rule class for a namespace.
func Build(kind record.Kind, class string, args Args) (filter.Rule, error) {
	e, ok := registry[class]
	if !ok || (e.kinds != nil && !slices.Contains(e.kinds, kind)) {
		return nil, apperror.NewUnknownRule(class).WithDetail("namespace", string(kind))
	}
	args.Kind = kind
	return e.build(args)
}

// Classes lists the rule classes usable in a namespace, sorted by name.
func Classes(kind record.Kind) []string {
	var out []string
	for class, e := range registry {
		if e.kinds == nil || slices.Contains(e.kinds, kind) {
			out = append(out, class)
		}
	}
	sort.Strings(out)
	return out
}

// Describe returns the description of a rule class.
func Describe(class string) (Info, bool) {
	e, ok := registry[class]
	return e.info, ok
}

const (
	general  = "General filters"
	family   = "Family filters"
	position = "Position filters"
)

func init() {
	Register(Info{Class: "Everything", Name: "Every object", Description: "Matches every object in the database", Category: general},
		NewEverything)
	Register(Info{Class: "HasIdOf", Name: "Object with <Id>", Description: "Matches an object with a specified Gramps ID", Category: general,
		Labels: []string{"ID:"}}, NewHasIDOf)
	Register(Info{Class: "RegExpIdOf", Name: "Objects with <Id>", Description: "Matches objects whose Gramps ID matches the regular expression", Category: general,
		Labels: []string{"Text:"}}, NewRegExpIDOf)
	Register(Info{Class: "HasTag", Name: "Objects with the <tag>", Description: "Matches objects with the particular tag", Category: general,
		Labels: []string{"Tag:"}}, NewHasTag)
	Register(Info{Class: "HasField", Name: "Objects with a <field> value", Description: "Matches objects whose field at a dotted path contains the value", Category: general,
		Labels: []string{"Field:", "Value:"}}, NewHasField)
	Register(Info{Class: "MatchesFilter", Name: "Objects matching the <filter>", Description: "Matches objects matched by the specified filter name", Category: general,
		Labels: []string{"Filter name:"}}, NewMatchesFilter)
	Register(Info{Class: "Expression", Name: "Objects matching an <expression>", Description: "Matches objects for which the CEL expression over \"record\" is true", Category: general,
		Labels: []string{"Expression:"}}, NewExpression)

	Register(Info{Class: "IsMale", Name: "Males", Description: "Matches all males", Category: general},
		NewIsMale, record.Person)
	Register(Info{Class: "IsFemale", Name: "Females", Description: "Matches all females", Category: general},
		NewIsFemale, record.Person)
	Register(Info{Class: "HasNameOf", Name: "People with the <name>", Description: "Matches people with a specified (partial) name", Category: general,
		Labels: []string{"Given name:", "Surname:"}}, NewHasNameOf, record.Person)

	Register(Info{Class: "IsDescendantOf", Name: "Descendant families of <family>", Description: "Matches descendant families of the specified family", Category: general,
		Labels: []string{"ID:", "Inclusive:"}}, NewIsDescendantOf, record.Family)
	Register(Info{Class: "HasEvent", Name: "Families with the <event>", Description: "Matches families with an event of a particular value", Category: general,
		Labels: []string{"Family event:", "Place:", "Description:"}}, NewHasEvent, record.Family)
	Register(Info{Class: "FatherHasNameOf", Name: "Families with father with the <name>", Description: "Matches families whose father has a specified (partial) name", Category: family,
		Labels: []string{"Given name:", "Surname:"}}, NewFatherHasNameOf, record.Family)
	Register(Info{Class: "MotherHasNameOf", Name: "Families with mother with the <name>", Description: "Matches families whose mother has a specified (partial) name", Category: family,
		Labels: []string{"Given name:", "Surname:"}}, NewMotherHasNameOf, record.Family)
	Register(Info{Class: "ChildHasNameOf", Name: "Families with child with the <name>", Description: "Matches families where child has a specified (partial) name", Category: family,
		Labels: []string{"Given name:", "Surname:"}}, NewChildHasNameOf, record.Family)

	Register(Info{Class: "HasType", Name: "Events with the particular type", Description: "Matches events with the particular type", Category: general,
		Labels: []string{"Event type:"}}, NewHasType, record.Event)
	Register(Info{Class: "MatchesPersonFilter", Name: "Events of persons matching the <person filter>", Description: "Matches events of persons matched by the specified person filter name", Category: general,
		Labels: []string{"Person filter name:", "Include Family events:"}}, NewMatchesPersonFilter, record.Event)

	Register(Info{Class: "IsEnclosedBy", Name: "Places enclosed by another place", Description: "Matches a place enclosed by a particular place", Category: position,
		Labels: []string{"ID:", "Inclusive:"}}, NewIsEnclosedBy, record.Place)
	Register(Info{Class: "WithinArea", Name: "Places within an area", Description: "Matches places within a given distance of a point", Category: position,
		Labels: []string{"Latitude:", "Longitude:", "Radius (degrees):"}}, NewWithinArea, record.Place)
}
