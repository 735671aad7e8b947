// Package record defines genealogical record kinds, raw record data and the
// database contract the filter engine and its rules consume.
package record

import (
	"strings"

	"kinfilter/internal/core/apperror"
)

// Kind identifies one of the nine primary record tables.
type Kind string

const (
	Person     Kind = "Person"
	Family     Kind = "Family"
	Event      Kind = "Event"
	Source     Kind = "Source"
	Citation   Kind = "Citation"
	Place      Kind = "Place"
	Media      Kind = "Media"
	Repository Kind = "Repository"
	Note       Kind = "Note"
)

// Kinds lists all kinds in canonical order.
var Kinds = []Kind{Person, Family, Event, Source, Citation, Place, Media, Repository, Note}

// ParseKind maps a namespace tag ("Person", "Family", ...) to its Kind.
func ParseKind(namespace string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == namespace {
			return k, nil
		}
	}
	return "", apperror.NewUnknownNamespace(namespace)
}

// Hierarchical reports whether records of this kind form a tree
// (enclosing places, citations grouped under their source).
func (k Kind) Hierarchical() bool {
	return k == Place || k == Citation
}

// Table returns the storage table name for the kind.
func (k Kind) Table() string {
	return strings.ToLower(string(k))
}
