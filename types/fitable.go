// Package types defines the shared domain vocabulary of the FIT
// service-discovery subsystem: fitables, genericables, workers,
// applications, and the composite records returned by queries.
//
// These types live outside internal/ on purpose — they are the contract
// the rest of the FIT platform (the Runtime, other plugins) links against,
// the same way shared/types is the cross-module vocabulary an agent and a
// server both import.
package types

import "fmt"

// Fitable identifies one concrete implementation of a service interface.
// All four fields must be non-empty for a Fitable to be well-formed;
// Fitable itself is a plain value type and is not checked on construction
// — Valid reports whether the invariant holds.
type Fitable struct {
	GenericableID      string `json:"genericable_id"`
	GenericableVersion string `json:"genericable_version"`
	FitableID          string `json:"fitable_id"`
	FitableVersion     string `json:"fitable_version"`
}

// Genericable identifies an abstract service interface — the first two
// fields of a Fitable.
type Genericable struct {
	GenericableID      string `json:"genericable_id"`
	GenericableVersion string `json:"genericable_version"`
}

// Genericable returns the Genericable this Fitable implements.
func (f Fitable) Genericable() Genericable {
	return Genericable{GenericableID: f.GenericableID, GenericableVersion: f.GenericableVersion}
}

// Valid reports whether all four identity fields are non-empty.
func (f Fitable) Valid() bool {
	return f.GenericableID != "" && f.GenericableVersion != "" && f.FitableID != "" && f.FitableVersion != ""
}

// GroupName is the backend group key for a Fitable's owning genericable:
// "genericableId::genericableVersion".
func GroupName(f Fitable) string {
	return groupName(f.GenericableID, f.GenericableVersion)
}

// GenericableGroupName is GroupName for a bare Genericable (used when
// enumerating services under a group without a specific Fitable at hand).
func GenericableGroupName(g Genericable) string {
	return groupName(g.GenericableID, g.GenericableVersion)
}

// ServiceName is the backend service key for a Fitable:
// "fitableId::fitableVersion".
func ServiceName(f Fitable) string {
	return fmt.Sprintf("%s::%s", f.FitableID, f.FitableVersion)
}

func groupName(id, version string) string {
	return fmt.Sprintf("%s::%s", id, version)
}

// WireFormat is the wire-format code carried in a FitableMeta.
type WireFormat int

const (
	// WireFormatProtobuf is format code 0.
	WireFormatProtobuf WireFormat = 0
	// WireFormatJSON is format code 1.
	WireFormatJSON WireFormat = 1
)

// FitableMeta describes what is registered for a Fitable: its aliases and
// the wire formats it supports.
type FitableMeta struct {
	Fitable Fitable      `json:"fitable"`
	Aliases []string     `json:"aliases"`
	Formats []WireFormat `json:"formats"`
}

// UnknownFitable is the documented decode default for a Fitable: used
// when metadata cannot be decoded into a real identity.
var UnknownFitable = Fitable{
	GenericableID:      "unknown",
	GenericableVersion: "1.0",
	FitableID:          "unknown",
	FitableVersion:     "1.0",
}

// DefaultFitableMeta is the documented decode default for a FitableMeta.
func DefaultFitableMeta() FitableMeta {
	return FitableMeta{Fitable: UnknownFitable}
}
