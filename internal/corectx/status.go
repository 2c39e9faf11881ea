// Package corectx implements the context tree that backs every mold and
// config operation: the tagged-variant node, its element storage, its
// version-aware resolution and validation algorithms, and structural diff.
//
// The package is not safe for concurrent use against a single tree — see
// the concurrency note on Context.
package corectx

import "fmt"

// Status is the closed set of outcomes every core operation reports.
type Status int

const (
	StatusOK Status = iota
	StatusInvalidArgument
	StatusInvalidContext
	StatusWrongContext
	StatusWrongValueType
	StatusContextInWrongState
	StatusDestroyedContext
	StatusBadContextObject
	StatusTooFewArguments
	StatusExists
	StatusConflictingVersion
	StatusRestrictionViolated
	StatusMoldMissing
	StatusDefaultMissing
	StatusElementsInvalid
	StatusFatalContext
	StatusNotExist
	StatusExhausted
	StatusNoMemory
	StatusPermission
	StatusNoCanDo
	StatusConflict
	StatusInternalError
)

var statusNames = map[Status]string{
	StatusOK:                  "OK",
	StatusInvalidArgument:     "Invalid-Argument",
	StatusInvalidContext:      "Invalid-Context",
	StatusWrongContext:        "Wrong-Context",
	StatusWrongValueType:      "Wrong-Value-Type",
	StatusContextInWrongState: "Context-In-Wrong-State",
	StatusDestroyedContext:    "Destroyed-Context",
	StatusBadContextObject:    "Bad-Context-Object",
	StatusTooFewArguments:     "Too-Few-Arguments",
	StatusExists:              "Exists",
	StatusConflictingVersion:  "Conflicting-Version",
	StatusRestrictionViolated: "Restriction-Violated",
	StatusMoldMissing:         "Mold-Missing",
	StatusDefaultMissing:      "Default-Missing",
	StatusElementsInvalid:     "Elements-Invalid",
	StatusFatalContext:        "Fatal-Context",
	StatusNotExist:            "Not-Exist",
	StatusExhausted:           "Exhausted",
	StatusNoMemory:            "No-Memory",
	StatusPermission:          "Permission",
	StatusNoCanDo:             "No-Can-Do",
	StatusConflict:            "Conflict",
	StatusInternalError:       "Internal-Error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Error is the single typed error every core operation returns. It carries
// enough context (kind, name) for a caller to format a useful message
// without the core re-deriving it, and round-trips through errors.Is/As
// against both *Error and a bare Status via errors.Is(err, SomeStatus) is
// not supported — compare Status fields directly or use Error.Is.
type Error struct {
	Status  Status
	Kind    Kind
	Name    string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return StatusOK.String()
	}
	if e.Name != "" {
		return fmt.Sprintf("%s: %s %q: %s", e.Status, e.Kind, e.Name, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Status, e.Message)
	}
	return e.Status.String()
}

// Is lets errors.Is(err, &Error{Status: StatusNotExist}) match on Status
// alone, the way callers typically want to branch on the closed status set.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Status == other.Status
}

func newErr(status Status, kind Kind, name, format string, args ...interface{}) *Error {
	return &Error{Status: status, Kind: kind, Name: name, Message: fmt.Sprintf(format, args...)}
}
