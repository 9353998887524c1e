package bufr

import "fmt"

// NoDataError indicates Get was called before any frame was accumulated.
type NoDataError struct {
	Message string
}

func (e *NoDataError) Error() string { return e.Message }

// AmbiguousQueryError indicates a query path matched more than one template
// node without an index selector on its last component.
type AmbiguousQueryError struct {
	QueryStr string
}

func (e *AmbiguousQueryError) Error() string {
	return fmt.Sprintf("query string must return 1 target, are you missing an index? %s", e.QueryStr)
}

// IncompatibleOverrideError indicates a type override that would convert
// between numbers and strings.
type IncompatibleOverrideError struct {
	FieldName string
}

func (e *IncompatibleOverrideError) Error() string {
	return fmt.Sprintf("conversions between numbers and strings are not supported, see the export definition for %q", e.FieldName)
}

// UnknownOverrideTypeError indicates an override type outside the recognized
// set {int, int32, int64, float, double, string}.
type UnknownOverrideTypeError struct {
	TypeName string
}

func (e *UnknownOverrideTypeError) Error() string {
	return fmt.Sprintf("unknown or unsupported type %q", e.TypeName)
}

// GroupByPathMismatchError indicates a group-by field whose replication path
// is not a prefix of the target field's replication path.
type GroupByPathMismatchError struct {
	GroupByField string
	TargetField  string
	GroupByPath  string
	TargetPath   string
}

func (e *GroupByPathMismatchError) Error() string {
	return fmt.Sprintf("the group-by field %s and the target field %s do not share a common path: the group-by path is %s and the target path is %s",
		e.GroupByField, e.TargetField, e.GroupByPath, e.TargetPath)
}

// UnsupportedConversionError indicates a string/number conversion attempt at
// container assignment.
type UnsupportedConversionError struct {
	FieldName string
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("cannot convert between string and numeric data for field %q", e.FieldName)
}

// ErrNoData creates a NoDataError with a formatted message.
func ErrNoData(format string, args ...interface{}) *NoDataError {
	return &NoDataError{Message: fmt.Sprintf(format, args...)}
}
