package sink

import "fmt"

// MalformedDataError means a snapshot file is not a valid snapshot document:
// a required key is missing or has the wrong type, or a fact cannot be decoded.
type MalformedDataError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedDataError) Error() string {
	msg := fmt.Sprintf("malformed snapshot %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedDataError) Unwrap() error { return e.Err }

// UnsupportedSchemaError means a snapshot file was written by a newer schema
// than this reader understands.
type UnsupportedSchemaError struct {
	Path      string
	Version   int
	Supported int
}

func (e *UnsupportedSchemaError) Error() string {
	return fmt.Sprintf("snapshot %s has schema_version %d, newest supported is %d",
		e.Path, e.Version, e.Supported)
}
