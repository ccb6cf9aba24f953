package engine

import "fmt"

// Status is the result code of an engine call. Zero is success; every
// failure is negative. The values follow the couchstore status family so
// that codes reported by different engines mean the same thing.
type Status int

const (
	StatusOK               Status = 0
	StatusOpenFile         Status = -1
	StatusCorrupt          Status = -2
	StatusAllocFail        Status = -3
	StatusRead             Status = -4
	StatusDocNotFound      Status = -5
	StatusNoHeader         Status = -6
	StatusWrite            Status = -7
	StatusHeaderVersion    Status = -8
	StatusChecksumFail     Status = -9
	StatusInvalidArguments Status = -10
	StatusNoSuchFile       Status = -11
	StatusCancel           Status = -12
	StatusFileClosed       Status = -15
	StatusReadOnly         Status = -17
)

var statusText = map[Status]string{
	StatusOK:               "success",
	StatusOpenFile:         "error opening file",
	StatusCorrupt:          "corrupt file",
	StatusAllocFail:        "failed to allocate buffer",
	StatusRead:             "error reading file",
	StatusDocNotFound:      "document not found",
	StatusNoHeader:         "no header in non-empty file",
	StatusWrite:            "error writing to file",
	StatusHeaderVersion:    "incorrect version in header",
	StatusChecksumFail:     "checksum fail",
	StatusInvalidArguments: "invalid arguments",
	StatusNoSuchFile:       "no such file",
	StatusCancel:           "stopped by callback",
	StatusFileClosed:       "file closed",
	StatusReadOnly:         "file opened read-only",
}

// StatusText returns the standard description of s. Engines may use it to
// implement Engine.Describe.
func StatusText(s Status) string {
	if text, ok := statusText[s]; ok {
		return text
	}
	return fmt.Sprintf("unknown status %d", int(s))
}

// OK reports whether s is StatusOK.
func (s Status) OK() bool {
	return s == StatusOK
}

func (s Status) String() string {
	return StatusText(s)
}
