package codec

import "fmt"

// IntegrityError reports that fetched bytes disagree with the
// reference record that located them. It is always fatal to the decode
// operation: partially verified data is never returned. Re-fetching is
// the only legitimate retry.
type IntegrityError struct {
	Key        string
	WantDigest string
	GotDigest  string
	WantSize   int64
	GotSize    int64
}

func (e *IntegrityError) Error() string {
	if e.WantSize != e.GotSize {
		return fmt.Sprintf("integrity check failed for %s: wanted %d bytes, got %d", e.Key, e.WantSize, e.GotSize)
	}
	return fmt.Sprintf("integrity check failed for %s: wanted digest %s, got %s", e.Key, e.WantDigest, e.GotDigest)
}

// MalformedReferenceError reports a payload that carries the remote
// codec marker but whose content cannot be used as a reference record.
// Such a payload is unusable both as application data and as a
// reference, so this is unrecoverable.
type MalformedReferenceError struct {
	Reason string
	Err    error
}

func (e *MalformedReferenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed remote payload reference: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed remote payload reference: %s", e.Reason)
}

func (e *MalformedReferenceError) Unwrap() error {
	return e.Err
}
