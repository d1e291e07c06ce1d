package ledger

import (
	"errors"
	"fmt"
	"time"
)

// Persisted key names. These are the only keys the ledger ever writes.
const (
	KeyInstallPath      = "InstallPath"
	KeyVersion          = "Version"
	KeyExtensionVersion = "ExtensionVersion"
	KeyInstallDate      = "InstallDate"
)

// DateLayout is the format of the InstallDate value.
const DateLayout = "2006-01-02"

// commitOrder lists keys in the order backends without transactions must
// write them. InstallPath goes last so a reader never sees a record before
// every other value is in place.
var commitOrder = []string{KeyVersion, KeyExtensionVersion, KeyInstallDate, KeyInstallPath}

// valueOp is one step of a replace on a backend without transactions.
type valueOp struct {
	name   string
	value  string
	delete bool
}

// replaceSteps orders the writes that swap the stored values for values.
// The commit marker is removed before anything else changes and written
// after everything else, so a replace cut short at any step reads back as
// either the old record or no record, never a mix of the two.
func replaceSteps(values map[string]string) []valueOp {
	marker := commitOrder[len(commitOrder)-1]
	steps := []valueOp{{name: marker, delete: true}}
	for _, name := range commitOrder[:len(commitOrder)-1] {
		if v, ok := values[name]; ok {
			steps = append(steps, valueOp{name: name, value: v})
		} else {
			steps = append(steps, valueOp{name: name, delete: true})
		}
	}
	if v, ok := values[marker]; ok {
		steps = append(steps, valueOp{name: marker, value: v})
	}
	return steps
}

var (
	// ErrAbsent is returned by Read when no managed install is recorded.
	ErrAbsent = errors.New("no install recorded")

	// ErrCorrupt is returned when the stored values cannot form a record.
	ErrCorrupt = errors.New("install record is corrupt")
)

// Record describes the current managed install.
type Record struct {
	InstallPath      string
	ProductVersion   string
	ExtensionVersion string
	InstallDate      time.Time
}

// values flattens the record into its persisted key/value form.
func (r *Record) values() map[string]string {
	return map[string]string{
		KeyInstallPath:      r.InstallPath,
		KeyVersion:          r.ProductVersion,
		KeyExtensionVersion: r.ExtensionVersion,
		KeyInstallDate:      r.InstallDate.Format(DateLayout),
	}
}

// recordFromValues builds a Record from persisted values. A missing
// InstallPath means no record; a present InstallPath without a Version is
// corrupt.
func recordFromValues(values map[string]string) (*Record, error) {
	path := values[KeyInstallPath]
	if path == "" {
		return nil, ErrAbsent
	}

	rec := &Record{
		InstallPath:      path,
		ProductVersion:   values[KeyVersion],
		ExtensionVersion: values[KeyExtensionVersion],
	}
	if rec.ProductVersion == "" {
		return nil, fmt.Errorf("%w: %s is missing", ErrCorrupt, KeyVersion)
	}

	if raw := values[KeyInstallDate]; raw != "" {
		date, err := time.Parse(DateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: bad %s %q: %v", ErrCorrupt, KeyInstallDate, raw, err)
		}
		rec.InstallDate = date
	}

	return rec, nil
}
