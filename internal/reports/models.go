package reports

import "errors"

// Collection is the record store collection community reports live in.
const Collection = "reports"

// ErrMissingFields is returned when a submission carries no fields at all.
var ErrMissingFields = errors.New("report fields are required")

// Reports are free-form records rather than a fixed schema: the portal
// accepts whatever fields a community posts. Two fields carry meaning when
// present, numeric latitude and longitude make a report geolocated.
