package leads

import "errors"

var (
	// ErrMissingIdentity is returned when platform or user id is empty.
	ErrMissingIdentity = errors.New("leads: platform and user id are required")

	// ErrMissingCity is returned when the lead has no city.
	ErrMissingCity = errors.New("leads: city is required")

	// ErrMissingContact is returned when the lead has no phone.
	ErrMissingContact = errors.New("leads: phone is required")
)
