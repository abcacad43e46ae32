package domain

import (
	"errors"
	"fmt"
)

// TransportMode is how a participant travels to the meeting point.
type TransportMode string

const (
	ModeDriving TransportMode = "DRIVING"
	ModeTransit TransportMode = "TRANSIT"
	ModeWalking TransportMode = "WALKING"
	ModeCycling TransportMode = "CYCLING"
)

// Valid reports whether the mode is one of the recognized values.
func (m TransportMode) Valid() bool {
	switch m {
	case ModeDriving, ModeTransit, ModeWalking, ModeCycling:
		return true
	}
	return false
}

// ParseTransportMode converts a wire value into a TransportMode.
func ParseTransportMode(s string) (TransportMode, error) {
	m := TransportMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTransportMode, s)
	}
	return m, nil
}

// Input validation errors. These are the only errors Optimize surfaces to
// the caller; everything downstream is recovered internally.
var (
	ErrTooFewParticipants   = errors.New("at least 2 participants with valid coordinates are required")
	ErrUnknownTransportMode = errors.New("unknown transport mode")
	ErrInvalidCoordinate    = errors.New("coordinate out of range")
)

// Participant is one member of the group looking for a meeting point.
// Participants are immutable inputs: created per optimization request and
// never mutated or persisted by this service.
type Participant struct {
	ID       string        `json:"id"`
	Location GeoPoint      `json:"location"`
	Mode     TransportMode `json:"mode"`
	Weight   float64       `json:"weight,omitempty"`
}

// Validate checks coordinates and mode.
func (p Participant) Validate() error {
	if !p.Location.Valid() {
		return fmt.Errorf("%w: participant %s at (%f, %f)",
			ErrInvalidCoordinate, p.ID, p.Location.Lat, p.Location.Lng)
	}
	if !p.Mode.Valid() {
		return fmt.Errorf("%w: participant %s mode %q", ErrUnknownTransportMode, p.ID, p.Mode)
	}
	return nil
}

// EffectiveWeight returns the participant's weight, defaulting to 1.0.
func (p Participant) EffectiveWeight() float64 {
	if p.Weight > 0 {
		return p.Weight
	}
	return 1.0
}

// ValidateParticipants checks the full input set for an optimization run.
func ValidateParticipants(participants []Participant) error {
	if len(participants) < 2 {
		return ErrTooFewParticipants
	}
	for _, p := range participants {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
