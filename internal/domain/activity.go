package domain

import "slices"

// Activity is an extracurricular offering together with its current roster.
// Participants are kept in signup order.
type Activity struct {
	Name            string
	Description     string
	Schedule        string
	MaxParticipants int
	Participants    []string
}

// Clone returns a copy of the activity whose roster shares no memory with a.
func (a Activity) Clone() Activity {
	a.Participants = slices.Clone(a.Participants)
	if a.Participants == nil {
		a.Participants = []string{}
	}
	return a
}

// HasParticipant reports whether email is on the roster. Matching is exact.
func (a Activity) HasParticipant(email string) bool {
	return slices.Contains(a.Participants, email)
}

// Full reports whether the roster has reached MaxParticipants.
func (a Activity) Full() bool {
	return len(a.Participants) >= a.MaxParticipants
}
