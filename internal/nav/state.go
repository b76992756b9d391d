package nav

import "github.com/loftdrive/loft-nav/internal/models"

// NavigationState is the active breadcrumb trail plus its serialized address
// string. It is owned exclusively by the controller and rebuilt, never
// mutated in place, on every successful navigation, so Address always equals
// Serialize(Trail) when the controller is idle.
type NavigationState struct {
	Trail   []models.BreadcrumbEntry
	Address string
}

// newNavigationState builds a state whose address is derived from the trail.
func newNavigationState(trail []models.BreadcrumbEntry) NavigationState {
	return NavigationState{
		Trail:   trail,
		Address: Serialize(trail),
	}
}

// TrailNames returns the display names of the trail, root first.
func (s NavigationState) TrailNames() []string {
	names := make([]string, len(s.Trail))
	for i, e := range s.Trail {
		names[i] = e.Name
	}
	return names
}

// Current returns the last entry of the trail, the user's current position.
func (s NavigationState) Current() (models.BreadcrumbEntry, bool) {
	if len(s.Trail) == 0 {
		return models.BreadcrumbEntry{}, false
	}
	return s.Trail[len(s.Trail)-1], true
}

// clone returns a copy safe to hand to callers while the controller keeps
// rebuilding its own state.
func (s NavigationState) clone() NavigationState {
	trail := make([]models.BreadcrumbEntry, len(s.Trail))
	copy(trail, s.Trail)
	return NavigationState{Trail: trail, Address: s.Address}
}
