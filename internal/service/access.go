package service

import "workshopd/internal/model"

// RoleAuthorizer grants schedule management to an event's organizer,
// any site admin, or staff assigned to the event's location. An empty
// user is an anonymous viewer and may never manage.
type RoleAuthorizer struct {
	// Admins lists user emails with site-wide access.
	Admins []string
	// StaffLocations maps a staff user's email to the location they
	// work at.
	StaffLocations map[string]string
}

// CanManageSchedule implements Authorizer.
func (a *RoleAuthorizer) CanManageSchedule(user string, event *model.Event) bool {
	if user == "" {
		return false
	}
	if user == event.OrganizerEmail {
		return true
	}
	for _, admin := range a.Admins {
		if user == admin {
			return true
		}
	}
	return a.StaffLocations[user] == event.Location
}
