package teaching

import "strings"

// Viewer is the access-control context for lecture reads.
type Viewer struct {
	Role          string
	UserID        string
	Organization  string
	ParticipantID string
}

// VisibilityMatrix names the viewer categories a visibility level admits.
type VisibilityMatrix struct {
	Organizer        bool
	SameOrganization bool
	NetworkDoctors   bool
	Public           bool
}

var visibilityRules = map[Visibility]VisibilityMatrix{
	VisibilityPrivate:  {Organizer: true},
	VisibilityInternal: {Organizer: true, SameOrganization: true},
	VisibilityNetwork:  {Organizer: true, SameOrganization: true, NetworkDoctors: true},
	VisibilityPublic:   {Organizer: true, SameOrganization: true, NetworkDoctors: true, Public: true},
}

func normalizeOrganization(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func matchParticipant(l Lecture, participantID string) bool {
	if participantID == "" {
		return false
	}
	for _, p := range l.Participants {
		if p.ID == participantID {
			return true
		}
	}
	return false
}

// CanViewerAccess decides lecture visibility for a viewer. A nil viewer is a
// trusted internal caller and always passes, as do admins, the organizer,
// and listed participants. Everyone else goes through the visibility matrix:
// same organization first, then network medical staff, then the public flag.
func CanViewerAccess(l Lecture, viewer *Viewer) bool {
	if viewer == nil {
		return true
	}
	if viewer.Role == "admin" {
		return true
	}
	if viewer.UserID != "" && viewer.UserID == l.OrganizerID {
		return true
	}
	if matchParticipant(l, viewer.ParticipantID) {
		return true
	}

	rules, ok := visibilityRules[l.Visibility]
	if !ok {
		return false
	}

	viewerOrg := normalizeOrganization(viewer.Organization)
	organizerOrg := normalizeOrganization(l.OrganizerHospital)
	if viewerOrg != "" && organizerOrg != "" && viewerOrg == organizerOrg {
		return rules.SameOrganization
	}

	if viewer.Role == "doctor" || viewer.Role == "nurse" {
		return rules.NetworkDoctors
	}

	return rules.Public
}
