package intake

import (
	"sort"

	"mitrabot/backend/internal/models"
)

// phaseRank orders the intake phases for active-complaint selection: the
// lowest rank (most incomplete complaint) wins, so a sender who restarted
// mid-flow is steered back to the earliest unfinished step. COMPLETED never
// appears here; the resolver only ever sees incomplete complaints.
var phaseRank = map[string]int{
	models.PhaseInit:          1,
	models.PhaseLanguage:      2,
	models.PhaseComplaintType: 3,
	models.PhaseTaluka:        4,
	models.PhaseDescription:   5,
	models.PhaseAttachment:    6,
	models.PhaseLocation:      7,
}

// unknownPhaseRank sorts complaints with a corrupted phase value last so a
// broken record never shadows a healthy one.
const unknownPhaseRank = 99

func rankOf(phase string) int {
	if r, ok := phaseRank[phase]; ok {
		return r
	}
	return unknownPhaseRank
}

// ActiveComplaint picks the single complaint the next message applies to:
// lowest phase rank first, oldest creation time breaking ties. Returns nil
// for an empty set. Pure function; callers may invoke it repeatedly within
// one request.
func ActiveComplaint(complaints []models.Complaint) *models.Complaint {
	if len(complaints) == 0 {
		return nil
	}

	sorted := make([]models.Complaint, len(complaints))
	copy(sorted, complaints)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := rankOf(sorted[i].Phase), rankOf(sorted[j].Phase)
		if ri != rj {
			return ri < rj
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	active := sorted[0]
	return &active
}
