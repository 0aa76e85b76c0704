package models

// PreferenceStrength grades how strongly a teacher prefers their listed rooms.
type PreferenceStrength string

const (
	PreferenceLow    PreferenceStrength = "LOW"
	PreferenceMedium PreferenceStrength = "MEDIUM"
	PreferenceHigh   PreferenceStrength = "HIGH"
)

// PenaltyWeight converts strength into the soft-constraint penalty applied
// when the preference is not honoured.
func (s PreferenceStrength) PenaltyWeight() int {
	switch s {
	case PreferenceLow:
		return 1
	case PreferenceHigh:
		return 5
	default:
		return 3
	}
}

// RoomPreference captures a teacher's preferred rooms. When Restricted is
// true the list is a hard restriction; otherwise it is a weighted soft
// preference.
type RoomPreference struct {
	PreferredRoomIDs []string           `json:"preferred_room_ids"`
	Restricted       bool               `json:"restricted"`
	Strength         PreferenceStrength `json:"strength"`
}

// PrefersRoom reports whether the room is on the preferred list. The scan
// is read-only: preferences are shared across concurrent candidate scoring,
// so lookups must not mutate the receiver.
func (p *RoomPreference) PrefersRoom(roomID string) bool {
	if p == nil {
		return false
	}
	return p.listsRoom(roomID)
}

// CanUseRoom reports whether a restricted teacher may be placed in the room.
// Unrestricted preferences never forbid a room.
func (p *RoomPreference) CanUseRoom(roomID string) bool {
	if p == nil || !p.Restricted || len(p.PreferredRoomIDs) == 0 {
		return true
	}
	return p.listsRoom(roomID)
}

func (p *RoomPreference) listsRoom(roomID string) bool {
	for _, id := range p.PreferredRoomIDs {
		if id == roomID {
			return true
		}
	}
	return false
}
