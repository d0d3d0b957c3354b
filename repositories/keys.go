package repositories

import "call-lab/domain"

// Registry slot keys, one set per sanitized room id. The flat namespace
// makes external eviction a plain prefix delete and keeps the inspector
// tooling trivial.
const (
	ownerPrefix        = "video_room_owner_"
	participantsPrefix = "video_room_participants_"
	pendingPrefix      = "video_room_pending_"
	permissionsPrefix  = "video_room_permissions_"
)

func ownerKey(room domain.RoomID) []byte {
	return []byte(ownerPrefix + string(room))
}

func participantsKey(room domain.RoomID) []byte {
	return []byte(participantsPrefix + string(room))
}

func pendingKey(room domain.RoomID) []byte {
	return []byte(pendingPrefix + string(room))
}

func permissionsKey(room domain.RoomID) []byte {
	return []byte(permissionsPrefix + string(room))
}
