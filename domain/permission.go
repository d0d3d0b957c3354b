package domain

// PermissionSet holds the per-participant flags the host controls.
// IsOwner is only ever true for the room owner and is omitted from the
// wire payload for everyone else.
type PermissionSet struct {
	Allowed bool `json:"allowed"`
	Unmute  bool `json:"unmute"`
	Video   bool `json:"video"`
	IsOwner bool `json:"is_owner,omitempty"`
}

// DefaultPermissions is what a freshly admitted participant gets.
func DefaultPermissions() PermissionSet {
	return PermissionSet{Allowed: true, Unmute: true, Video: true}
}

// OwnerPermissions is the full set granted to the first joiner.
func OwnerPermissions() PermissionSet {
	return PermissionSet{Allowed: true, Unmute: true, Video: true, IsOwner: true}
}

// PermissionPatch is a partial permission update. Only non-nil fields are
// applied; everything else keeps its current value. The owner marker is
// deliberately not patchable: ownership is assigned once, at claim time.
type PermissionPatch struct {
	Allowed *bool `json:"allowed,omitempty"`
	Unmute  *bool `json:"unmute,omitempty"`
	Video   *bool `json:"video,omitempty"`
}

// Apply merges the patch over the receiver and returns the result.
func (p PermissionSet) Apply(patch PermissionPatch) PermissionSet {
	if patch.Allowed != nil {
		p.Allowed = *patch.Allowed
	}
	if patch.Unmute != nil {
		p.Unmute = *patch.Unmute
	}
	if patch.Video != nil {
		p.Video = *patch.Video
	}
	return p
}
