package domain

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestPermissionSet_Apply(t *testing.T) {
	req := require.New(t)

	// Given an admitted participant with default permissions
	current := DefaultPermissions()

	// When only the unmute flag is revoked
	merged := current.Apply(PermissionPatch{Unmute: lo.ToPtr(false)})

	// Then untouched fields keep their value
	req.False(merged.Unmute)
	req.True(merged.Allowed)
	req.True(merged.Video)
	req.False(merged.IsOwner)
}

func TestPermissionSet_Apply_EmptyPatchIsIdentity(t *testing.T) {
	current := OwnerPermissions()
	require.Equal(t, current, current.Apply(PermissionPatch{}))
}

func TestPermissionSet_Apply_NeverTouchesOwnership(t *testing.T) {
	req := require.New(t)

	owner := OwnerPermissions()
	merged := owner.Apply(PermissionPatch{
		Allowed: lo.ToPtr(false),
		Unmute:  lo.ToPtr(false),
		Video:   lo.ToPtr(false),
	})

	req.False(merged.Allowed)
	req.True(merged.IsOwner, "a permission patch must not revoke ownership")
}
