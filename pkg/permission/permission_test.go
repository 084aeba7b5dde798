package permission

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/integrable/stardust/pkg/identity"
)

func TestParse(t *testing.T) {
	t.Run("EmptyInputIsPublic", func(t *testing.T) {
		spec, err := Parse("")
		require.NoError(t, err)
		assert.True(t, spec.IsPublic())
	})

	t.Run("SubjectList", func(t *testing.T) {
		spec, err := Parse(`["alice","bob"]`)
		require.NoError(t, err)
		assert.False(t, spec.IsPublic())
		assert.Equal(t, []string{"alice", "bob"}, spec.Subjects)
	})

	t.Run("EmptyListRestrictsToNobody", func(t *testing.T) {
		spec, err := Parse(`[]`)
		require.NoError(t, err)
		assert.False(t, spec.IsPublic())
		assert.Empty(t, spec.Subjects)
	})

	t.Run("ObjectFailsClosed", func(t *testing.T) {
		_, err := Parse(`{"alice": true}`)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidSpec))
	})

	t.Run("NonStringElementsFailClosed", func(t *testing.T) {
		_, err := Parse(`["alice", 42]`)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidSpec))
	})

	t.Run("GarbageFailsClosed", func(t *testing.T) {
		_, err := Parse(`not json at all`)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidSpec))
	})
}

func TestCanAccess(t *testing.T) {
	alice := identity.New("alice", identity.CapabilityWriter)
	bob := identity.New("bob", identity.CapabilityWriter)
	admin := identity.New("root", identity.CapabilityAdmin)

	t.Run("PublicAdmitsEveryone", func(t *testing.T) {
		assert.True(t, CanAccess(alice, Public()))
		assert.True(t, CanAccess(bob, Public()))
	})

	t.Run("ListedSubjectAllowed", func(t *testing.T) {
		spec := RestrictedTo("alice")
		assert.True(t, CanAccess(alice, spec))
	})

	t.Run("UnlistedSubjectDenied", func(t *testing.T) {
		spec := RestrictedTo("alice")
		assert.False(t, CanAccess(bob, spec))
	})

	t.Run("AdminBypassesSpec", func(t *testing.T) {
		spec := RestrictedTo("alice")
		assert.True(t, CanAccess(admin, spec))
	})

	t.Run("EmptyRestrictedListDeniesNonAdmins", func(t *testing.T) {
		spec := RestrictedTo()
		assert.False(t, CanAccess(alice, spec))
		assert.True(t, CanAccess(admin, spec))
	})
}

func TestValidate(t *testing.T) {
	alice := identity.New("alice", identity.CapabilityWriter)

	t.Run("PublicAlwaysValid", func(t *testing.T) {
		assert.NoError(t, Validate(alice, Public()))
	})

	t.Run("SelfInclusionRequired", func(t *testing.T) {
		err := Validate(alice, RestrictedTo("bob"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidSpec))
	})

	t.Run("SelfIncludedIsValid", func(t *testing.T) {
		assert.NoError(t, Validate(alice, RestrictedTo("bob", "alice")))
	})
}
