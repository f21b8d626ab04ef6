package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampkit/ramp/pkg/domain"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore
// implementation adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(sessionID)
		state.CurrentStep = 3
		state.Business.Domain = "acme.com"
		state.Competitors = []string{"rival.com", "other.io"}
		state.Categories = []domain.Category{domain.CategoryLabel("seo")}

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.CurrentStep, loaded.CurrentStep)
		assert.Equal(t, "acme.com", loaded.Business.Domain)
		assert.Equal(t, state.Competitors, loaded.Competitors)
		assert.Equal(t, state.Categories, loaded.Categories)
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		state := domain.NewState(sessionID)
		state.Competitors = []string{"rival.com"}
		require.NoError(t, store.Save(ctx, sessionID, state))

		first, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		first.Competitors[0] = "mutated"

		second, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "rival.com", second.Competitors[0],
			"mutating a loaded state must not leak back into the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewState(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewState(id1))
		_ = store.Save(ctx, id2, domain.NewState(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunFragmentStoreContract verifies a FragmentStore implementation.
func RunFragmentStoreContract(t *testing.T, store FragmentStore) {
	ctx := context.Background()
	sessionID := "contract-test-fragment-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		err := store.SaveFragment(ctx, sessionID, FragmentDomain, "acme.com")
		require.NoError(t, err)

		val, err := store.LoadFragment(ctx, sessionID, FragmentDomain)
		require.NoError(t, err)
		assert.Equal(t, "acme.com", val)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.SaveFragment(ctx, sessionID, FragmentDomain, "first.com"))
		require.NoError(t, store.SaveFragment(ctx, sessionID, FragmentDomain, "second.com"))

		val, err := store.LoadFragment(ctx, sessionID, FragmentDomain)
		require.NoError(t, err)
		assert.Equal(t, "second.com", val)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.LoadFragment(ctx, "other-session", FragmentDomain)
		assert.ErrorIs(t, err, domain.ErrFragmentNotFound)
	})

	t.Run("Delete All", func(t *testing.T) {
		require.NoError(t, store.SaveFragment(ctx, sessionID, FragmentDomain, "acme.com"))
		require.NoError(t, store.DeleteFragments(ctx, sessionID))

		_, err := store.LoadFragment(ctx, sessionID, FragmentDomain)
		assert.ErrorIs(t, err, domain.ErrFragmentNotFound)
	})
}
