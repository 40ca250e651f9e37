package identity_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chathub/internal/app/identity"
	"chathub/internal/pkg/randx"
)

func TestResolveFreshUser(t *testing.T) {
	r := identity.NewRegistry()

	u := r.Resolve("")

	assert.Equal(t, "User0", u.Name)
	assert.Equal(t, "#FFFFFF", u.Color)
	assert.Equal(t, 0, u.Online)
	assert.True(t, randx.IsValidToken(u.ID), "id should be a valid resume token")
}

func TestResolveDefaultNamesIncrease(t *testing.T) {
	r := identity.NewRegistry()

	for i := 0; i < 3; i++ {
		u := r.Resolve("")
		assert.Equal(t, fmt.Sprintf("User%d", i), u.Name)
	}
}

func TestResolveKnownTokenIsIdempotent(t *testing.T) {
	r := identity.NewRegistry()

	first := r.Resolve("")
	second := r.Resolve(first.ID)

	assert.Equal(t, first, second, "resolving the same token twice must return the same user")
	assert.Len(t, r.SnapshotAll(), 1)
}

func TestResolveUnknownTokenCreatesNewUser(t *testing.T) {
	r := identity.NewRegistry()

	r.Resolve("")
	u := r.Resolve("idnot-a-known-token")

	assert.Equal(t, "User1", u.Name)
	assert.Len(t, r.SnapshotAll(), 2)
}

func TestPresenceRoundTrip(t *testing.T) {
	r := identity.NewRegistry()
	u := r.Resolve("")

	// Second tab connects before the first one closes: 1 -> 2 -> 1, never 0.
	u1, ok := r.IncrementPresence(u.ID)
	require.True(t, ok)
	assert.Equal(t, 1, u1.Online)

	u2, ok := r.IncrementPresence(u.ID)
	require.True(t, ok)
	assert.Equal(t, 2, u2.Online)

	u3, err := r.DecrementPresence(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u3.Online)
}

func TestPresenceNeverGoesNegative(t *testing.T) {
	r := identity.NewRegistry()
	u := r.Resolve("")

	_, err := r.DecrementPresence(u.ID)
	assert.Error(t, err, "decrementing an offline user is an internal error")

	got, ok := r.Get(u.ID)
	require.True(t, ok)
	assert.Equal(t, 0, got.Online)
}

func TestRename(t *testing.T) {
	r := identity.NewRegistry()
	a := r.Resolve("")
	b := r.Resolve("")

	t.Run("success", func(t *testing.T) {
		u, result := r.Rename(a.ID, "Bob")
		assert.Equal(t, identity.RenameChanged, result)
		assert.Equal(t, "Bob", u.Name)
	})

	t.Run("taken", func(t *testing.T) {
		u, result := r.Rename(b.ID, "Bob")
		assert.Equal(t, identity.RenameNameTaken, result)
		assert.Equal(t, b.Name, u.Name, "a failed rename must not change the name")
	})

	t.Run("empty input", func(t *testing.T) {
		_, result := r.Rename(b.ID, "")
		assert.Equal(t, identity.RenameInvalidInput, result)
	})

	t.Run("freed names are reusable", func(t *testing.T) {
		_, result := r.Rename(a.ID, "Alice")
		require.Equal(t, identity.RenameChanged, result)

		u, result := r.Rename(b.ID, "Bob")
		assert.Equal(t, identity.RenameChanged, result)
		assert.Equal(t, "Bob", u.Name)
	})
}

func TestRenameChecksOfflineUsers(t *testing.T) {
	r := identity.NewRegistry()

	// User0 never comes online; its name is still reserved.
	offline := r.Resolve("")
	online := r.Resolve("")
	r.IncrementPresence(online.ID)

	_, result := r.Rename(online.ID, offline.Name)
	assert.Equal(t, identity.RenameNameTaken, result)
}

func TestConcurrentRenameToSameName(t *testing.T) {
	r := identity.NewRegistry()

	const contenders = 16
	ids := make([]string, contenders)
	for i := range ids {
		ids[i] = r.Resolve("").ID
	}

	var wg sync.WaitGroup
	results := make([]identity.RenameResult, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = r.Rename(ids[i], "Highlander")
		}(i)
	}
	wg.Wait()

	changed := 0
	for _, result := range results {
		if result == identity.RenameChanged {
			changed++
		}
	}
	assert.Equal(t, 1, changed, "exactly one concurrent rename to a free name may succeed")
}

func TestRecolor(t *testing.T) {
	r := identity.NewRegistry()
	u := r.Resolve("")

	tests := []struct {
		name   string
		input  string
		result identity.RecolorResult
		stored string
	}{
		{"six digit without hash", "ff00ff", identity.RecolorChanged, "#ff00ff"},
		{"six digit with hash", "#00FF00", identity.RecolorChanged, "#00FF00"},
		{"three digit", "abc", identity.RecolorChanged, "#abc"},
		{"non hex letters", "zz0000", identity.RecolorInvalidInput, "#abc"},
		{"wrong length", "ffff", identity.RecolorInvalidInput, "#abc"},
		{"empty", "", identity.RecolorInvalidInput, "#abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, result := r.Recolor(u.ID, tt.input)
			assert.Equal(t, tt.result, result)

			got, ok := r.Get(u.ID)
			require.True(t, ok)
			assert.Equal(t, tt.stored, got.Color)
		})
	}
}

func TestRecolorNormalizationIsIdempotent(t *testing.T) {
	r := identity.NewRegistry()
	u := r.Resolve("")

	first, result := r.Recolor(u.ID, "ff00ff")
	require.Equal(t, identity.RecolorChanged, result)

	second, result := r.Recolor(u.ID, first.Color)
	require.Equal(t, identity.RecolorChanged, result)

	assert.Equal(t, first.Color, second.Color)
}

func TestSnapshotAllCreationOrder(t *testing.T) {
	r := identity.NewRegistry()

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, r.Resolve("").ID)
	}

	all := r.SnapshotAll()
	require.Len(t, all, 5)
	for i, u := range all {
		assert.Equal(t, ids[i], u.ID)
	}
}

func TestSnapshotReturnsCopies(t *testing.T) {
	r := identity.NewRegistry()
	u := r.Resolve("")

	snapshot := r.SnapshotAll()
	snapshot[0].Name = "Mutated"

	got, ok := r.Get(u.ID)
	require.True(t, ok)
	assert.Equal(t, "User0", got.Name, "mutating a snapshot must not touch the registry")
}
