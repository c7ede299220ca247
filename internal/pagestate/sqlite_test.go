package pagestate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolphinheart/mulastudio/internal/database"
)

func openTestTier(t *testing.T) *SQLiteTier {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return NewSQLiteTier(db)
}

func TestSQLiteTierRoundTrip(t *testing.T) {
	t.Parallel()
	tier := openTestTier(t)

	data, err := tier.Load("page_state_STUDIO")
	require.NoError(t, err)
	require.Nil(t, data, "missing bucket loads as nil")

	require.NoError(t, tier.Save("page_state_STUDIO", []byte(`{"lyrics":"\"la\""}`)))
	data, err = tier.Load("page_state_STUDIO")
	require.NoError(t, err)
	require.JSONEq(t, `{"lyrics":"\"la\""}`, string(data))

	// Upsert replaces, not appends.
	require.NoError(t, tier.Save("page_state_STUDIO", []byte(`{}`)))
	data, err = tier.Load("page_state_STUDIO")
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(data))

	require.NoError(t, tier.Delete("page_state_STUDIO"))
	data, err = tier.Load("page_state_STUDIO")
	require.NoError(t, err)
	require.Nil(t, data)
}

func TestStoreOverSQLiteSurvivesReload(t *testing.T) {
	t.Parallel()
	tier := openTestTier(t)

	store := NewStore(tier)
	For(store, ViewStudio, "lyrics", "", Options{Persist: true}).Set("Verse 1...")
	For(store, ViewStudio, "tags", "", Options{Persist: true}).Set("electronic, dark")

	reloaded := NewStore(tier)
	require.Equal(t, "Verse 1...", For(reloaded, ViewStudio, "lyrics", "", Options{Persist: true}).Get())
	require.Equal(t, "electronic, dark", For(reloaded, ViewStudio, "tags", "", Options{Persist: true}).Get())
}
