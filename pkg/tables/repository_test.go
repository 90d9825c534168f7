package tables

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrimaryDoc = `{
	"crit_tables": {
		"Slashing ": {"1-10": "A shallow cut.", "11-20": "A deep gash. Major Injury!"},
		"fire": {"1-20": "Scorched."}
	},
	"fumbles": {"1-50": "You trip.", "51-100": "You drop your weapon."},
	"minor_injuries": {"1-20": "Bruised ribs."},
	"major_injuries": {"1-8": "Broken arm.", "9-20": "Lost eye."},
	"insanities": {"1-20": "Paranoia."},
	"sources": {
		"grim": {
			"crit_tables": {"slashing": {"1-100": "Bleeding: lose 1 hp per turn"}},
			"fumbles": {"melee": {"1-100": "Overswing: fall prone"}, "ranged": {}, "general": {"1-100": "Stumble: lose reaction"}}
		}
	}
}`

const testArcanaDoc = `{
	"crit_tables": {"slashing": {"1-100": "Arcane cut. Effect: bleed"}},
	"fumbles": {
		"Weapon Attack": [{"roll": "1-100", "description": "Your blade hums.", "effect": "Disadvantage."}],
		"Spell Attack": []
	}
}`

func writeDocs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PrimaryDocumentFile), []byte(testPrimaryDoc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ArcanaDocumentFile), []byte(testArcanaDoc), 0o644))
	return dir
}

func TestLoadDir(t *testing.T) {
	repo, err := LoadDir(writeDocs(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"arcana", "grim", "smackdown"}, repo.Sources())
	assert.Equal(t, []string{"fire", "slashing"}, repo.Categories(PrimarySource))

	table, ok := repo.Lookup("SmackDown", "  SLASHING ")
	require.True(t, ok, "lookup must normalize source and category")
	assert.Equal(t, "A deep gash. Major Injury!", Resolve(15, table))

	_, ok = repo.Lookup(PrimarySource, "radiant")
	assert.False(t, ok)

	general, ok := repo.Bucket(PrimarySource, GeneralBucket)
	require.True(t, ok)
	assert.Equal(t, "You drop your weapon.", Resolve(77, general))

	ranged, ok := repo.Bucket("grim", "ranged")
	require.True(t, ok)
	assert.Empty(t, ranged)

	weapon, ok := repo.Bucket(ArcanaSource, "weapon attack")
	require.True(t, ok)
	require.Len(t, weapon, 1)
	assert.Equal(t, "Disadvantage.", weapon[0].Outcome.Effect)

	major, ok := repo.Secondary(MajorInjuries)
	require.True(t, ok)
	assert.Equal(t, "Lost eye.", Resolve(9, major))

	assert.True(t, repo.HasSource("GRIM"))
	assert.False(t, repo.HasSource("unknown"))
	assert.Equal(t, []string{}, repo.Categories("unknown"))
}

func TestLoadDir_MissingDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PrimaryDocumentFile), []byte(testPrimaryDoc), 0o644))

	_, err := LoadDir(dir)
	assert.Error(t, err)
}

func TestLoadDir_MalformedDocument(t *testing.T) {
	dir := writeDocs(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, PrimaryDocumentFile), []byte(`{"crit_tables": [`), 0o644))

	_, err := LoadDir(dir)
	assert.Error(t, err)
}
