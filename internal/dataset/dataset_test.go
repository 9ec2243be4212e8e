package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `match_uid,match_url,player_home,player_away,player_home_id,player_away_id,home_set1,away_set1,match_score,time_overall
M1,https://example.com/match/M1,Garcia Lopez,Mueller K.,pA,pB,6,4,2-0,1:34
M2,https://example.com/match/M2,Ito R.,Smith J.,pC,pD,7,6,2-1,
`

func writeSample(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matches.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tbl, err := Load(writeSample(t, sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Len())
	assert.True(t, tbl.HasColumn("match_score"))
	assert.False(t, tbl.HasColumn("court_type"))

	row, ok := tbl.RowByUID("M2")
	require.True(t, ok)
	assert.Equal(t, "Ito R.", tbl.Get(row, "player_home"))
	assert.Equal(t, "", tbl.Get(row, "time_overall"))
	_, ok = tbl.RowByUID("M9")
	assert.False(t, ok)
}

func TestLoadRequiresUIDColumn(t *testing.T) {
	_, err := Load(writeSample(t, "a,b\n1,2\n"))
	require.Error(t, err)
	var fileErr *FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Contains(t, fileErr.Message, "match_uid")
}

func TestLoadPadsShortRows(t *testing.T) {
	tbl, err := Load(writeSample(t, "match_uid,match_url,player_home\nM1,https://example.com/m1\n"))
	require.NoError(t, err)
	row, ok := tbl.RowByUID("M1")
	require.True(t, ok)
	assert.Equal(t, "", tbl.Get(row, "player_home"))
}

func TestRecords(t *testing.T) {
	tbl, err := Load(writeSample(t, sampleCSV))
	require.NoError(t, err)

	records := tbl.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "M1", records[0].UID)
	assert.Equal(t, "https://example.com/match/M1", records[0].URL)
	assert.Equal(t, "Garcia Lopez", records[0].HomeName)
	assert.Equal(t, "pB", records[0].AwayID)
}

func TestRecordsSkipsRowsWithoutURL(t *testing.T) {
	tbl, err := Load(writeSample(t, "match_uid,match_url\nM1,\nM2,https://example.com/m2\n"))
	require.NoError(t, err)
	records := tbl.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "M2", records[0].UID)
}

func TestEnsureColumnAndRoundTrip(t *testing.T) {
	path := writeSample(t, sampleCSV)
	tbl, err := Load(path)
	require.NoError(t, err)

	tbl.EnsureColumn("court_type")
	row, _ := tbl.RowByUID("M1")
	tbl.Set(row, "court_type", "Hard (indoor)")
	require.NoError(t, tbl.Write(path))

	reread, err := Load(path)
	require.NoError(t, err)
	row, _ = reread.RowByUID("M1")
	assert.Equal(t, "Hard (indoor)", reread.Get(row, "court_type"))
	row, _ = reread.RowByUID("M2")
	assert.Equal(t, "", reread.Get(row, "court_type"))
}

func TestSetAbsentColumnIsNoop(t *testing.T) {
	tbl, err := Load(writeSample(t, sampleCSV))
	require.NoError(t, err)
	row, _ := tbl.RowByUID("M1")
	tbl.Set(row, "no_such_column", "x")
	assert.Equal(t, "", tbl.Get(row, "no_such_column"))
}

func TestBackup(t *testing.T) {
	path := writeSample(t, sampleCSV)
	backupPath, err := Backup(path)
	require.NoError(t, err)

	assert.NotEqual(t, path, backupPath)
	assert.Contains(t, filepath.Base(backupPath), "matches_backup_")

	original, err := os.ReadFile(path)
	require.NoError(t, err)
	copied, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, original, copied)
}
