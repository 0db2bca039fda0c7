package database

import (
	"path/filepath"
	"strings"
	"testing"

	"imagedupes/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(ch string) types.Fingerprint {
	return types.Fingerprint(strings.Repeat(ch, types.FingerprintLength))
}

func TestExportRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "export.db")
	db, err := InitDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	images := []types.FingerprintedImage{
		{Path: "/p/a.jpg", Fingerprint: fp("0")},
		{Path: "/p/b.jpg", Fingerprint: fp("0")},
		{Path: "/p/c.jpg", Fingerprint: fp("1")},
	}
	require.NoError(t, StoreImages(db, images))

	sink := NewMatchSink(db)
	require.NoError(t, sink.Report(types.SimilarityResult{A: "/p/a.jpg", B: "/p/b.jpg", Distance: 0}))
	require.NoError(t, sink.Report(types.SimilarityResult{A: "/p/b.jpg", B: "/p/c.jpg", Distance: 12}))

	stats, err := GetScanStats(db)
	require.NoError(t, err)
	assert.Equal(t, &ScanStats{TotalImages: 3, UniqueFingerprints: 2, MatchCount: 2}, stats)

	var a, b string
	var distance int
	require.NoError(t, db.QueryRow("SELECT path_a, path_b, distance FROM matches WHERE distance > 0").
		Scan(&a, &b, &distance))
	assert.Equal(t, []any{"/p/b.jpg", "/p/c.jpg", 12}, []any{a, b, distance})

	var id int
	require.NoError(t, db.QueryRow("SELECT id FROM images WHERE path = ?", "/p/c.jpg").Scan(&id))
	assert.Equal(t, 2, id)
}

func TestInitDatabaseClearsPreviousRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "export.db")

	db, err := InitDatabase(dbPath)
	require.NoError(t, err)
	require.NoError(t, StoreImages(db, []types.FingerprintedImage{{Path: "/p/a.jpg", Fingerprint: fp("0")}}))
	require.NoError(t, StoreMatch(db, types.SimilarityResult{A: "/p/a.jpg", B: "/p/x.jpg"}))
	require.NoError(t, db.Close())

	db, err = InitDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	stats, err := GetScanStats(db)
	require.NoError(t, err)
	assert.Equal(t, &ScanStats{}, stats)
}

func TestStoreImagesRejectsDuplicates(t *testing.T) {
	db, err := InitDatabase(filepath.Join(t.TempDir(), "export.db"))
	require.NoError(t, err)
	defer db.Close()

	err = StoreImages(db, []types.FingerprintedImage{
		{Path: "/p/a.jpg", Fingerprint: fp("0")},
		{Path: "/p/a.jpg", Fingerprint: fp("1")},
	})
	require.Error(t, err)

	stats, err := GetScanStats(db)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalImages)
}
