package geounits

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipBytes(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range members {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestFetchHTTPZip(t *testing.T) {
	archive := zipBytes(t, map[string]string{
		"tl_2024_06_tract.shp": "shape data",
		"tl_2024_06_tract.dbf": "attribute data",
		"tl_2024_06_tract.prj": "projection",
	})

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(DownloaderOptions{UserAgent: "districting-cli/test"})

	path, err := d.Fetch(context.Background(), srv.URL+"/tl_2024_06_tract.zip", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tl_2024_06_tract.shp"), path)
	assert.Equal(t, "districting-cli/test", gotUA)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "shape data", string(body))

	// Sidecar members extracted too.
	_, err = os.Stat(filepath.Join(dir, "tl_2024_06_tract.dbf"))
	assert.NoError(t, err)
}

func TestFetchHTTPNonArchive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain payload"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(DownloaderOptions{})

	path, err := d.Fetch(context.Background(), srv.URL+"/notes.txt", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "notes.txt"), path)
}

func TestFetchHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDownloader(DownloaderOptions{})
	_, err := d.Fetch(context.Background(), srv.URL+"/missing.zip", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetchZipWithoutShapefile(t *testing.T) {
	archive := zipBytes(t, map[string]string{"readme.txt": "no shapes here"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	d := NewDownloader(DownloaderOptions{})
	_, err := d.Fetch(context.Background(), srv.URL+"/empty.zip", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .shp member")
}

func TestFetchUnsupportedScheme(t *testing.T) {
	d := NewDownloader(DownloaderOptions{})
	_, err := d.Fetch(context.Background(), "gopher://example.com/file.zip", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestExtractEntryRejectsZipSlip(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("../escape.shp")
	require.NoError(t, err)
	_, err = f.Write([]byte("evil"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write(buf.Bytes())
	}))
	defer srv.Close()

	d := NewDownloader(DownloaderOptions{})
	_, err = d.Fetch(context.Background(), srv.URL+"/slip.zip", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal archive path")
}
