package geounits

import (
	"archive/zip"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DownloaderOptions configures shapefile archive downloads.
type DownloaderOptions struct {
	UserAgent string
	Timeout   time.Duration
}

// Downloader fetches TIGER/Line shapefile archives over HTTP or the census
// FTP mirror and extracts them.
type Downloader struct {
	opts DownloaderOptions
	http *http.Client
}

// NewDownloader creates a downloader with the given options.
func NewDownloader(opts DownloaderOptions) *Downloader {
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	return &Downloader{
		opts: opts,
		http: &http.Client{Timeout: opts.Timeout},
	}
}

// Fetch downloads rawURL (http, https, or ftp) into destDir and, when the
// payload is a .zip, extracts it next to the archive. Returns the extracted
// .shp path, or the downloaded file path for non-archives.
func (d *Downloader) Fetch(ctx context.Context, rawURL, destDir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrap(err, "geounits: parse url")
	}

	local := filepath.Join(destDir, filepath.Base(u.Path))
	switch u.Scheme {
	case "http", "https":
		if err := d.fetchHTTP(ctx, rawURL, local); err != nil {
			return "", err
		}
	case "ftp":
		if err := d.fetchFTP(ctx, u, local); err != nil {
			return "", err
		}
	default:
		return "", eris.Errorf("geounits: unsupported scheme %q", u.Scheme)
	}

	if !strings.HasSuffix(local, ".zip") {
		return local, nil
	}
	return extractShapefile(local, destDir)
}

func (d *Downloader) fetchHTTP(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "geounits: create request")
	}
	if d.opts.UserAgent != "" {
		req.Header.Set("User-Agent", d.opts.UserAgent)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "geounits: download")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("geounits: download %s: status %d", rawURL, resp.StatusCode)
	}
	return writeFile(dest, resp.Body)
}

func (d *Downloader) fetchFTP(ctx context.Context, u *url.URL, dest string) error {
	host := u.Host
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "21")
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", u.Path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(d.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return eris.Wrap(err, "geounits: ftp dial")
	}
	defer func() { _ = conn.Quit() }()

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		return eris.Wrap(err, "geounits: ftp login")
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return eris.Wrap(err, "geounits: ftp retrieve")
	}
	defer resp.Close()

	return writeFile(dest, resp)
}

func writeFile(dest string, r io.Reader) error {
	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "geounits: create file")
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return eris.Wrap(err, "geounits: write file")
	}
	return nil
}

// extractShapefile extracts a TIGER zip and returns the .shp member's path.
func extractShapefile(zipPath, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", eris.Wrap(err, "geounits: open archive")
	}
	defer r.Close()

	var shpPath string
	for _, f := range r.File {
		path, err := extractEntry(f, destDir)
		if err != nil {
			return "", err
		}
		if strings.HasSuffix(path, ".shp") {
			shpPath = path
		}
	}
	if shpPath == "" {
		return "", eris.Errorf("geounits: no .shp member in %s", zipPath)
	}
	return shpPath, nil
}

func extractEntry(f *zip.File, destDir string) (string, error) {
	// Sanitize against zip slip.
	destPath := filepath.Join(destDir, f.Name)
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", eris.Errorf("geounits: illegal archive path %q", f.Name)
	}
	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(destPath, 0o755); err != nil {
			return "", eris.Wrap(err, "geounits: create directory")
		}
		return "", nil
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", eris.Wrap(err, "geounits: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrap(err, "geounits: open entry")
	}
	defer rc.Close()

	if err := writeFile(destPath, rc); err != nil {
		return "", err
	}
	return destPath, nil
}
