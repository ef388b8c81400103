package dictionary

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	repoOwner = "scriptin"
	repoName  = "jmdict-simplified"
)

// LatestReleaseURL is the GitHub API endpoint describing the newest
// jmdict-simplified release.
var LatestReleaseURL = fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", repoOwner, repoName)

// Downloader fetches the English common JMdict file from a GitHub release.
type Downloader struct {
	// Client defaults to an http.Client with a five minute timeout.
	Client *http.Client
	// ReleaseURL defaults to LatestReleaseURL.
	ReleaseURL string
	Logger     *slog.Logger
}

// EnsureDictionary makes sure a dictionary file exists at path, downloading
// the latest release when it does not.
func EnsureDictionary(ctx context.Context, path string) error {
	return (&Downloader{}).Ensure(ctx, path)
}

// Ensure checks if the dictionary exists at path. If not, it discovers the
// latest release, downloads it and extracts the JSON file to path.
func (d *Downloader) Ensure(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	log := d.logger()
	log.Info("dictionary not found, downloading", slog.String("path", path))

	downloadURL, err := d.latestAssetURL(ctx)
	if err != nil {
		return fmt.Errorf("find latest dictionary release: %w", err)
	}

	log.Info("downloading dictionary", slog.String("url", downloadURL))
	start := time.Now()
	if err := d.downloadAndExtract(ctx, downloadURL, path); err != nil {
		return err
	}
	log.Info("dictionary ready", slog.String("path", path), slog.Duration("took", time.Since(start)))
	return nil
}

func (d *Downloader) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

func (d *Downloader) client() *http.Client {
	if d.Client == nil {
		return &http.Client{Timeout: 5 * time.Minute}
	}
	return d.Client
}

func (d *Downloader) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	// GitHub requires a User-Agent.
	req.Header.Set("User-Agent", "cards-cli")

	resp, err := d.client().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	return resp, nil
}

func (d *Downloader) latestAssetURL(ctx context.Context) (string, error) {
	releaseURL := d.ReleaseURL
	if releaseURL == "" {
		releaseURL = LatestReleaseURL
	}
	resp, err := d.get(ctx, releaseURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var release struct {
		Assets []struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		} `json:"assets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("decode release: %w", err)
	}

	// Asset names look like jmdict-eng-common-3.6.1+20250101.json.tgz.
	for _, asset := range release.Assets {
		if strings.Contains(asset.Name, "jmdict-eng-common") && strings.HasSuffix(asset.Name, ".json.tgz") {
			return asset.BrowserDownloadURL, nil
		}
	}
	return "", errors.New("no suitable dictionary asset found in latest release")
}

// downloadAndExtract writes the first JSON file of a .tgz archive to
// destPath. The file only appears at destPath once it is complete.
func (d *Downloader) downloadAndExtract(ctx context.Context, url, destPath string) error {
	resp, err := d.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return errors.New("no json file found in downloaded archive")
		}
		if err != nil {
			return fmt.Errorf("read tar archive: %w", err)
		}
		if header.Typeflag == tar.TypeReg && strings.HasSuffix(header.Name, ".json") {
			return writeAtomically(destPath, tr)
		}
	}
}

func writeAtomically(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
