// Package updater checks GitHub Releases for newer Loft binaries and
// swaps them in place.
package updater

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/loft-chat/loft/internal/buildinfo"
)

const releasesURL = "https://api.github.com/repos/loft-chat/loft/releases/latest"

// Release is the subset of the GitHub release payload the updater needs.
type Release struct {
	TagName string  `json:"tag_name"`
	HTMLURL string  `json:"html_url"`
	Assets  []Asset `json:"assets"`
}

// Asset is one downloadable file in a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// Result describes the outcome of an update check.
type Result struct {
	Available      bool
	CurrentVersion string
	LatestVersion  string
	ReleaseURL     string
	Release        *Release
}

// Check queries the GitHub Releases API for a newer version. A "dev"
// build always reports an update as available.
func Check() (*Result, error) {
	req, err := http.NewRequest("GET", releasesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "loft/"+buildinfo.Version)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// No releases published yet.
		return &Result{CurrentVersion: buildinfo.Version}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}

	result := &Result{
		CurrentVersion: buildinfo.Version,
		LatestVersion:  strings.TrimPrefix(release.TagName, "v"),
		ReleaseURL:     release.HTMLURL,
		Release:        &release,
	}

	current, err := Parse(buildinfo.Version)
	if err != nil {
		result.Available = true
		return result, nil
	}
	latest, err := Parse(result.LatestVersion)
	if err != nil {
		return nil, fmt.Errorf("parse latest version %q: %w", result.LatestVersion, err)
	}
	result.Available = current.Older(latest)
	return result, nil
}

// CLIAssetName returns the release asset name for the loft binary.
func CLIAssetName() string {
	return fmt.Sprintf("loft-linux-%s", runtime.GOARCH)
}

// DaemonAssetName returns the release asset name for the loftd binary.
func DaemonAssetName() string {
	return fmt.Sprintf("loftd-linux-%s", runtime.GOARCH)
}

// FindAsset finds a release asset by name.
func FindAsset(release *Release, name string) *Asset {
	for _, a := range release.Assets {
		if a.Name == name {
			return &a
		}
	}
	return nil
}

// DownloadAsset downloads an asset to an executable temp file and
// returns its path.
func DownloadAsset(asset *Asset) (string, error) {
	resp, err := http.Get(asset.BrowserDownloadURL)
	if err != nil {
		return "", fmt.Errorf("download asset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "loft-update-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	if err := os.Chmod(tmp.Name(), 0755); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	return tmp.Name(), nil
}

// ReplaceBinary atomically swaps destPath for the binary at newPath,
// restoring the original on failure.
func ReplaceBinary(destPath, newPath string) error {
	destPath, err := filepath.EvalSymlinks(destPath)
	if err != nil {
		return fmt.Errorf("resolve symlink: %w", err)
	}

	bakPath := destPath + ".bak"
	os.Remove(bakPath)

	if err := os.Rename(destPath, bakPath); err != nil {
		return fmt.Errorf("backup old binary: %w", err)
	}
	if err := os.Rename(newPath, destPath); err != nil {
		_ = os.Rename(bakPath, destPath)
		return fmt.Errorf("install new binary: %w", err)
	}
	os.Remove(bakPath)
	return nil
}
