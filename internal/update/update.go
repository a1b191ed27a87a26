// Package update checks GitHub releases for a newer sha256news build.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const releasesURL = "https://api.github.com/repos/SHA256-news/studious-giggle-sub001/releases/latest"

// Result holds the outcome of a version check.
type Result struct {
	LatestVersion string
	URL           string
}

type ghRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

type Checker struct {
	URL    string
	Client *http.Client
}

func NewChecker() *Checker {
	return &Checker{URL: releasesURL, Client: &http.Client{Timeout: 5 * time.Second}}
}

// Check returns the latest release when it is newer than currentVersion, or
// nil when the build is current. Development builds ("dev") never report an
// update.
func (c *Checker) Check(ctx context.Context, currentVersion string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checking releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("checking releases: unexpected status %s", resp.Status)
	}

	var release ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	if latest == "" || !newer(latest, strings.TrimPrefix(currentVersion, "v")) {
		return nil, nil
	}
	return &Result{LatestVersion: latest, URL: release.HTMLURL}, nil
}

// newer compares dotted numeric versions. Anything unparsable on the current
// side counts as not older.
func newer(latest, current string) bool {
	l, ok := parts(latest)
	if !ok {
		return false
	}
	c, ok := parts(current)
	if !ok {
		return false
	}
	for i := 0; i < max(len(l), len(c)); i++ {
		var a, b int
		if i < len(l) {
			a = l[i]
		}
		if i < len(c) {
			b = c[i]
		}
		if a != b {
			return a > b
		}
	}
	return false
}

func parts(v string) ([]int, bool) {
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	fields := strings.Split(v, ".")
	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, false
		}
		nums[i] = n
	}
	return nums, true
}
