// Package gitver resolves a package's bundle version from the nearest
// semver tag in its git repository.
package gitver

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// VersionInfo holds resolved version metadata from git.
type VersionInfo struct {
	Version      string // full version: "1.2.3", "1.2.3-rc.1", "1.2.3-dev+abc1234", "0.0.0-dev+abc1234"
	Base         string // major.minor.patch only: "1.2.3"
	Prerelease   string // "rc.1", or "" for stable
	Tag          string // tag the version came from, "" when untagged
	SHA          string // short HEAD commit
	IsRelease    bool   // HEAD is exactly at the tag
	IsPrerelease bool
}

// BundleVersion is the numeric form bundle Info.plists accept.
func (v *VersionInfo) BundleVersion() string { return v.Base }

const shortSHA = 7

// DetectVersion opens the repository containing rootDir and resolves the
// version from the nearest ancestor of HEAD carrying a semver tag. When
// several semver tags point at that commit the highest wins. Non-semver
// tags are ignored.
func DetectVersion(rootDir string) (*VersionInfo, error) {
	repo, err := git.PlainOpenWithOptions(rootDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", rootDir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	tags, err := semverTags(repo)
	if err != nil {
		return nil, err
	}

	sha := head.Hash().String()[:shortSHA]
	info := &VersionInfo{SHA: sha, Version: "0.0.0-dev+" + sha, Base: "0.0.0"}

	commits, err := repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderBSF})
	if err != nil {
		return nil, fmt.Errorf("walking history: %w", err)
	}
	defer commits.Close()

	var (
		nearest *tagVersion
		atHead  bool
	)
	err = commits.ForEach(func(c *object.Commit) error {
		if tv, ok := tags[c.Hash]; ok {
			nearest = tv
			atHead = c.Hash == head.Hash()
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking history: %w", err)
	}
	if nearest == nil {
		return info, nil
	}

	v := nearest.version
	info.Tag = nearest.name
	info.Base = fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
	info.Prerelease = v.Prerelease()
	info.IsPrerelease = info.Prerelease != ""
	info.IsRelease = atHead

	info.Version = info.Base
	if info.IsPrerelease {
		info.Version += "-" + info.Prerelease
	}
	if !info.IsRelease {
		info.Version += "-dev+" + sha
	}
	return info, nil
}

type tagVersion struct {
	name    string
	version *semver.Version
}

// semverTags maps each tagged commit to its highest semver tag.
func semverTags(repo *git.Repository) (map[plumbing.Hash]*tagVersion, error) {
	refs, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer refs.Close()

	out := make(map[plumbing.Hash]*tagVersion)
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		v, err := semver.NewVersion(name)
		if err != nil {
			return nil
		}
		commit := ref.Hash()
		// Annotated tags point at a tag object; peel it.
		if tag, err := repo.TagObject(ref.Hash()); err == nil {
			c, err := tag.Commit()
			if err != nil {
				return nil
			}
			commit = c.Hash
		}
		if prev, ok := out[commit]; !ok || v.GreaterThan(prev.version) {
			out[commit] = &tagVersion{name: name, version: v}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return out, nil
}
