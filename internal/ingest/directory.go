package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/astadocs/constants"
)

var (
	reListingToken  = regexp.MustCompile(`(?i)annunci[oi]`)
	reProposalToken = regexp.MustCompile(`(?i)propost[ae]`)
	rePairTrim      = regexp.MustCompile(`^[\s_\-.]+|[\s_\-.]+$`)
	rePairSeps      = regexp.MustCompile(`[\s_\-.]+`)
)

// Pair is a listing and a proposal that share a name prefix.
type Pair struct {
	Key      string
	Listing  string
	Proposal string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned  uint32
	Matched  uint32
	Paired   uint32
	Unpaired uint32
	Failed   uint32
}

// ScanPairs walks root and pairs files whose names contain "annuncio" and
// "proposta" around the same remaining text ("123_annuncio.pdf" with
// "123_proposta.pdf"). Unpaired documents are returned separately.
func ScanPairs(root string, skipHidden bool) ([]Pair, []string, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}

	listings := map[string]string{}
	proposals := map[string]string{}
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		switch {
		case reListingToken.MatchString(name):
			listings[pairKey(filepath.Dir(path), reListingToken.ReplaceAllString(name, ""))] = path
			stats.Matched++
		case reProposalToken.MatchString(name):
			proposals[pairKey(filepath.Dir(path), reProposalToken.ReplaceAllString(name, ""))] = path
			stats.Matched++
		}
		return nil
	})
	if err != nil {
		return nil, nil, stats, fmt.Errorf("walk: %w", err)
	}

	var pairs []Pair
	var unpaired []string
	for key, l := range listings {
		if p, ok := proposals[key]; ok {
			rel, _ := filepath.Rel(root, filepath.Join(filepath.Dir(l), displayKey(key)))
			pairs = append(pairs, Pair{Key: filepath.ToSlash(rel), Listing: l, Proposal: p})
			delete(proposals, key)
			continue
		}
		unpaired = append(unpaired, l)
	}
	for _, p := range proposals {
		unpaired = append(unpaired, p)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Listing < pairs[j].Listing })
	sort.Strings(unpaired)
	stats.Paired = uint32(len(pairs))
	stats.Unpaired = uint32(len(unpaired))
	return pairs, unpaired, stats, nil
}

func pairKey(dir, rest string) string {
	rest = strings.ToLower(rePairTrim.ReplaceAllString(rest, ""))
	return dir + "\x00" + rePairSeps.ReplaceAllString(rest, "_")
}

func displayKey(key string) string {
	if i := strings.IndexByte(key, 0); i >= 0 {
		key = key[i+1:]
	}
	if key == "" {
		return "pair"
	}
	return key
}

// AllowedExt reports whether files with ext are read as documents.
func AllowedExt(ext string) bool {
	return constants.FormatForExt(ext) != ""
}

// IsHidden reports dot files and the "~$" lock files office suites leave
// next to open documents.
func IsHidden(path string) bool {
	name := filepath.Base(path)
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$")
}
