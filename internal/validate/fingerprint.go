package validate

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
)

// Fingerprint identifies the rule set and the config that produced a result.
// Cached results are only valid under an identical fingerprint. It hashes the
// canonical JSON of cfg, the sorted, de-duplicated "id@package@revision"
// entries of rules and the identity of the running build.
func Fingerprint(cfg Config, rules []Rule) (string, error) {
	seen := make(map[string]bool)
	var entries []string
	for _, r := range rules {
		pkg, rev := "validate", 1
		if rv, ok := r.(Revisioned); ok {
			pkg, rev = rv.Package(), rv.Revision()
		}
		e := fmt.Sprintf("%s@%s@%d", r.ID(), pkg, rev)
		if !seen[e] {
			seen[e] = true
			entries = append(entries, e)
		}
	}
	sort.Strings(entries)

	data, err := json.Marshal(struct {
		Config Config   `json:"config"`
		Rules  []string `json:"rules"`
		Build  string   `json:"build"`
	}{cfg, entries, buildIdentity()})
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}

// buildIdentity names the rule implementations compiled into this process:
// the clean VCS revision when the build records one, otherwise a hash of the
// executable itself.
var buildIdentity = sync.OnceValue(func() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		var rev, modified string
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				rev = s.Value
			case "vcs.modified":
				modified = s.Value
			}
		}
		if rev != "" && modified != "true" {
			return info.Main.Path + "@" + info.Main.Version + "+" + rev
		}
	}
	return executableHash()
})

func executableHash() string {
	path, err := os.Executable()
	if err != nil {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return fmt.Sprintf("exe:%016x", h.Sum64())
}
