package main

import (
	"os/exec"
	"runtime/debug"
	"strings"
	"time"
)

// Release builds stamp these with -ldflags "-X main.commit=... -X main.buildDate=...".
var (
	commit    = "dev"
	buildDate = ""
)

func init() {
	commit, buildDate = resolveVersion(commit, buildDate, vcsSettings(), gitHead)
}

func vcsSettings() map[string]string {
	out := map[string]string{}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	for _, s := range info.Settings {
		if strings.HasPrefix(s.Key, "vcs.") {
			out[s.Key] = s.Value
		}
	}
	return out
}

func gitHead() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// resolveVersion fills an unstamped commit and date from the module's VCS
// settings, then from git, then from the clock.
func resolveVersion(c, date string, vcs map[string]string, head func() string) (string, string) {
	if c == "dev" {
		if rev := vcs["vcs.revision"]; rev != "" {
			c = rev
			if len(c) > 7 {
				c = c[:7]
			}
		} else if h := head(); h != "" {
			c = h
		}
	}
	if date == "" {
		if t, err := time.Parse(time.RFC3339, vcs["vcs.time"]); err == nil {
			date = t.Format("2006-01-02")
		} else {
			date = time.Now().Format("2006-01-02")
		}
	}
	return c, date
}
