package doctor

import (
	"context"
	"strings"
	"time"

	"github.com/haasonsaas/computex/internal/computeruse"
)

// VersionFlags are tried in order until one prints a version.
var VersionFlags = []string{"--version", "-version", "version", "-V"}

// VersionProbeTimeout bounds each version flag attempt.
const VersionProbeTimeout = 2 * time.Second

// ProbeVersion runs path with each of VersionFlags and returns the first line
// of the first successful, non-empty stdout. Failures and timeouts move on to
// the next flag; an empty result means no flag worked.
func ProbeVersion(ctx context.Context, runner computeruse.Runner, path string) string {
	if runner == nil || path == "" {
		return ""
	}
	for _, flag := range VersionFlags {
		probeCtx, cancel := context.WithTimeout(ctx, VersionProbeTimeout)
		out, err := runner.Run(probeCtx, path, []string{flag})
		cancel()
		if err != nil {
			continue
		}
		stdout := strings.TrimSpace(out.Stdout)
		if stdout == "" {
			continue
		}
		first, _, _ := strings.Cut(stdout, "\n")
		return strings.TrimSpace(first)
	}
	return ""
}
