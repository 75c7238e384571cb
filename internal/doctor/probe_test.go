package doctor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haasonsaas/computex/internal/computeruse"
)

func TestProbeVersion(t *testing.T) {
	tests := []struct {
		name    string
		answers map[string]computeruse.Output
		want    string
		tried   []string
	}{
		{
			name:    "first flag",
			answers: map[string]computeruse.Output{"--version": {Stdout: "xdotool version 3.20160805.1\n"}},
			want:    "xdotool version 3.20160805.1",
			tried:   []string{"--version"},
		},
		{
			name: "falls through to -version",
			answers: map[string]computeruse.Output{
				"-version": {Stdout: "Version: ImageMagick 6.9.11-60 Q16\nCopyright: (C) 1999\n"},
			},
			want:  "Version: ImageMagick 6.9.11-60 Q16",
			tried: []string{"--version", "-version"},
		},
		{
			name:    "empty stdout is skipped",
			answers: map[string]computeruse.Output{"--version": {Stderr: "v1"}, "-V": {Stdout: "v2"}},
			want:    "v2",
			tried:   []string{"--version", "-version", "version", "-V"},
		},
		{
			name:  "nothing works",
			want:  "",
			tried: []string{"--version", "-version", "version", "-V"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tried []string
			runner := computeruse.RunnerFunc(func(_ context.Context, _ string, args []string) (computeruse.Output, error) {
				tried = append(tried, args[0])
				if out, ok := tt.answers[args[0]]; ok {
					return out, nil
				}
				return computeruse.Output{}, errors.New("exit status 1")
			})
			if got := ProbeVersion(context.Background(), runner, "/usr/bin/tool"); got != tt.want {
				t.Fatalf("ProbeVersion() = %q, want %q", got, tt.want)
			}
			if len(tried) != len(tt.tried) {
				t.Fatalf("tried %v, want %v", tried, tt.tried)
			}
			for i := range tried {
				if tried[i] != tt.tried[i] {
					t.Fatalf("tried %v, want %v", tried, tt.tried)
				}
			}
		})
	}
}

func TestProbeVersionBoundsEachAttempt(t *testing.T) {
	var deadlines []time.Duration
	runner := computeruse.RunnerFunc(func(ctx context.Context, _ string, _ []string) (computeruse.Output, error) {
		deadline, ok := ctx.Deadline()
		if !ok {
			t.Fatal("expected a deadline")
		}
		deadlines = append(deadlines, time.Until(deadline))
		return computeruse.Output{}, errors.New("fail")
	})

	ProbeVersion(context.Background(), runner, "/usr/bin/tool")
	if len(deadlines) != len(VersionFlags) {
		t.Fatalf("expected %d attempts, got %d", len(VersionFlags), len(deadlines))
	}
	for _, remaining := range deadlines {
		if remaining <= 0 || remaining > VersionProbeTimeout {
			t.Fatalf("deadline %v outside (0, %v]", remaining, VersionProbeTimeout)
		}
	}
}

func TestProbeVersionWithoutRunner(t *testing.T) {
	if got := ProbeVersion(context.Background(), nil, "/usr/bin/tool"); got != "" {
		t.Fatalf("expected empty version, got %q", got)
	}
}
