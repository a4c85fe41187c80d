package cli

import (
	"testing"

	"github.com/michaelzixizhou/codag/pkg/pipeline"
)

func TestMergeOptionsFlagsWin(t *testing.T) {
	base := pipeline.Options{
		PivotType:      "llm_call",
		MergeThreshold: 1,
		FontSize:       14,
		Margin:         48,
	}
	flags := pipeline.Options{
		PivotType: "tool_call",
		Margin:    80,
		Refresh:   true,
	}

	got := mergeOptions(base, flags)

	if got.PivotType != "tool_call" {
		t.Errorf("PivotType = %q, want flag value", got.PivotType)
	}
	if got.Margin != 80 {
		t.Errorf("Margin = %v, want 80", got.Margin)
	}
	if got.MergeThreshold != 1 {
		t.Errorf("MergeThreshold = %d, want base value", got.MergeThreshold)
	}
	if got.FontSize != 14 {
		t.Errorf("FontSize = %v, want base value", got.FontSize)
	}
	if !got.Refresh {
		t.Error("Refresh not carried from flags")
	}
}

func TestMergeOptionsZeroFlagsKeepBase(t *testing.T) {
	base := pipeline.Options{NodeSep: 36, RankSep: 56}
	got := mergeOptions(base, pipeline.Options{})
	if got.NodeSep != 36 || got.RankSep != 56 {
		t.Errorf("got %v/%v, want base preserved", got.NodeSep, got.RankSep)
	}
}

func TestOutputPathFor(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"snapshot.json", "snapshot.layout.json"},
		{"dir/run.json", "dir/run.layout.json"},
		{"noext", "noext.layout.json"},
	}
	for _, tt := range tests {
		if got := outputPathFor(tt.input); got != tt.want {
			t.Errorf("outputPathFor(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
