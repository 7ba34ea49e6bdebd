package sequence_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"assetlib/internal/host"
	"assetlib/internal/logging"
	"assetlib/internal/references"
	"assetlib/internal/sequence"
	"assetlib/internal/testsupport"
)

func newResolver(t *testing.T) (*sequence.Resolver, *references.Scanner) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	rules := references.RulesFromConfig(cfg)
	resolver, err := sequence.NewResolver(cfg, rules, logging.NewNop())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return resolver, references.NewScanner(rules, logging.NewNop())
}

func scan(t *testing.T, scanner *references.Scanner, triples ...host.Triple) []references.FileReference {
	t.Helper()
	result := scanner.Scan(context.Background(), triples)
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected scan warnings: %+v", result.Warnings)
	}
	return result.References
}

func TestResolveGeometrySequence(t *testing.T) {
	resolver, scanner := newResolver(t)
	cache := filepath.Join(t.TempDir(), "cache")
	testsupport.WriteSequence(t, cache, "sim.%04d.bgeo.sc", 1001, 1005)
	testsupport.WriteFile(t, filepath.Join(cache, "sim.backup.bgeo.sc"), 4)
	testsupport.WriteFile(t, filepath.Join(cache, "other.1001.bgeo.sc"), 4)

	pattern := filepath.Join(cache, "sim.<FRAME>.bgeo.sc")
	refs := scan(t, scanner, host.Triple{OwnerID: "/obj/sim", Field: "file", Value: pattern})

	result := resolver.Resolve(context.Background(), refs)
	if len(result.Groups) != 1 || len(result.Warnings) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	group := result.Groups[0]
	if group.Pattern != pattern {
		t.Fatalf("pattern = %q", group.Pattern)
	}
	if group.BaseName != "sim" {
		t.Fatalf("base name = %q", group.BaseName)
	}
	if group.Subfolder != "Geometry/bgeo/sim" {
		t.Fatalf("subfolder = %q", group.Subfolder)
	}
	if len(group.Files) != 5 {
		t.Fatalf("expected 5 files, got %v", group.Files)
	}
	for i, frame := range group.Frames {
		if frame != 1001+i {
			t.Fatalf("frames = %v", group.Frames)
		}
	}
	if filepath.Base(group.Files[0]) != "sim.1001.bgeo.sc" {
		t.Fatalf("files not sorted: %v", group.Files)
	}
	if group.PatternName() != "sim.<FRAME>.bgeo.sc" {
		t.Fatalf("pattern name = %q", group.PatternName())
	}
}

func TestResolveDeduplicatesByPatternAndBaseName(t *testing.T) {
	resolver, scanner := newResolver(t)
	cache := t.TempDir()
	testsupport.WriteSequence(t, cache, "fx_%04d.vdb", 1, 3)
	pattern := filepath.Join(cache, "fx_$F4.vdb")

	refs := scan(t, scanner,
		host.Triple{OwnerID: "/obj/a", Field: "file", Value: pattern},
		host.Triple{OwnerID: "/obj/b", Field: "file", Value: pattern},
	)
	result := resolver.Resolve(context.Background(), refs)
	if len(result.Groups) != 1 {
		t.Fatalf("expected one group, got %d", len(result.Groups))
	}
	if got := len(result.Groups[0].References); got != 2 {
		t.Fatalf("expected both references on the group, got %d", got)
	}
}

func TestResolveSubstitutesOwnerToken(t *testing.T) {
	resolver, scanner := newResolver(t)
	cache := filepath.Join(t.TempDir(), "pyro")
	testsupport.WriteSequence(t, cache, "smoke.%04d.vdb", 1001, 1002)
	pattern := filepath.Join(filepath.Dir(cache), "$OS", "smoke.$F4.vdb")

	refs := scan(t, scanner, host.Triple{OwnerID: "/obj/pyro", Field: "file", Value: pattern})
	result := resolver.Resolve(context.Background(), refs)
	group := result.Groups[0]
	if group.Unresolved || len(group.Files) != 2 {
		t.Fatalf("owner token not substituted: %+v", group)
	}
	if group.Pattern != pattern {
		t.Fatalf("pattern must keep tokens, got %q", group.Pattern)
	}
}

func TestResolveUDIM(t *testing.T) {
	resolver, scanner := newResolver(t)
	tex := t.TempDir()
	for _, tile := range []string{"1002", "1001", "1011"} {
		testsupport.WriteFile(t, filepath.Join(tex, "skin."+tile+".exr"), 8)
	}
	testsupport.WriteFile(t, filepath.Join(tex, "skin.10011.exr"), 8)

	refs := scan(t, scanner, host.Triple{OwnerID: "/mat/skin", Field: "diffuse", Value: filepath.Join(tex, "skin.<UDIM>.exr"), OwnerLabel: "Skin Shader"})
	group := resolver.Resolve(context.Background(), refs).Groups[0]
	if len(group.Files) != 3 {
		t.Fatalf("expected three tiles, got %v", group.Files)
	}
	if group.Frames[0] != 1001 || group.Frames[2] != 1011 {
		t.Fatalf("tiles = %v", group.Frames)
	}
	if group.Subfolder != "Textures/Skin_Shader" {
		t.Fatalf("subfolder = %q", group.Subfolder)
	}
}

func TestResolveUDIMWithoutFilesIsUnresolved(t *testing.T) {
	resolver, scanner := newResolver(t)
	missing := filepath.Join(t.TempDir(), "nowhere", "skin.<UDIM>.exr")

	refs := scan(t, scanner, host.Triple{OwnerID: "/mat/skin", Field: "diffuse", Value: missing})
	result := resolver.Resolve(context.Background(), refs)
	if len(result.Groups) != 1 || !result.Groups[0].Unresolved {
		t.Fatalf("expected unresolved group, got %+v", result.Groups)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected one warning, got %+v", result.Warnings)
	}
}

func TestResolveMissingSequenceKeepsPattern(t *testing.T) {
	resolver, scanner := newResolver(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	refs := scan(t, scanner, host.Triple{OwnerID: "/obj/sim", Field: "file", Value: filepath.Join(dir, "sim.$F4.bgeo.sc")})
	result := resolver.Resolve(context.Background(), refs)
	group := result.Groups[0]
	if !group.Unresolved || len(group.Files) != 0 {
		t.Fatalf("expected unresolved group, got %+v", group)
	}
	if group.Subfolder != "Geometry/bgeo/sim" {
		t.Fatalf("unresolved group still needs a subfolder, got %q", group.Subfolder)
	}
}

func TestExtractFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame int
		ok    bool
	}{
		{"sim.1001.bgeo.sc", 1001, true},
		{"/cache/fire_0042.exr", 42, true},
		{"smoke.012.vdb", 12, true},
		{"dust1017.abc", 1017, true},
		{"static.abc", 0, false},
	}
	for _, tt := range tests {
		frame, ok := sequence.ExtractFrame(tt.name)
		if ok != tt.ok || frame != tt.frame {
			t.Fatalf("ExtractFrame(%q) = %d, %v; want %d, %v", tt.name, frame, ok, tt.frame, tt.ok)
		}
	}
}

func TestDetectFrameRange(t *testing.T) {
	policy := sequence.RangePolicy{Floor: 1001, MinLength: 18}

	if got := sequence.DetectFrameRange(nil, policy); got != (sequence.Range{Start: 1001, End: 1018}) {
		t.Fatalf("no sequences: got %+v", got)
	}

	var files []string
	for frame := 1001; frame <= 1140; frame++ {
		files = append(files, filepath.Join("/cache", "sim."+strconv.Itoa(frame)+".bgeo.sc"))
	}
	long := &sequence.Group{Class: references.ClassSequence, Files: files}
	if got := sequence.DetectFrameRange([]*sequence.Group{long}, policy); got != (sequence.Range{Start: 1001, End: 1140}) {
		t.Fatalf("long sequence: got %+v", got)
	}

	late := &sequence.Group{Class: references.ClassSequence, Files: []string{"/c/sim.1010.abc", "/c/sim.1012.abc"}}
	if got := sequence.DetectFrameRange([]*sequence.Group{late}, policy); got.Start != 1001 || got.End != 1018 {
		t.Fatalf("late short sequence: got %+v", got)
	}

	tiles := &sequence.Group{Class: references.ClassUDIM, Files: []string{"/t/skin.1099.exr"}}
	if got := sequence.DetectFrameRange([]*sequence.Group{tiles}, policy); got.End != 1018 {
		t.Fatalf("tiles must not affect the range: got %+v", got)
	}
}
