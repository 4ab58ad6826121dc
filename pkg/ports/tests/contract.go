package tests

import (
	"testing"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
	"github.com/aretw0/strata/pkg/ports"
)

// FormatBackendContractTest is a reusable test suite that verifies if a backend
// complies with ports.FormatBackend: everything composition reads must
// survive a Serialize/Parse round trip.
func FormatBackendContractTest(t *testing.T, backend ports.FormatBackend) {
	t.Helper()

	exts := backend.Extensions()
	if len(exts) == 0 {
		t.Fatal("backend declares no extensions")
	}
	id := "contract" + exts[0]

	src := layer.New(id)
	mustDo(t, src.SetDefaultTarget("target1"))
	mustDo(t, src.CreatePrim("/target1", domain.SpecifierDef, "Xform"))
	mustDo(t, src.SetAttribute("/target1", "attr", "double", domain.Double(1.234)))
	mustDo(t, src.SetAttribute("/target1", "count", "int", domain.Int(7)))
	mustDo(t, src.SetAttribute("/target1", "visible", "bool", domain.Bool(true)))
	mustDo(t, src.SetAttribute("/target1", "label", "string", domain.String("chair")))
	mustDo(t, src.SetAttribute("/target1", "purpose", "token", domain.Token("render")))
	mustDo(t, src.SetAttribute("/target1", "texture", "asset", domain.Asset("wood.png")))
	mustDo(t, src.CreatePrim("/target1/child", domain.SpecifierOver, ""))
	mustDo(t, src.AppendReference("/src", domain.NewReference("other.json",
		domain.WithTargetPath("/trg"), domain.WithTimeTransform(1.25, 2))))
	mustDo(t, src.AppendReference("/src", domain.NewReference("", domain.WithTargetPath("/target1"))))
	mustDo(t, src.AppendReference("/src", domain.NewReference("pathless.json")))

	// 1. Round trip
	t.Run("RoundTrip", func(t *testing.T) {
		data, err := backend.Serialize(src)
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		got, err := backend.Parse(id, data)
		if err != nil {
			t.Fatalf("Parse: %v\n%s", err, data)
		}

		if got.Identifier() != id {
			t.Errorf("identifier = %q, want %q", got.Identifier(), id)
		}
		if got.DefaultTarget() != "target1" {
			t.Errorf("default target = %q, want target1", got.DefaultTarget())
		}

		wantPaths := src.Paths()
		gotPaths := got.Paths()
		if len(gotPaths) != len(wantPaths) {
			t.Fatalf("paths = %v, want %v", gotPaths, wantPaths)
		}

		for _, p := range wantPaths {
			want, _ := src.Prim(p)
			have, ok := got.Prim(p)
			if !ok {
				t.Errorf("prim %s missing after round trip", p)
				continue
			}
			if have.Specifier != want.Specifier || have.TypeName != want.TypeName {
				t.Errorf("prim %s: got %s %q, want %s %q", p, have.Specifier, have.TypeName, want.Specifier, want.TypeName)
			}
			if len(have.References) != len(want.References) {
				t.Errorf("prim %s: %d references, want %d", p, len(have.References), len(want.References))
				continue
			}
			for i := range want.References {
				if !have.References[i].Equal(want.References[i]) {
					t.Errorf("prim %s ref %d: got %s, want %s", p, i, have.References[i], want.References[i])
				}
			}
			for name, attr := range want.Attributes {
				v, ok := got.AttributeValue(p, name)
				if !ok || !v.Equal(*attr.Default) {
					t.Errorf("prim %s attr %s: got %v, want %v", p, name, v, *attr.Default)
				}
			}
		}
	})

	// 2. Empty layer
	t.Run("EmptyLayer", func(t *testing.T) {
		data, err := backend.Serialize(layer.New(id))
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		got, err := backend.Parse(id, data)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if len(got.Paths()) != 0 || got.DefaultTarget() != "" {
			t.Errorf("expected empty layer, got %v / %q", got.Paths(), got.DefaultTarget())
		}
	})

	// 3. Garbage input
	t.Run("InvalidInput", func(t *testing.T) {
		if _, err := backend.Parse(id, []byte("\x00{[not a document")); err == nil {
			t.Error("expected error for invalid input, got nil")
		}
	})
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
}
