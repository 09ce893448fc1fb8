package textlayout

import (
	"testing"
)

func TestOTProviderFallsBackWithoutLibrary(t *testing.T) {
	p := OTProvider{}
	face, m := p.Resolve(FontSpec{Family: "Missing", SizePt: 14})
	if face == nil {
		t.Fatal("expected a fallback face")
	}
	bf, bm := BasicProvider{}.Resolve(FontSpec{Family: "Missing", SizePt: 14})
	if bf == nil {
		t.Fatal("basic provider returned nil face")
	}
	if m != bm {
		t.Fatalf("fallback metrics mismatch: %+v vs %+v", m, bm)
	}
}

func TestFontLibraryLoadRejectsMissingFile(t *testing.T) {
	lib := NewFontLibrary()
	if err := lib.LoadTTF("Nope", 400, false, "/does/not/exist.ttf"); err == nil {
		t.Fatal("expected error for missing font file")
	}
	// An empty library resolves through the fallback path.
	p := OTProvider{Lib: lib}
	if face, _ := p.Resolve(FontSpec{Family: "Nope"}); face == nil {
		t.Fatal("expected fallback face from empty library")
	}
}
