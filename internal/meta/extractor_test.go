package meta

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCoverStoreDeduplicates(t *testing.T) {
	store, err := NewCoverStore(filepath.Join(t.TempDir(), "covers"))
	if err != nil {
		t.Fatal(err)
	}

	img := []byte("not-really-a-jpeg-but-bytes-are-bytes")

	a, err := store.Add(img, "image/jpeg", nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := store.Add(img, "image/jpeg", nil)
	if err != nil {
		t.Fatal(err)
	}

	if a.Hash != b.Hash {
		t.Errorf("identical bytes produced different hashes: %s vs %s", a.Hash, b.Hash)
	}
	if a.Path != b.Path {
		t.Errorf("identical bytes produced different paths: %s vs %s", a.Path, b.Path)
	}

	entries, err := os.ReadDir(filepath.Dir(a.Path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 stored cover, found %d", len(entries))
	}

	other, err := store.Add([]byte("different image"), "image/png", nil)
	if err != nil {
		t.Fatal(err)
	}
	if other.Hash == a.Hash {
		t.Error("different bytes must not collide")
	}
	if filepath.Ext(other.Path) != ".png" {
		t.Errorf("png cover stored as %s", other.Path)
	}
}

func TestPopmScore(t *testing.T) {
	testCases := []struct {
		name  string
		frame interface{}
		want  uint8
		ok    bool
	}{
		{name: "typical frame", frame: []byte("user@example.com\x00\xc0\x00\x00\x00\x01"), want: 0xc0, ok: true},
		{name: "empty email", frame: []byte("\x00\xff"), want: 0xff, ok: true},
		{name: "no separator", frame: []byte("user@example.com"), ok: false},
		{name: "separator at end", frame: []byte("user\x00"), ok: false},
		{name: "wrong type", frame: "string", ok: false},
		{name: "nil", frame: nil, ok: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := popmScore(tc.frame)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Errorf("score = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestOptHelpers(t *testing.T) {
	if optStr("") != nil {
		t.Error("empty string should map to nil")
	}
	if s := optStr("x"); s == nil || *s != "x" {
		t.Error("non-empty string should round-trip")
	}
	if optInt(0) != nil {
		t.Error("zero should map to nil")
	}
	if optInt(-3) != nil {
		t.Error("negative should map to nil")
	}
	if n := optInt(7); n == nil || *n != 7 {
		t.Error("positive int should round-trip")
	}
}

func TestPublisherFromRaw(t *testing.T) {
	if p := publisherFromRaw(map[string]interface{}{"TPUB": "Some Label"}); p == nil || *p != "Some Label" {
		t.Error("TPUB frame not picked up")
	}
	if p := publisherFromRaw(map[string]interface{}{"publisher": "Vorbis Label"}); p == nil || *p != "Vorbis Label" {
		t.Error("vorbis publisher comment not picked up")
	}
	if p := publisherFromRaw(map[string]interface{}{}); p != nil {
		t.Error("missing publisher should be nil")
	}
	if p := publisherFromRaw(map[string]interface{}{"TPUB": 42}); p != nil {
		t.Error("non-string frame should be ignored")
	}
}

func TestProducerFromRaw(t *testing.T) {
	if p := producerFromRaw(map[string]interface{}{"PRODUCER": "Rick Rubin"}); p == nil || *p != "Rick Rubin" {
		t.Error("vorbis PRODUCER comment not picked up")
	}
	tipl := "producer\x00Nigel Godrich\x00engineer\x00Someone Else\x00Producer\x00Rick Rubin"
	if p := producerFromRaw(map[string]interface{}{"TIPL": tipl}); p == nil || *p != "Nigel Godrich, Rick Rubin" {
		t.Errorf("TIPL producers = %v, want both producer entries", p)
	}
	ipls := "producer/Butch Vig/mixer/Andy Wallace"
	if p := producerFromRaw(map[string]interface{}{"IPLS": ipls}); p == nil || *p != "Butch Vig" {
		t.Errorf("IPLS producer = %v, want Butch Vig", p)
	}
	if p := producerFromRaw(map[string]interface{}{"TIPL": "engineer\x00Someone"}); p != nil {
		t.Errorf("no producer role should be nil, got %v", p)
	}
	if p := producerFromRaw(map[string]interface{}{}); p != nil {
		t.Error("missing producer should be nil")
	}
}

func TestReleaseTypeFromRaw(t *testing.T) {
	if rt := releaseTypeFromRaw(map[string]interface{}{"RELEASETYPE": "ep"}); rt == nil || *rt != "ep" {
		t.Error("RELEASETYPE comment not picked up")
	}
	if rt := releaseTypeFromRaw(map[string]interface{}{"MUSICBRAINZ_ALBUMTYPE": "compilation"}); rt == nil || *rt != "compilation" {
		t.Error("MUSICBRAINZ_ALBUMTYPE comment not picked up")
	}
	if rt := releaseTypeFromRaw(map[string]interface{}{}); rt != nil {
		t.Error("missing release type should be nil")
	}
}
