package library

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func solid(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestNew_TemplateIDs(t *testing.T) {
	img := solid(4, 4, color.White)
	lib, err := New([]Template{
		{ID: "minion_Zapp", Image: img},
		{ID: "hero_Reno", Image: img},
		{ID: "minion_Alleycat", Image: img},
		{ID: "minion_Murloc", Image: img},
	}, nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{CategoryMinion.Prefix(), []string{"minion_Alleycat", "minion_Murloc", "minion_Zapp"}},
		{CategoryHero.Prefix(), []string{"hero_Reno"}},
		{"spell_", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got := lib.TemplateIDs(tt.prefix)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TemplateIDs(%q): got %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}

	if _, ok := lib.Template("minion_Murloc"); !ok {
		t.Error("Template(minion_Murloc) not found")
	}
	if _, ok := lib.Template("minion_Nope"); ok {
		t.Error("Template(minion_Nope) should not exist")
	}
}

func TestNew_Errors(t *testing.T) {
	img := solid(2, 2, color.Black)

	tests := []struct {
		name      string
		templates []Template
	}{
		{"duplicate id", []Template{{ID: "minion_A", Image: img}, {ID: "minion_A", Image: img}}},
		{"missing id", []Template{{Image: img}}},
		{"missing image", []Template{{ID: "minion_A"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.templates, nil, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMetadataLookup(t *testing.T) {
	lib, err := New(nil,
		[]MinionRecord{
			{Name: "Alleycat", Attack: 1, Health: 1, Tier: 1, Tribe: "beast"},
			{Name: "ALLEYCAT", Attack: 9, Health: 9, Tier: 6, Tribe: "beast"},
			{Name: "", Attack: 5},
		},
		[]HeroRecord{{Name: "Reno Jackson", Health: 40, Armor: 5}},
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for _, name := range []string{"Alleycat", "alleycat", "ALLEYCAT"} {
		m, ok := lib.Minion(name)
		if !ok {
			t.Errorf("Minion(%q) not found", name)
			continue
		}
		if m.Attack != 1 || m.Tier != 1 {
			t.Errorf("Minion(%q): got %+v, want first record", name, m)
		}
	}

	// Only case is folded; surrounding spaces are part of the name.
	if _, ok := lib.Minion(" alleycat "); ok {
		t.Error(`Minion(" alleycat ") should not match "Alleycat"`)
	}

	if _, ok := lib.Minion("Kalecgos"); ok {
		t.Error("Minion(Kalecgos) should not exist")
	}

	h, ok := lib.Hero("reno jackson")
	if !ok || h.Armor != 5 {
		t.Errorf("Hero(reno jackson): got %+v, %v", h, ok)
	}

	stats := lib.Stats()
	if stats.Minions != 1 || stats.Heroes != 1 || stats.Templates != 0 {
		t.Errorf("Stats: got %+v", stats)
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, solid(8, 8, color.RGBA{200, 10, 10, 255})); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "media")
	writePNG(t, filepath.Join(media, "minions", "Alleycat.png"))
	writePNG(t, filepath.Join(media, "minions", "Murloc Tidehunter.png"))
	writePNG(t, filepath.Join(media, "heroes", "Reno Jackson.png"))

	minions := filepath.Join(dir, "minions.json")
	if err := os.WriteFile(minions, []byte(`[
		{"name": "Alleycat", "attack": 1, "health": 1, "tier": 1, "tribe": "beast"},
		{"name": "Murloc Tidehunter", "attack": 2, "health": 1, "tier": 1, "tribe": "murloc"}
	]`), 0o644); err != nil {
		t.Fatal(err)
	}

	lib, err := Load(LoadOptions{
		TemplateDir: media,
		MinionsPath: minions,
		HeroesPath:  filepath.Join(dir, "missing-heroes.json"),
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	wantIDs := []string{"minion_Alleycat", "minion_Murloc Tidehunter"}
	if got := lib.TemplateIDs(CategoryMinion.Prefix()); !reflect.DeepEqual(got, wantIDs) {
		t.Errorf("minion ids: got %v, want %v", got, wantIDs)
	}
	if got := lib.TemplateIDs(CategoryHero.Prefix()); !reflect.DeepEqual(got, []string{"hero_Reno Jackson"}) {
		t.Errorf("hero ids: got %v", got)
	}

	m, ok := lib.Minion("murloc tidehunter")
	if !ok || m.Tribe != "murloc" || m.Attack != 2 {
		t.Errorf("Minion(murloc tidehunter): got %+v, %v", m, ok)
	}
	if lib.Stats().Heroes != 0 {
		t.Errorf("missing heroes file should yield no records, got %d", lib.Stats().Heroes)
	}
}

func TestLoad_MissingDirectories(t *testing.T) {
	lib, err := Load(LoadOptions{TemplateDir: filepath.Join(t.TempDir(), "nothing")})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := lib.Stats(); got != (Stats{}) {
		t.Errorf("Stats: got %+v, want empty", got)
	}
}

func TestLoad_MalformedMetadata(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "minions.json")
	if err := os.WriteFile(bad, []byte(`{"name": `), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(LoadOptions{TemplateDir: dir, MinionsPath: bad}); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
