package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/tavern-watch/internal/imaging"
)

// LoadOptions locates the on-disk template images and metadata files.
type LoadOptions struct {
	// TemplateDir contains "heroes" and "minions" subdirectories of images.
	TemplateDir string

	// MinionsPath and HeroesPath are JSON arrays of metadata records.
	MinionsPath string
	HeroesPath  string

	// Cache decodes images; a fresh cache is used when nil.
	Cache *imaging.ImageCache
}

// Load reads templates and metadata from disk and builds a library.
//
// Image files under <TemplateDir>/heroes become "hero_<stem>" templates and
// files under <TemplateDir>/minions become "minion_<stem>". Missing
// directories and missing metadata files contribute nothing; unreadable images
// and malformed JSON are errors.
func Load(opts LoadOptions) (*Library, error) {
	cache := opts.Cache
	if cache == nil {
		cache = imaging.NewImageCache()
	}

	var templates []Template
	for _, dir := range []struct {
		sub string
		cat Category
	}{
		{"heroes", CategoryHero},
		{"minions", CategoryMinion},
	} {
		loaded, err := loadTemplates(cache, filepath.Join(opts.TemplateDir, dir.sub), dir.cat)
		if err != nil {
			return nil, err
		}
		templates = append(templates, loaded...)
	}

	var minions []MinionRecord
	if err := readRecords(opts.MinionsPath, &minions); err != nil {
		return nil, err
	}
	var heroes []HeroRecord
	if err := readRecords(opts.HeroesPath, &heroes); err != nil {
		return nil, err
	}

	return New(templates, minions, heroes)
}

func loadTemplates(cache *imaging.ImageCache, dir string, cat Category) ([]Template, error) {
	paths, err := imaging.ListImages(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	templates := make([]Template, 0, len(paths))
	for _, p := range paths {
		img, err := cache.Load(p)
		if err != nil {
			return nil, err
		}
		stem := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		templates = append(templates, Template{ID: TemplateID(cat, stem), Image: img})
	}
	return templates, nil
}

func readRecords(path string, dst any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read metadata: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return nil
}
