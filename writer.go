package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
)

func works_path(cfg FestivalConfig) string {
	return filepath.Join(STATE.OutDir, "src", "data", "works", cfg.Slug+".json")
}

func summary_path(cfg FestivalConfig) string {
	return filepath.Join(STATE.OutDir, "catch", cfg.Slug, cfg.Slug+"-scrape-summary.json")
}

func festivals_path() string {
	return filepath.Join(STATE.OutDir, "src", "data", "festivals.json")
}

// pretty-printed, trailing newline, full overwrite.
func write_json(path string, thing any) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	blob, err := json.MarshalIndent(thing, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(blob, '\n'), 0644)
}

func read_works(path string) ([]Work, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	blob, _ = elide_bom(blob)
	var works []Work
	err = json.Unmarshal(blob, &works)
	if err != nil {
		return nil, fmt.Errorf("existing works file is not valid JSON: %w", err)
	}
	return works, nil
}

// default mode rebuilds the file wholesale; a rerun is a full overwrite.
// patch mode instead folds freshly scraped non-empty fields over the
// existing records so manual fixes survive a rescrape.
func write_works(cfg FestivalConfig, works []Work) error {
	path := works_path(cfg)
	if STATE.Patch && path_exists(path) {
		existing, err := read_works(path)
		if err != nil {
			return err
		}
		works = merge_works(existing, works)
	}
	sort_works(works)
	return write_json(path, works)
}

func merge_works(existing, fresh []Work) []Work {
	by_id := map[string]Work{}
	order := []string{}
	for _, work := range existing {
		by_id[work.Id] = work
		order = append(order, work.Id)
	}
	for _, work := range fresh {
		old, present := by_id[work.Id]
		if !present {
			by_id[work.Id] = work
			order = append(order, work.Id)
			continue
		}
		merged := old
		err := mergo.Merge(&merged, work, mergo.WithOverride)
		if err != nil {
			// merge failure on one record shouldn't lose the scrape
			merged = work
		}
		by_id[work.Id] = merged
	}

	result := []Work{}
	for _, id := range unique(order) {
		result = append(result, by_id[id])
	}
	return result
}

func write_summary(cfg FestivalConfig, entries []SummaryEntry) error {
	return write_json(summary_path(cfg), entries)
}
