package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// the one persistent contract across every festival's output: the
// structural shape the (out-of-scope) site build consumes.

const WORK_SCHEMA = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["id", "festivalId", "title", "author"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"festivalId": {"type": "string", "minLength": 1},
		"no": {"type": "string"},
		"title": {"type": "string", "minLength": 1},
		"author": {"type": "string", "minLength": 1},
		"category": {"type": "string"},
		"engine": {"type": "string"},
		"streaming": {"type": "string"},
		"forum": {"type": "string", "format": "uri"},
		"authorComment": {"type": "string"},
		"hostComment": {"type": "string"},
		"icon": {"type": "string"},
		"ss": {"type": "array", "items": {"type": "string"}, "minItems": 1},
		"download": {
			"type": "object",
			"required": ["url"],
			"properties": {
				"url": {"type": "string", "format": "uri"},
				"broken": {"type": "boolean"}
			}
		},
		"detailDisabled": {"type": "boolean"}
	},
	"additionalProperties": false
}`

const FESTIVAL_SCHEMA = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["id", "year", "name", "slug", "type", "banners", "worksFile", "columns"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"year": {"type": "integer"},
		"name": {"type": "string", "minLength": 1},
		"slug": {"type": "string", "minLength": 1},
		"type": {"type": "string"},
		"banners": {"type": "array", "items": {"type": "string"}},
		"worksFile": {"type": "string", "minLength": 1},
		"columns": {"type": "array", "items": {"type": "string"}}
	}
}`

func compile_schema(name, raw string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.AssertFormat = true
	err := c.AddResource(name, strings.NewReader(raw))
	if err != nil {
		panic("bad embedded schema: " + err.Error())
	}
	return c.MustCompile(name)
}

var work_schema = compile_schema("work.schema.json", WORK_SCHEMA)
var festival_schema = compile_schema("festival.schema.json", FESTIVAL_SCHEMA)

// jsonschema validates decoded values, so structs round-trip through
// their JSON form first.
func validate_against(schema *jsonschema.Schema, thing any) error {
	blob, err := json.Marshal(thing)
	if err != nil {
		return err
	}
	var decoded any
	err = json.Unmarshal(blob, &decoded)
	if err != nil {
		return err
	}
	return schema.Validate(decoded)
}

func validate_work(work Work) error {
	return validate_against(work_schema, work)
}

// --- the `--validate` task

// validates the file's records as raw decoded JSON. decoding into `Work`
// first would mask exactly what the schema guards against: `omitempty`
// drops empty `ss` arrays and unmarshalling discards unknown fields.
func validate_works_file(path string) int {
	blob, err := os.ReadFile(path)
	if err != nil {
		slog.Error("unreadable works file", "path", path, "error", err)
		return 1
	}
	blob, _ = elide_bom(blob)
	var records []map[string]any
	err = json.Unmarshal(blob, &records)
	if err != nil {
		slog.Error("works file is not valid JSON", "path", path, "error", err)
		return 1
	}
	failures := 0
	for _, record := range records {
		err := validate_against(work_schema, record)
		if err != nil {
			slog.Error("work failed validation", "path", path, "id", record["id"], "error", err)
			failures += 1
		}
	}
	return failures
}

func validate_festivals_file(path string) int {
	blob, err := os.ReadFile(path)
	if err != nil {
		// the registry file is maintained by hand and may not exist yet
		slog.Warn("no festivals.json to validate", "path", path)
		return 0
	}
	var festivals []map[string]any
	err = json.Unmarshal(blob, &festivals)
	if err != nil {
		slog.Error("festivals.json is not valid JSON", "path", path, "error", err)
		return 1
	}
	failures := 0
	for _, festival := range festivals {
		err := validate_against(festival_schema, festival)
		if err != nil {
			slog.Error("festival failed validation", "id", festival["id"], "error", err)
			failures += 1
		}
	}
	return failures
}

// validates every produced works file plus the festival registry.
func task_validate() error {
	paths, err := filepath.Glob(filepath.Join(STATE.OutDir, "src", "data", "works", "*.json"))
	if err != nil {
		return err
	}
	failures := 0
	for _, path := range paths {
		failures += validate_works_file(path)
	}
	failures += validate_festivals_file(festivals_path())
	if failures > 0 {
		return fmt.Errorf("%d records failed validation", failures)
	}
	slog.Info("validation passed", "files", len(paths))
	return nil
}
