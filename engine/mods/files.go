package mods

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Carmen-Shannon/oxy-rt/engine/light"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-rt/engine/texture"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	LevelLightsFile = "level_lights.json"
	GeoLayoutsFile  = "geo_layout_mods.json"
	TexturesFile    = "texture_mods.json"
)

// Files names the three override files.
type Files struct {
	LevelLights string
	GeoLayouts  string
	Textures    string
}

// DefaultFiles returns the standard file names inside dir.
func DefaultFiles(dir string) Files {
	return Files{
		LevelLights: filepath.Join(dir, LevelLightsFile),
		GeoLayouts:  filepath.Join(dir, GeoLayoutsFile),
		Textures:    filepath.Join(dir, TexturesFile),
	}
}

// Paths returns the configured paths, skipping empty ones.
func (f Files) Paths() []string {
	out := make([]string, 0, 3)
	for _, p := range []string{f.LevelLights, f.GeoLayouts, f.Textures} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

type nameRef struct {
	Name string `json:"name"`
}

// modJSON is one entry of the layout or texture mod files.
type modJSON struct {
	Name                 string             `json:"name"`
	MaterialMod          *material.Material `json:"materialMod,omitempty"`
	LightMod             *light.Light       `json:"lightMod,omitempty"`
	NormalMapMod         *nameRef           `json:"normalMapMod,omitempty"`
	SpecularMapMod       *nameRef           `json:"specularMapMod,omitempty"`
	InterpolationEnabled *bool              `json:"interpolationEnabled,omitempty"`
	Aliases              []string           `json:"aliases,omitempty"`
}

type geoLayoutsJSON struct {
	GeoLayouts []modJSON `json:"geoLayouts"`
}

type texturesJSON struct {
	Textures []modJSON `json:"textures"`
}

type levelLightsJSON struct {
	Levels []levelJSON `json:"levels"`
}

type levelJSON struct {
	ID    int        `json:"id"`
	Areas []areaJSON `json:"areas"`
}

type areaJSON struct {
	ID     int           `json:"id"`
	Lights []light.Light `json:"lights"`
}

func (s *Store) decodeMod(j modJSON) *Mod {
	m := New()
	m.Material = j.MaterialMod
	m.Light = j.LightMod
	if j.NormalMapMod != nil && j.NormalMapMod.Name != "" {
		m.NormalMap = s.names.Hash(j.NormalMapMod.Name)
	}
	if j.SpecularMapMod != nil && j.SpecularMapMod.Name != "" {
		m.SpecularMap = s.names.Hash(j.SpecularMapMod.Name)
	}
	if j.InterpolationEnabled != nil {
		m.Interpolate = *j.InterpolationEnabled
	}
	return m
}

func (s *Store) encodeMod(name string, m *Mod) modJSON {
	j := modJSON{
		Name:        name,
		MaterialMod: m.Material,
		LightMod:    m.Light,
	}
	if n, ok := s.names.Name(m.NormalMap); ok && m.NormalMap != 0 {
		j.NormalMapMod = &nameRef{Name: n}
	}
	if n, ok := s.names.Name(m.SpecularMap); ok && m.SpecularMap != 0 {
		j.SpecularMapMod = &nameRef{Name: n}
	}
	if !m.Interpolate {
		f := false
		j.InterpolationEnabled = &f
	}
	return j
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadGeoLayouts replaces the layout scope with the contents of path. On error the scope is untouched.
//
// Parameters:
//   - path: the geometry layout mod file
//
// Returns:
//   - error: read or decode failures; a missing file wraps os.ErrNotExist
func (s *Store) LoadGeoLayouts(path string) error {
	var file geoLayoutsJSON
	if err := readJSON(path, &file); err != nil {
		return err
	}
	layouts := make(map[string]*Mod, len(file.GeoLayouts))
	for _, j := range file.GeoLayouts {
		if j.Name == "" {
			s.logger.Error("geometry layout mod without a name", zap.String("path", path))
			continue
		}
		if s.known != nil {
			if _, ok := s.known[j.Name]; !ok {
				s.logger.Error("unknown geometry layout in mod file", zap.String("path", path), zap.String("layout", j.Name))
				continue
			}
		}
		layouts[j.Name] = s.decodeMod(j)
	}
	s.replaceLayouts(layouts)
	s.logger.Debug("loaded geometry layout mods", zap.String("path", path), zap.Int("count", len(layouts)))
	return nil
}

// SaveGeoLayouts writes the layout scope to path, sorted by layout name.
func (s *Store) SaveGeoLayouts(path string) error {
	s.mu.RLock()
	file := geoLayoutsJSON{GeoLayouts: make([]modJSON, 0, len(s.layouts))}
	for name, m := range s.layouts {
		file.GeoLayouts = append(file.GeoLayouts, s.encodeMod(name, m))
	}
	s.mu.RUnlock()
	sort.Slice(file.GeoLayouts, func(i, j int) bool { return file.GeoLayouts[i].Name < file.GeoLayouts[j].Name })
	return writeJSON(path, file)
}

// LoadTextureMods replaces the texture scope and aliases with the contents of path. On error the scope is
// untouched.
//
// Parameters:
//   - path: the texture mod file
//
// Returns:
//   - error: read or decode failures; a missing file wraps os.ErrNotExist
func (s *Store) LoadTextureMods(path string) error {
	var file texturesJSON
	if err := readJSON(path, &file); err != nil {
		return err
	}
	textures := make(map[texture.Hash]*Mod, len(file.Textures))
	var aliases [][2]texture.Hash
	for _, j := range file.Textures {
		if j.Name == "" {
			s.logger.Error("texture mod without a name", zap.String("path", path))
			continue
		}
		h := s.names.Hash(j.Name)
		textures[h] = s.decodeMod(j)
		for _, alias := range j.Aliases {
			aliases = append(aliases, [2]texture.Hash{s.names.Hash(alias), h})
		}
	}
	s.replaceTextures(textures, aliases)
	s.logger.Debug("loaded texture mods", zap.String("path", path), zap.Int("count", len(textures)), zap.Int("aliases", len(aliases)))
	return nil
}

// SaveTextureMods writes the texture scope to path, sorted by texture name. Mods whose texture name was
// never seen are skipped.
func (s *Store) SaveTextureMods(path string) error {
	s.mu.RLock()
	file := texturesJSON{Textures: make([]modJSON, 0, len(s.textures))}
	for h, m := range s.textures {
		name, ok := s.names.Name(h)
		if !ok {
			s.logger.Warn("skipping texture mod with unknown name", zap.Uint64("hash", uint64(h)))
			continue
		}
		j := s.encodeMod(name, m)
		for _, a := range s.aliases[h] {
			if an, ok := s.names.Name(a); ok {
				j.Aliases = append(j.Aliases, an)
			}
		}
		file.Textures = append(file.Textures, j)
	}
	s.mu.RUnlock()
	sort.Slice(file.Textures, func(i, j int) bool { return file.Textures[i].Name < file.Textures[j].Name })
	return writeJSON(path, file)
}

// LoadLevelLights reads a level lighting table from path. Areas the file does not mention keep the default
// lights; entries outside the table bounds are logged and skipped.
//
// Parameters:
//   - path: the level lights file
//   - logger: receives diagnostics for skipped entries
//
// Returns:
//   - *light.Levels: a new table, selection at (0, 0)
//   - error: read or decode failures; a missing file wraps os.ErrNotExist
func LoadLevelLights(path string, logger *zap.Logger) (*light.Levels, error) {
	var file levelLightsJSON
	if err := readJSON(path, &file); err != nil {
		return nil, err
	}
	levels := light.NewLevels()
	for _, lv := range file.Levels {
		for _, area := range lv.Areas {
			if err := levels.SetArea(lv.ID, area.ID, area.Lights); err != nil {
				logger.Error("skipping level lights", zap.String("path", path), zap.Int("level", lv.ID), zap.Int("area", area.ID), zap.Error(err))
			}
		}
	}
	return levels, nil
}

// SaveLevelLights writes every level and area of levels to path.
func SaveLevelLights(path string, levels *light.Levels) error {
	file := levelLightsJSON{Levels: make([]levelJSON, 0, light.MaxLevels)}
	for l := 0; l < light.MaxLevels; l++ {
		lv := levelJSON{ID: l, Areas: make([]areaJSON, 0, light.MaxAreas)}
		for a := 0; a < light.MaxAreas; a++ {
			lights, err := levels.Area(l, a)
			if err != nil {
				return err
			}
			lv.Areas = append(lv.Areas, areaJSON{ID: a, Lights: append([]light.Light{}, lights...)})
		}
		file.Levels = append(file.Levels, lv)
	}
	return writeJSON(path, file)
}

// LoadAll loads the layout and texture mods and the level lights. A missing file is logged at Warn and the
// affected scope keeps its defaults; other failures are logged at Error.
//
// Parameters:
//   - files: the file paths; empty paths are skipped
//
// Returns:
//   - *light.Levels: the loaded level table, or the default table if it could not be read
func (s *Store) LoadAll(files Files) *light.Levels {
	if files.GeoLayouts != "" {
		s.report(files.GeoLayouts, s.LoadGeoLayouts(files.GeoLayouts))
	}
	if files.Textures != "" {
		s.report(files.Textures, s.LoadTextureMods(files.Textures))
	}
	if files.LevelLights == "" {
		return light.NewLevels()
	}
	levels, err := LoadLevelLights(files.LevelLights, s.logger)
	s.report(files.LevelLights, err)
	if err != nil {
		return light.NewLevels()
	}
	return levels
}

func (s *Store) report(path string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		s.logger.Warn("mod file not found, using defaults", zap.String("path", path))
	default:
		s.logger.Error("failed to load mod file", zap.String("path", path), zap.Error(err))
	}
}

// SaveAll writes the layout mods, texture mods and level lights. Every file is attempted; the returned
// error joins the individual failures.
func (s *Store) SaveAll(files Files, levels *light.Levels) error {
	var errs []error
	if files.GeoLayouts != "" {
		errs = append(errs, s.SaveGeoLayouts(files.GeoLayouts))
	}
	if files.Textures != "" {
		errs = append(errs, s.SaveTextureMods(files.Textures))
	}
	if files.LevelLights != "" && levels != nil {
		errs = append(errs, SaveLevelLights(files.LevelLights, levels))
	}
	err := errors.Join(errs...)
	if err != nil {
		s.logger.Error("failed to save mods", zap.Error(err))
	} else {
		s.logger.Info("saved mods", zap.Strings("paths", files.Paths()))
	}
	return err
}
