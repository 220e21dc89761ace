package scene

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"reelcast/internal/services"
)

// StyleCustom marks a scene whose description is supplied by the caller.
const StyleCustom = "custom"

// Style is one canned backdrop.
type Style struct {
	ID          string   `yaml:"id" json:"id"`
	Label       string   `yaml:"label,omitempty" json:"label"`
	Aliases     []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Description string   `yaml:"description" json:"description"`
}

var builtinStyles = []Style{
	{
		ID:          "podcast_studio",
		Aliases:     []string{"studio", "podcast"},
		Description: "a professional podcast studio with acoustic foam panels, a broadcast microphone on a boom arm and warm key lighting",
	},
	{
		ID:          "office",
		Description: "a modern office with floor-to-ceiling windows, a tidy desk and soft natural daylight",
	},
	{
		ID:          "outdoor",
		Aliases:     []string{"park"},
		Description: "an outdoor park with trees swaying gently in the breeze under golden-hour sunlight",
	},
	{
		ID:          "news_desk",
		Aliases:     []string{"news"},
		Description: "a television news desk with studio monitors behind the anchor and crisp broadcast lighting",
	},
	{
		ID:          "living_room",
		Aliases:     []string{"home"},
		Description: "a cozy living room with a bookshelf, a leafy plant and warm lamp light",
	},
	{
		ID:          "conference",
		Aliases:     []string{"stage"},
		Description: "a conference stage with a large presentation screen and an audience softly out of focus",
	},
	{
		ID:          StyleCustom,
		Description: "",
	},
}

// Catalog resolves style ids and aliases to descriptions.
type Catalog struct {
	styles map[string]Style
	alias  map[string]string
}

// NewCatalog returns the built-in style table.
func NewCatalog() *Catalog {
	c := &Catalog{styles: map[string]Style{}, alias: map[string]string{}}
	for _, style := range builtinStyles {
		c.add(style)
	}
	return c
}

func normalizeID(raw string) string {
	id := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(id)
}

func (c *Catalog) add(style Style) {
	style.ID = normalizeID(style.ID)
	if style.Label == "" {
		style.Label = cases.Title(language.English).String(strings.ReplaceAll(style.ID, "_", " "))
	}
	if existing, ok := c.styles[style.ID]; ok && style.Description == "" {
		style.Description = existing.Description
	}
	c.styles[style.ID] = style
	for _, alias := range style.Aliases {
		c.alias[normalizeID(alias)] = style.ID
	}
}

type catalogFile struct {
	Styles []Style `yaml:"styles"`
}

// LoadCatalog returns the built-in table extended and overridden by the YAML
// file at path. An empty path yields the built-in table.
func LoadCatalog(path string) (*Catalog, error) {
	c := NewCatalog()
	if strings.TrimSpace(path) == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene styles: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scene styles %s: %w", path, err)
	}
	for i, style := range file.Styles {
		if normalizeID(style.ID) == "" {
			return nil, fmt.Errorf("scene styles %s: entry %d has no id", path, i)
		}
		c.add(style)
	}
	return c, nil
}

// Lookup resolves an id or alias.
func (c *Catalog) Lookup(raw string) (Style, error) {
	id := normalizeID(raw)
	if target, ok := c.alias[id]; ok {
		id = target
	}
	style, ok := c.styles[id]
	if !ok {
		return Style{}, fmt.Errorf("%w: unknown scene style %q", services.ErrValidation, raw)
	}
	return style, nil
}

// Styles lists every style sorted by id.
func (c *Catalog) Styles() []Style {
	out := make([]Style, 0, len(c.styles))
	for _, style := range c.styles {
		out = append(out, style)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
