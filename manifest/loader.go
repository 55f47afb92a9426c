package manifest

import (
	"fmt"
	"os"

	"github.com/marcelsud/posthook/hook"
	"gopkg.in/yaml.v3"
)

/* Loader reads hook manifests, e.g. hooks.yaml:
 *
 *   hooks:
 *     - name: trial-reminder
 *       path: /webhooks/trial-reminder
 *       data: {user_id: 42}
 *       post_in: 3d
 */

// Config represents the structure of a manifest file
type Config struct {
	Hooks []Entry `yaml:"hooks"`
}

// Item is a validated manifest entry
type Item struct {
	Name    string
	Request hook.ScheduleRequest
}

// Loader holds the loaded entries in file order
type Loader struct {
	items  []Item
	byName map[string]int
}

func NewLoader() *Loader {
	return &Loader{
		byName: make(map[string]int),
	}
}

// Load reads, parses and validates a manifest file; nothing is kept on error
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading manifest file: %w", err)
	}
	return l.Parse(data)
}

func (l *Loader) Parse(data []byte) error {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing manifest YAML: %w", err)
	}
	if len(config.Hooks) == 0 {
		return fmt.Errorf("manifest has no hooks")
	}

	items := make([]Item, 0, len(config.Hooks))
	byName := make(map[string]int)
	for i, entry := range config.Hooks {
		req, err := entry.Request()
		if err != nil {
			return fmt.Errorf("validating %s: %w", entry.label(i), err)
		}
		if entry.Name != "" {
			if prev, dup := byName[entry.Name]; dup {
				return fmt.Errorf("validating %s: name already used by hook %d", entry.label(i), prev)
			}
			byName[entry.Name] = i
		}
		items = append(items, Item{Name: entry.Name, Request: req})
	}

	l.items = items
	l.byName = byName
	return nil
}

// Get retrieves an entry by its name
func (l *Loader) Get(name string) (Item, error) {
	i, exists := l.byName[name]
	if !exists {
		return Item{}, fmt.Errorf("hook not found in manifest: %s", name)
	}
	return l.items[i], nil
}

// List returns all entries in file order
func (l *Loader) List() []Item {
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Load is a shorthand for NewLoader followed by Loader.Load
func Load(filePath string) ([]Item, error) {
	l := NewLoader()
	if err := l.Load(filePath); err != nil {
		return nil, err
	}
	return l.List(), nil
}
