package msgcat

import (
    "embed"
    "errors"
    "fmt"
    "io/fs"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "sync"
    "text/template"

    yaml "gopkg.in/yaml.v3"
)

const defaultFile = "messages.en.yaml"

//go:embed messages.en.yaml
var defaultFiles embed.FS

// Catalog holds the bot's message templates: embedded defaults first, then
// optional overrides from a directory. Keys are flattened with dots
// ("rps.result.tie"). Rendering uses text/template with missingkey=error.
type Catalog struct {
    mu    sync.RWMutex
    data  map[string]string
    cache map[string]*template.Template
}

// New loads the embedded messages and applies overrides from dir when set.
func New(overrideDir string) (*Catalog, error) {
    c := &Catalog{data: make(map[string]string), cache: make(map[string]*template.Template)}

    if err := c.loadEmbedded(); err != nil {
        return nil, err
    }
    if strings.TrimSpace(overrideDir) != "" {
        if err := c.applyDir(overrideDir); err != nil {
            return nil, err
        }
    }
    return c, nil
}

func (c *Catalog) loadEmbedded() error {
    raw, err := fs.ReadFile(defaultFiles, defaultFile)
    if err != nil {
        return fmt.Errorf("read embedded messages: %w", err)
    }
    return c.applyYAML(raw)
}

func (c *Catalog) applyDir(dir string) error {
    entries, err := os.ReadDir(dir)
    if err != nil {
        return fmt.Errorf("read messages dir: %w", err)
    }
    files := make([]string, 0, len(entries))
    for _, e := range entries {
        if e.IsDir() {
            continue
        }
        ext := strings.ToLower(filepath.Ext(e.Name()))
        if ext == ".yaml" || ext == ".yml" {
            files = append(files, e.Name())
        }
    }
    sort.Strings(files)

    // a key may be overridden by one file only
    seen := make(map[string]string)
    for _, name := range files {
        b, err := os.ReadFile(filepath.Join(dir, name))
        if err != nil {
            return fmt.Errorf("read %s: %w", name, err)
        }
        flat, err := parseYAMLToFlat(b)
        if err != nil {
            return fmt.Errorf("parse %s: %w", name, err)
        }
        for k := range flat {
            if prev, ok := seen[k]; ok {
                return fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
            }
            seen[k] = name
        }
        c.merge(flat)
    }
    return nil
}

func (c *Catalog) applyYAML(b []byte) error {
    flat, err := parseYAMLToFlat(b)
    if err != nil {
        return err
    }
    c.merge(flat)
    return nil
}

func (c *Catalog) merge(flat map[string]string) {
    c.mu.Lock()
    for k, v := range flat {
        c.data[k] = v
        delete(c.cache, k)
    }
    c.mu.Unlock()
}

func parseYAMLToFlat(b []byte) (map[string]string, error) {
    var m map[string]any
    if err := yaml.Unmarshal(b, &m); err != nil {
        return nil, err
    }
    flat := make(map[string]string)
    if err := flattenStrings(m, "", flat); err != nil {
        return nil, err
    }
    return flat, nil
}

func flattenStrings(src any, prefix string, out map[string]string) error {
    switch v := src.(type) {
    case map[string]any:
        for k, vv := range v {
            key := k
            if prefix != "" {
                key = prefix + "." + k
            }
            if err := flattenStrings(vv, key, out); err != nil {
                return err
            }
        }
        return nil
    case []any:
        // lists become numbered keys: comments.tie -> comments.tie.1, comments.tie.2, ...
        for i, vv := range v {
            if err := flattenStrings(vv, fmt.Sprintf("%s.%d", prefix, i+1), out); err != nil {
                return err
            }
        }
        return nil
    case string:
        if prefix == "" {
            return errors.New("string value without key prefix")
        }
        out[prefix] = v
        return nil
    case nil:
        return nil
    default:
        return fmt.Errorf("unsupported value at %s: %T", prefix, v)
    }
}

// Has reports whether key exists.
func (c *Catalog) Has(key string) bool {
    c.mu.RLock()
    _, ok := c.data[strings.TrimSpace(key)]
    c.mu.RUnlock()
    return ok
}

// Keys returns the sorted keys directly under prefix (prefix + "." + leaf).
func (c *Catalog) Keys(prefix string) []string {
    p := strings.TrimSuffix(strings.TrimSpace(prefix), ".") + "."
    c.mu.RLock()
    out := make([]string, 0)
    for k := range c.data {
        if strings.HasPrefix(k, p) && !strings.Contains(k[len(p):], ".") {
            out = append(out, k)
        }
    }
    c.mu.RUnlock()
    sort.Strings(out)
    return out
}

// Render executes the template stored under key.
// Missing keys and missing template fields are errors; callers pick a fallback.
func (c *Catalog) Render(key string, data any) (string, error) {
    key = strings.TrimSpace(key)
    t, err := c.template(key)
    if err != nil {
        return "", err
    }
    var b strings.Builder
    if err := t.Execute(&b, data); err != nil {
        return "", err
    }
    return b.String(), nil
}

// RenderOr is Render with a literal fallback on any error.
func (c *Catalog) RenderOr(key string, data any, fallback string) string {
    s, err := c.Render(key, data)
    if err != nil {
        return fallback
    }
    return s
}

func (c *Catalog) template(key string) (*template.Template, error) {
    c.mu.RLock()
    t, cached := c.cache[key]
    tpl, ok := c.data[key]
    c.mu.RUnlock()
    if cached {
        return t, nil
    }
    if !ok || strings.TrimSpace(tpl) == "" {
        return nil, fmt.Errorf("template not found: %s", key)
    }
    t, err := template.New(key).Option("missingkey=error").Parse(tpl)
    if err != nil {
        return nil, err
    }
    c.mu.Lock()
    c.cache[key] = t
    c.mu.Unlock()
    return t, nil
}
