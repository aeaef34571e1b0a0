package withdrawal

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/magiconair/properties"
)

const (
	DefaultLang        = "en"
	langFolder         = "lang"
	langFilePrefix     = "messages_"
	langFileSuffix     = ".properties"
	missingTranslation = "§cMissing translation for key: "
)

//go:embed lang/*.properties
var defaultLangFiles embed.FS

// LanguageCatalog serves messages from lang/messages_<lang>.properties in the data folder.
type LanguageCatalog struct {
	dir      string
	logger   runtime.Logger
	messages map[string]*properties.Properties
	watcher  *fsnotify.Watcher
}

// NewLanguageCatalog seeds the bundled languages that are missing on disk and loads every
// language file found in the lang folder.
func NewLanguageCatalog(plugin Plugin) (*LanguageCatalog, error) {
	c := &LanguageCatalog{
		dir:      filepath.Join(plugin.DataFolder(), langFolder),
		logger:   plugin.Logger(),
		messages: make(map[string]*properties.Properties),
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lang folder: %w", err)
	}
	c.seedDefaults()
	if err := c.Load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *LanguageCatalog) seedDefaults() {
	entries, err := fs.ReadDir(defaultLangFiles, langFolder)
	if err != nil {
		c.logger.Error("Could not list bundled language files: %v", err)
		return
	}
	for _, e := range entries {
		dst := filepath.Join(c.dir, e.Name())
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		data, err := defaultLangFiles.ReadFile(langFolder + "/" + e.Name())
		if err == nil {
			err = os.WriteFile(dst, data, 0o644)
		}
		if err != nil {
			c.logger.Error("Could not save default language file %s: %v", e.Name(), err)
		}
	}
}

// Load replaces the catalog with the language files currently on disk. A file that fails to
// parse is skipped.
func (c *LanguageCatalog) Load() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("read lang folder: %w", err)
	}

	messages := make(map[string]*properties.Properties)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, langFilePrefix) || !strings.HasSuffix(name, langFileSuffix) {
			continue
		}
		lang := strings.TrimSuffix(strings.TrimPrefix(name, langFilePrefix), langFileSuffix)
		p, err := properties.LoadFile(filepath.Join(c.dir, name), properties.UTF8)
		if err != nil {
			c.logger.Error("Could not load language file %s: %v", name, err)
			continue
		}
		p.DisableExpansion = true
		messages[strings.ToLower(lang)] = p
		c.logger.Info("Loaded language: %s", lang)
	}
	c.messages = messages
	return nil
}

// Languages lists the loaded language tags.
func (c *LanguageCatalog) Languages() []string {
	langs := make([]string, 0, len(c.messages))
	for lang := range c.messages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Get returns the message for key in lang, falling back to the primary language subtag, then to
// English, then to a missing translation marker. Placeholders replace {name} tokens and &-colour
// codes are translated.
func (c *LanguageCatalog) Get(lang, key string, placeholders map[string]string) string {
	message, ok := c.lookup(lang, key)
	if !ok {
		message = missingTranslation + key
	}

	names := make([]string, 0, len(placeholders))
	for name := range placeholders {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		message = strings.ReplaceAll(message, "{"+name+"}", placeholders[name])
	}
	return translateColorCodes('&', message)
}

func (c *LanguageCatalog) lookup(lang, key string) (string, bool) {
	lang = strings.ToLower(lang)
	candidates := []string{lang}
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		candidates = append(candidates, lang[:i])
	}
	candidates = append(candidates, DefaultLang)

	for _, candidate := range candidates {
		if p, ok := c.messages[candidate]; ok {
			if v, ok := p.Get(key); ok {
				return v, true
			}
		}
	}
	return "", false
}

// Watch starts watching the lang folder. Changes are applied by ReloadIfChanged.
func (c *LanguageCatalog) Watch() error {
	if c.watcher != nil {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(c.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", c.dir, err)
	}
	c.watcher = watcher
	return nil
}

// ReloadIfChanged drains pending watcher events without blocking and reloads the catalog when a
// language file was written, created or removed. It reports whether a reload happened.
func (c *LanguageCatalog) ReloadIfChanged() bool {
	if c.watcher == nil {
		return false
	}

	changed := false
	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				c.watcher = nil
				return c.reload(changed)
			}
			if strings.HasSuffix(event.Name, langFileSuffix) && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				changed = true
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				c.watcher = nil
				return c.reload(changed)
			}
			c.logger.Warn("Language folder watcher error: %v", err)
		default:
			return c.reload(changed)
		}
	}
}

func (c *LanguageCatalog) reload(changed bool) bool {
	if !changed {
		return false
	}
	if err := c.Load(); err != nil {
		c.logger.Warn("Failed to reload languages: %v", err)
		return false
	}
	return true
}

func (c *LanguageCatalog) Close() error {
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	if errors.Is(err, fsnotify.ErrClosed) {
		return nil
	}
	return err
}

const colorCodes = "0123456789AaBbCcDdEeFfKkLlMmNnOoRr"

// translateColorCodes rewrites alt-prefixed colour codes such as "&a" to the section sign form.
func translateColorCodes(alt rune, text string) string {
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		if runes[i] == alt && strings.ContainsRune(colorCodes, runes[i+1]) {
			runes[i] = '§'
			runes[i+1] = []rune(strings.ToLower(string(runes[i+1])))[0]
		}
	}
	return string(runes)
}
