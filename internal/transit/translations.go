package transit

import "sync"

// Translations maps destination display names to their Irish
// localizations. It is process-wide shared state: route aggregation
// writes to it from whichever request completes a fetch first, and
// departure building reads it. The map grows monotonically for the
// process lifetime; destination names are near-static, so entries are
// never pruned.
type Translations struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewTranslations() *Translations {
	return &Translations{m: make(map[string]string)}
}

// Put records the Irish localization of name. Empty localizations are
// ignored.
func (t *Translations) Put(name, irish string) {
	if name == "" || irish == "" {
		return
	}
	t.mu.Lock()
	t.m[name] = irish
	t.mu.Unlock()
}

// Lookup returns the Irish localization of name, or "" when unknown.
func (t *Translations) Lookup(name string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m[name]
}

// Len returns the number of recorded translations.
func (t *Translations) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}
