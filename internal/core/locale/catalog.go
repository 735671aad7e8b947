// Package locale translates user-visible messages (filter and rule names)
// into the language negotiated for a request.
package locale

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"golang.org/x/text/language"
)

// Catalog holds message translations per language.
// The first language is the fallback and translates every message to itself.
type Catalog struct {
	mu       sync.RWMutex
	tags     []language.Tag
	messages map[language.Tag]map[string]string
	matcher  language.Matcher
}

// New creates a catalog whose untranslated messages are in fallback.
func New(fallback language.Tag) *Catalog {
	c := &Catalog{
		tags:     []language.Tag{fallback},
		messages: map[language.Tag]map[string]string{fallback: {}},
	}
	c.matcher = language.NewMatcher(c.tags)
	return c
}

// Add merges translations for a language.
func (c *Catalog) Add(tag language.Tag, messages map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.messages[tag]
	if !ok {
		m = make(map[string]string, len(messages))
		c.messages[tag] = m
		c.tags = append(c.tags, tag)
		c.matcher = language.NewMatcher(c.tags)
	}
	for id, s := range messages {
		m[id] = s
	}
}

// LoadJSON reads a flat {"msgid": "translation"} object for a language.
func (c *Catalog) LoadJSON(tag language.Tag, r io.Reader) error {
	var messages map[string]string
	if err := json.NewDecoder(r).Decode(&messages); err != nil {
		return fmt.Errorf("decode %s messages: %w", tag, err)
	}
	c.Add(tag, messages)
	return nil
}

// Languages returns the supported languages, fallback first.
func (c *Catalog) Languages() []language.Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]language.Tag(nil), c.tags...)
}

// Match picks the supported language best matching an Accept-Language value
// or a plain tag ("de", "fr-CA"). Unparseable input gets the fallback.
func (c *Catalog) Match(accept string) language.Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()

	prefs, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(prefs) == 0 {
		return c.tags[0]
	}
	_, idx, conf := c.matcher.Match(prefs...)
	if conf == language.No {
		return c.tags[0]
	}
	return c.tags[idx]
}

// Translator returns the translator for a supported language. Other tags get
// the fallback.
func (c *Catalog) Translator(tag language.Tag) *Translator {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if m, ok := c.messages[tag]; ok {
		return &Translator{tag: tag, messages: m, mu: &c.mu}
	}
	return &Translator{tag: c.tags[0], messages: c.messages[c.tags[0]], mu: &c.mu}
}

// For negotiates the language for an Accept-Language value and returns its translator.
func (c *Catalog) For(accept string) *Translator {
	return c.Translator(c.Match(accept))
}

// Translator translates message ids into one language.
type Translator struct {
	tag      language.Tag
	messages map[string]string
	mu       *sync.RWMutex
}

// Tag returns the translator's language.
func (t *Translator) Tag() language.Tag {
	return t.tag
}

// Gettext returns the translation of msgid, or msgid itself.
func (t *Translator) Gettext(msgid string) string {
	if t == nil {
		return msgid
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.messages[msgid]; ok && s != "" {
		return s
	}
	return msgid
}
