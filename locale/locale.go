// Package locale resolves message keys to localized text and picks the
// response locale from an Accept-Language header.
package locale

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Catalog translates message keys. Keys without a translation in the
// requested locale fall back to the default locale and then to the key.
type Catalog struct {
	builder   *catalog.Builder
	matcher   language.Matcher
	supported []language.Tag
	fallback  language.Tag
}

// Option customizes a Catalog
type Option func(*config)

type config struct {
	fallback language.Tag
	extra    map[language.Tag]map[string]string
}

// WithDefault sets the fallback locale, English when unset
func WithDefault(locale string) Option {
	return func(c *config) {
		if tag, err := language.Parse(locale); err == nil {
			c.fallback = tag
		}
	}
}

// WithMessages adds or overrides translations for locale
func WithMessages(locale string, msgs map[string]string) Option {
	return func(c *config) {
		tag, err := language.Parse(locale)
		if err != nil {
			return
		}
		if c.extra[tag] == nil {
			c.extra[tag] = map[string]string{}
		}
		for k, v := range msgs {
			c.extra[tag][k] = v
		}
	}
}

// New builds a catalog with the built in English and Turkish messages
func New(opts ...Option) *Catalog {
	cfg := &config{
		fallback: language.English,
		extra:    map[language.Tag]map[string]string{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	builder := catalog.NewBuilder(catalog.Fallback(cfg.fallback))

	supported := []language.Tag{cfg.fallback}
	seen := map[language.Tag]bool{cfg.fallback: true}
	add := func(tag language.Tag, msgs map[string]string) {
		for key, text := range msgs {
			// SetString only fails on malformed tags or messages
			_ = builder.SetString(tag, key, text)
		}
		if !seen[tag] {
			seen[tag] = true
			supported = append(supported, tag)
		}
	}

	for _, tag := range []language.Tag{language.English, language.Turkish} {
		add(tag, messages[tag])
	}
	for tag, msgs := range cfg.extra {
		add(tag, msgs)
	}

	return &Catalog{
		builder:   builder,
		matcher:   language.NewMatcher(supported),
		supported: supported,
		fallback:  cfg.fallback,
	}
}

// Translate returns the text for key in locale
func (c *Catalog) Translate(key, locale string) string {
	tag := c.tag(locale)
	p := message.NewPrinter(tag, message.Catalog(c.builder))
	return p.Sprintf(key)
}

// Default returns the fallback locale
func (c *Catalog) Default() string {
	return baseString(c.fallback)
}

// Supported lists the locales with translations
func (c *Catalog) Supported() []string {
	out := make([]string, 0, len(c.supported))
	for _, tag := range c.supported {
		out = append(out, baseString(tag))
	}
	return out
}

// Resolve picks the best supported locale for an Accept-Language header.
// Empty, malformed and unsupported values resolve to the default.
func (c *Catalog) Resolve(acceptLanguage string) string {
	acceptLanguage = strings.TrimSpace(acceptLanguage)
	if acceptLanguage == "" {
		return c.Default()
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.Default()
	}

	_, idx, confidence := c.matcher.Match(tags...)
	if confidence == language.No {
		return c.Default()
	}

	return baseString(c.supported[idx])
}

func (c *Catalog) tag(locale string) language.Tag {
	if locale == "" {
		return c.fallback
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return c.fallback
	}
	_, idx, confidence := c.matcher.Match(tag)
	if confidence == language.No {
		return c.fallback
	}
	return c.supported[idx]
}

func baseString(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}
