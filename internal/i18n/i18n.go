// Package i18n localizes the labels shown by the presenter.
package i18n

import (
	"embed"
	"encoding/json"
	"io/fs"
	"path"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Message IDs used by the presenter
const (
	AppTitle           = "app.title"
	BadgeGrounding     = "badge.grounding"
	InputPlaceholder   = "input.placeholder"
	SuggestionsHeading = "suggestions.heading"
	LoadingLabel       = "loading.label"
	ErrorTitle         = "error.title"
	ErrorRetry         = "error.retry"
	SourcesHeading     = "sources.heading"
	AnswerHeading      = "answer.heading"
	FooterPoweredBy    = "footer.powered_by"
)

//go:embed locales/*.json
var locales embed.FS

var (
	bundleOnce sync.Once
	bundle     *goi18n.Bundle
	bundleErr  error
)

// Bundle returns the process-wide bundle with every embedded locale loaded
func Bundle() (*goi18n.Bundle, error) {
	bundleOnce.Do(func() {
		b := goi18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("json", json.Unmarshal)

		entries, err := fs.ReadDir(locales, "locales")
		if err != nil {
			bundleErr = err
			return
		}
		for _, entry := range entries {
			if _, err := b.LoadMessageFileFS(locales, path.Join("locales", entry.Name())); err != nil {
				bundleErr = err
				return
			}
		}
		bundle = b
	})
	return bundle, bundleErr
}

// Translator looks up labels for one language, falling back to English
type Translator struct {
	lang      string
	localizer *goi18n.Localizer
}

// New creates a Translator for lang, e.g. "en" or "es-MX"
func New(lang string) (*Translator, error) {
	b, err := Bundle()
	if err != nil {
		return nil, err
	}
	return &Translator{
		lang:      lang,
		localizer: goi18n.NewLocalizer(b, lang, language.English.String()),
	}, nil
}

// MustNew is New for callers with a compile-time language
func MustNew(lang string) *Translator {
	t, err := New(lang)
	if err != nil {
		panic("i18n: " + err.Error())
	}
	return t
}

// Lang returns the requested language
func (t *Translator) Lang() string {
	return t.lang
}

// T returns the label for id, or id itself when no locale defines it
func (t *Translator) T(id string) string {
	// A message found only in English comes back with a not-found error
	msg, _ := t.localizer.Localize(&goi18n.LocalizeConfig{MessageID: id})
	if msg == "" {
		return id
	}
	return msg
}

// Languages lists the embedded locales
func Languages() []string {
	b, err := Bundle()
	if err != nil {
		return nil
	}
	tags := b.LanguageTags()
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tag.String())
	}
	return out
}
