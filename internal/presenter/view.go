// Package presenter turns a search state into something to show. Build is
// a pure function of its inputs; the renderers only format its View.
package presenter

import (
	"fmt"
	"strings"

	"github.com/young1lin/groundsearch/internal/i18n"
	"github.com/young1lin/groundsearch/internal/models"
)

const defaultTitleMaxRunes = 80

// Options are the fixed inputs of a presenter
type Options struct {
	Suggestions   []string
	TitleMaxRunes int
	Translator    *i18n.Translator
}

// View is everything a renderer needs for one frame
type View struct {
	Status models.Status
	Lang   string

	Title       string
	Footer      string
	Placeholder string

	// Query is the current input text
	Query         string
	InputDisabled bool
	Loading       bool
	LoadingLabel  string

	// Idle only
	Badge              string
	SuggestionsHeading string
	Suggestions        []string

	Error   *ErrorPanel
	Sources *SourceList
	Answer  *AnswerPanel
}

// IsIdle reports whether the idle prompt surface is shown
func (v View) IsIdle() bool {
	return v.Status == models.StatusIdle
}

// ErrorPanel is the failure message with its retry action
type ErrorPanel struct {
	Title      string
	Message    string
	RetryLabel string
}

// SourceList is the row of cited sources
type SourceList struct {
	Heading string
	Cards   []SourceCard
}

// SourceCard is one cited web page
type SourceCard struct {
	// Index is the 1-based position of the chunk in groundingChunks
	Index     int
	Domain    string
	Title     string
	FullTitle string
	URI       string
}

// Label returns the position label, e.g. "#2"
func (c SourceCard) Label() string {
	return fmt.Sprintf("#%d", c.Index)
}

// AnswerPanel is the synthesized answer
type AnswerPanel struct {
	Heading string
	Text    string
}

// Lines splits the answer on its embedded line breaks
func (a AnswerPanel) Lines() []string {
	return strings.Split(strings.ReplaceAll(a.Text, "\r\n", "\n"), "\n")
}

// Build derives the view of state with query as the input text
func Build(state models.SearchState, query string, opts Options) View {
	tr := opts.Translator
	if tr == nil {
		tr = i18n.MustNew("en")
	}

	v := View{
		Status:      state.Status,
		Lang:        tr.Lang(),
		Title:       tr.T(i18n.AppTitle),
		Footer:      tr.T(i18n.FooterPoweredBy),
		Placeholder: tr.T(i18n.InputPlaceholder),
		Query:       query,
	}

	switch state.Status {
	case models.StatusLoading:
		v.InputDisabled = true
		v.Loading = true
		v.LoadingLabel = tr.T(i18n.LoadingLabel)

	case models.StatusError:
		v.Error = &ErrorPanel{
			Title:      tr.T(i18n.ErrorTitle),
			Message:    state.Error,
			RetryLabel: tr.T(i18n.ErrorRetry),
		}

	case models.StatusSuccess:
		if cards := sourceCards(state.Data, opts.TitleMaxRunes); len(cards) > 0 {
			v.Sources = &SourceList{Heading: tr.T(i18n.SourcesHeading), Cards: cards}
		}
		text := ""
		if state.Data != nil {
			text = state.Data.Text
		}
		v.Answer = &AnswerPanel{Heading: tr.T(i18n.AnswerHeading), Text: text}

	default:
		v.Badge = tr.T(i18n.BadgeGrounding)
		v.SuggestionsHeading = tr.T(i18n.SuggestionsHeading)
		v.Suggestions = append([]string(nil), opts.Suggestions...)
	}

	return v
}

// sourceCards keeps chunks that cite a web page, in their original order
// and labelled with their original positions.
func sourceCards(resp *models.SearchResponse, titleMax int) []SourceCard {
	if titleMax <= 0 {
		titleMax = defaultTitleMaxRunes
	}

	var cards []SourceCard
	for i, chunk := range resp.Chunks() {
		if chunk.Web == nil {
			continue
		}
		cards = append(cards, SourceCard{
			Index:     i + 1,
			Domain:    GetDomain(chunk.Web.URI),
			Title:     Clamp(chunk.Web.Title, titleMax),
			FullTitle: chunk.Web.Title,
			URI:       chunk.Web.URI,
		})
	}
	return cards
}
