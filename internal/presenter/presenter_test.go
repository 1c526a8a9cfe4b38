package presenter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/young1lin/groundsearch/internal/i18n"
	"github.com/young1lin/groundsearch/internal/models"
)

var testSuggestions = []string{
	"Latest updates on James Webb Telescope",
	"Who won the last Super Bowl?",
}

func testOptions() Options {
	return Options{
		Suggestions:   testSuggestions,
		TitleMaxRunes: 20,
		Translator:    i18n.MustNew("en"),
	}
}

func parse(t *testing.T, v View) *goquery.Document {
	t.Helper()
	html, err := RenderHTMLString(v)
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func webChunk(uri, title string) models.GroundingChunk {
	return models.GroundingChunk{Web: &models.WebSource{URI: uri, Title: title}}
}

func TestGetDomain(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"https://www.example.com/x", "example.com"},
		{"not a url", "web"},
		{"", "web"},
		{"example.com/path", "web"},
		{"https://news.bbc.co.uk/article", "news.bbc.co.uk"},
		{"http://WWW.Example.COM", "example.com"},
		{"https://wwwfoo.com", "wwwfoo.com"},
		{"https://www.example.com:8443/a?b=c", "example.com"},
		{"https://sub.www.example.com", "sub.www.example.com"},
		{"http://[::1", "web"},
		{"//example.com/x", "web"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, GetDomain(tt.uri))
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, "short", Clamp("short", 10))
	assert.Equal(t, "exactly10!", Clamp("exactly10!", 10))
	assert.Equal(t, "a long…", Clamp("a long title here", 8))
	assert.Equal(t, "héllo wö…", Clamp("héllo wörld", 9))
	assert.Equal(t, "…", Clamp("abc", 1))
	assert.Equal(t, "unbounded", Clamp("unbounded", 0))
}

func TestBuildIdle(t *testing.T) {
	v := Build(models.IdleState(), "", testOptions())

	assert.True(t, v.IsIdle())
	assert.False(t, v.InputDisabled)
	assert.Equal(t, "Google Search Grounding Active", v.Badge)
	assert.Equal(t, "Try asking about", v.SuggestionsHeading)
	assert.Equal(t, testSuggestions, v.Suggestions)
	assert.Nil(t, v.Error)
	assert.Nil(t, v.Sources)
	assert.Nil(t, v.Answer)

	doc := parse(t, v)
	buttons := doc.Find("button.suggestion")
	require.Equal(t, 2, buttons.Length())
	q, ok := buttons.Eq(1).Attr("data-query")
	assert.True(t, ok)
	assert.Equal(t, "Who won the last Super Bowl?", q)
	assert.Equal(t, "Google Search Grounding Active", doc.Find(".badge").Text())
	assert.Equal(t, 0, doc.Find(".results").Length())
}

func TestBuildLoading(t *testing.T) {
	v := Build(models.LoadingState(1), "Stock market trends 2024", testOptions())

	assert.True(t, v.InputDisabled)
	assert.True(t, v.Loading)
	assert.Empty(t, v.Suggestions)
	assert.Empty(t, v.Badge)
	assert.Nil(t, v.Sources)
	assert.Nil(t, v.Answer)

	doc := parse(t, v)
	input := doc.Find("input#query")
	_, disabled := input.Attr("disabled")
	assert.True(t, disabled)
	val, _ := input.Attr("value")
	assert.Equal(t, "Stock market trends 2024", val)
	assert.Equal(t, 1, doc.Find(".spinner").Length())
	assert.Equal(t, 0, doc.Find("button.suggestion").Length())
	assert.Equal(t, 0, doc.Find(".source-card").Length())
}

func TestBuildError(t *testing.T) {
	state := models.ErrorState(2, models.ErrorKindNetwork, "Network timeout")
	v := Build(state, "q", testOptions())

	require.NotNil(t, v.Error)
	assert.Equal(t, "Connection Error", v.Error.Title)
	assert.Equal(t, "Network timeout", v.Error.Message)
	assert.Equal(t, "Retry Search", v.Error.RetryLabel)
	assert.False(t, v.InputDisabled)

	doc := parse(t, v)
	assert.Equal(t, "Network timeout", doc.Find(".error-message").Text())
	retry := doc.Find("button.retry")
	require.Equal(t, 1, retry.Length())
	assert.Equal(t, "Retry Search", retry.Text())
	action, _ := retry.Attr("data-action")
	assert.Equal(t, "retry", action)
}

func TestBuildSuccessFiltersChunks(t *testing.T) {
	resp := &models.SearchResponse{
		Text: "First paragraph.\nSecond line.\n\nThird.",
		GroundingMetadata: &models.GroundingMetadata{
			GroundingChunks: []models.GroundingChunk{
				{},
				webChunk("https://www.nasa.gov/webb", "NASA Webb Telescope latest discoveries"),
				webChunk("https://esa.int/webb", "ESA"),
			},
		},
	}
	v := Build(models.SuccessState(3, resp), "Latest updates on James Webb Telescope", testOptions())

	require.NotNil(t, v.Sources)
	assert.Equal(t, "Sources Found", v.Sources.Heading)
	require.Len(t, v.Sources.Cards, 2)

	first := v.Sources.Cards[0]
	assert.Equal(t, 2, first.Index, "label keeps the original chunk position")
	assert.Equal(t, "#2", first.Label())
	assert.Equal(t, "nasa.gov", first.Domain)
	assert.Equal(t, "NASA Webb Telescope…", first.Title)
	assert.Equal(t, "NASA Webb Telescope latest discoveries", first.FullTitle)
	assert.Equal(t, "#3", v.Sources.Cards[1].Label())
	assert.Equal(t, "esa.int", v.Sources.Cards[1].Domain)

	require.NotNil(t, v.Answer)
	assert.Equal(t, []string{"First paragraph.", "Second line.", "", "Third."}, v.Answer.Lines())

	doc := parse(t, v)
	cards := doc.Find("a.source-card")
	require.Equal(t, 2, cards.Length())
	href, _ := cards.First().Attr("href")
	assert.Equal(t, "https://www.nasa.gov/webb", href)
	assert.Equal(t, "nasa.gov", cards.First().Find(".source-domain").Text())
	assert.Equal(t, "#2", cards.First().Find(".source-index").Text())
	assert.Equal(t, "esa.int", cards.Last().Find(".source-domain").Text())

	// sources come before the answer, and line breaks survive
	html, err := RenderHTMLString(v)
	require.NoError(t, err)
	assert.Less(t, strings.Index(html, "source-card"), strings.Index(html, `class="answer"`))
	assert.Equal(t, resp.Text, doc.Find(".answer p").Text())
}

func TestBuildSuccessOneWebOneEmpty(t *testing.T) {
	resp := &models.SearchResponse{
		Text: "answer",
		GroundingMetadata: &models.GroundingMetadata{
			GroundingChunks: []models.GroundingChunk{
				webChunk("https://www.example.com/x", "Example"),
				{},
			},
		},
	}
	v := Build(models.SuccessState(1, resp), "q", testOptions())

	require.NotNil(t, v.Sources)
	require.Len(t, v.Sources.Cards, 1)
	assert.Equal(t, "#1", v.Sources.Cards[0].Label())
	assert.Equal(t, 1, parse(t, v).Find(".source-card").Length())
}

func TestBuildSuccessWithoutWebSources(t *testing.T) {
	resp := &models.SearchResponse{
		GroundingMetadata: &models.GroundingMetadata{
			GroundingChunks: []models.GroundingChunk{{}, {}},
		},
	}
	v := Build(models.SuccessState(1, resp), "q", testOptions())

	assert.Nil(t, v.Sources, "no web chunks means no sources section")
	require.NotNil(t, v.Answer)
	assert.Empty(t, v.Answer.Text)

	doc := parse(t, v)
	assert.Equal(t, 0, doc.Find(".sources").Length())
	assert.Equal(t, 1, doc.Find(".answer").Length())
}

func TestBuildSuccessEmptyResponse(t *testing.T) {
	v := Build(models.SuccessState(1, &models.SearchResponse{}), "q", testOptions())
	assert.Nil(t, v.Sources)
	require.NotNil(t, v.Answer)
	assert.Empty(t, v.Answer.Text)
}

func TestRenderingIsPure(t *testing.T) {
	resp := &models.SearchResponse{
		Text: "a\nb",
		GroundingMetadata: &models.GroundingMetadata{
			GroundingChunks: []models.GroundingChunk{webChunk("https://www.example.com", "Example")},
		},
	}
	states := []models.SearchState{
		models.IdleState(),
		models.LoadingState(1),
		models.ErrorState(1, models.ErrorKindUpstream, "quota"),
		models.SuccessState(1, resp),
	}

	for _, state := range states {
		t.Run(string(state.Status), func(t *testing.T) {
			v1 := Build(state, "query", testOptions())
			v2 := Build(state, "query", testOptions())
			assert.Equal(t, v1, v2)

			h1, err := RenderHTMLString(v1)
			require.NoError(t, err)
			h2, err := RenderHTMLString(v2)
			require.NoError(t, err)
			assert.Equal(t, h1, h2)

			var t1, t2 bytes.Buffer
			require.NoError(t, RenderText(&t1, v1))
			require.NoError(t, RenderText(&t2, v2))
			assert.Equal(t, t1.String(), t2.String())
		})
	}
}

func TestHTMLEscapesUntrustedContent(t *testing.T) {
	resp := &models.SearchResponse{
		Text: "<script>alert(1)</script>",
		GroundingMetadata: &models.GroundingMetadata{
			GroundingChunks: []models.GroundingChunk{webChunk("javascript:alert(1)", "<b>bold</b>")},
		},
	}
	html, err := RenderHTMLString(Build(models.SuccessState(1, resp), "q", testOptions()))
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.NotContains(t, html, "<b>bold</b>")
	assert.NotContains(t, html, `href="javascript:`)
}

func TestRenderPage(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPage(&buf, Page{
		View:       Build(models.IdleState(), "", testOptions()),
		WSPath:     "/ws",
		ScriptPath: "/assets/app.js",
	})
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Gemini Search", doc.Find("title").Text())
	ws, _ := doc.Find("#app").Attr("data-ws")
	assert.Equal(t, "/ws", ws)
	src, _ := doc.Find("script").Attr("src")
	assert.Equal(t, "/assets/app.js", src)
	assert.Equal(t, 2, doc.Find("#app button.suggestion").Length())
}

func TestRenderText(t *testing.T) {
	opts := testOptions()

	t.Run("idle numbers suggestions", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderText(&buf, Build(models.IdleState(), "", opts)))
		out := buf.String()
		assert.Contains(t, out, "Gemini Search  [Google Search Grounding Active]")
		assert.Contains(t, out, "  1. Latest updates on James Webb Telescope\n")
		assert.Contains(t, out, "  2. Who won the last Super Bowl?\n")
	})

	t.Run("error shows message and retry", func(t *testing.T) {
		var buf bytes.Buffer
		state := models.ErrorState(1, models.ErrorKindNetwork, "Network timeout")
		require.NoError(t, RenderText(&buf, Build(state, "q", opts)))
		assert.Equal(t, "Connection Error\n  Network timeout\n  (/retry: Retry Search)\n", buf.String())
	})

	t.Run("success lists sources then answer", func(t *testing.T) {
		resp := &models.SearchResponse{
			Text: "line one\nline two",
			GroundingMetadata: &models.GroundingMetadata{
				GroundingChunks: []models.GroundingChunk{webChunk("https://www.example.com/x", "Example")},
			},
		}
		var buf bytes.Buffer
		require.NoError(t, RenderText(&buf, Build(models.SuccessState(1, resp), "q", opts)))
		out := buf.String()
		assert.Contains(t, out, "Sources Found\n")
		assert.Contains(t, out, "#1   example.com | Example\n")
		assert.True(t, strings.HasSuffix(out, "line one\nline two\n"))
		assert.Less(t, strings.Index(out, "Sources Found"), strings.Index(out, "line one"))
	})
}
