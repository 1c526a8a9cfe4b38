package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"

	"github.com/young1lin/groundsearch/internal/models"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind models.ErrorKind
		wantMsg  string
	}{
		{"nil", nil, models.ErrorKindNone, ""},
		{"search error", NewError(models.ErrorKindParse, "bad body", nil), models.ErrorKindParse, "bad body"},
		{"search error without message", NewError(models.ErrorKindNetwork, "", errors.New("dial tcp: refused")), models.ErrorKindNetwork, "dial tcp: refused"},
		{"wrapped search error", fmt.Errorf("outer: %w", NewError(models.ErrorKindUpstream, "quota", nil)), models.ErrorKindUpstream, "quota"},
		{"api error", genai.APIError{Code: 429, Message: "Resource exhausted", Status: "RESOURCE_EXHAUSTED"}, models.ErrorKindUpstream, "Resource exhausted"},
		{"deadline", context.DeadlineExceeded, models.ErrorKindNetwork, "Network timeout"},
		{"net timeout", fmt.Errorf("post: %w", timeoutErr{}), models.ErrorKindNetwork, "Network timeout"},
		{"canceled", context.Canceled, models.ErrorKindCanceled, "context canceled"},
		{"plain", errors.New("Network timeout"), models.ErrorKindUnknown, "Network timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, msg := Classify(tt.err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "quota: boom", NewError(models.ErrorKindUpstream, "quota", errors.New("boom")).Error())
	assert.Equal(t, "quota", NewError(models.ErrorKindUpstream, "quota", nil).Error())
	assert.Equal(t, "boom", NewError(models.ErrorKindUpstream, "", errors.New("boom")).Error())
	assert.Equal(t, "parse error", NewError(models.ErrorKindParse, "", nil).Error())

	inner := errors.New("inner")
	assert.ErrorIs(t, NewError(models.ErrorKindUnknown, "x", inner), inner)
}
