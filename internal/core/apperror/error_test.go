package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", NewUnknownRule("HasType"), http.StatusUnprocessableEntity},
		{"wrapped", fmt.Errorf("load: %w", NewNotFound("Person", "i9")), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.err))
		})
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("apply: %w", NewFilterCycle("Loop"))
	assert.True(t, HasCode(err, CodeFilterCycle))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, IsNotFound(errors.New("missing")))

	appErr, ok := AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, "Loop", appErr.Details["filter"])
}
