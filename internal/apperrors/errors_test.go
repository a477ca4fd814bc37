package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.Kind
	}{
		{"not found", apperrors.NotFoundf("user %s not found", "ana"), apperrors.NotFound},
		{"wrapped conflict", fmt.Errorf("create: %w", apperrors.Conflictf("duplicate")), apperrors.Conflict},
		{"plain error", errors.New("boom"), apperrors.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.KindOf(tt.err))
		})
	}
}

func TestStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, apperrors.New(apperrors.NotFound, "x").Status())
	assert.Equal(t, http.StatusForbidden, apperrors.New(apperrors.Forbidden, "x").Status())
	assert.Equal(t, http.StatusConflict, apperrors.New(apperrors.Conflict, "x").Status())
	assert.Equal(t, http.StatusBadRequest, apperrors.New(apperrors.InvalidInput, "x").Status())
	assert.Equal(t, http.StatusUnauthorized, apperrors.Unauthorizedf("x").Status())
	assert.Equal(t, http.StatusInternalServerError, apperrors.New(apperrors.Internal, "x").Status())
}

func TestWrapKeepsExistingKind(t *testing.T) {
	original := apperrors.Forbiddenf("self block")
	wrapped := apperrors.Wrap(original, apperrors.Internal, "ignored")

	assert.Same(t, original, wrapped)
	assert.Nil(t, apperrors.Wrap(nil, apperrors.Internal, "nothing"))

	cause := errors.New("driver down")
	err := apperrors.Wrap(cause, apperrors.Internal, "find user")
	assert.True(t, apperrors.Is(err, apperrors.Internal))
	assert.ErrorIs(t, err, cause)
}
