package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(sql.ErrConnDone, ErrInternal.Code, ErrInternal.Status, "failed to load flights")

	assert.Equal(t, "failed to load flights: sql: connection is already closed", err.Error())
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.True(t, Is(fmt.Errorf("commit: %w", err), ErrInternal))
}

func TestCloneOverridesMessageOnly(t *testing.T) {
	clone := Clone(ErrScheduleConfigMissing, "")
	assert.Equal(t, ErrScheduleConfigMissing.Message, clone.Message)
	assert.NotSame(t, ErrScheduleConfigMissing, clone)

	custom := Clone(ErrNotFound, "generation run not found")
	assert.Equal(t, "generation run not found", custom.Message)
	assert.Equal(t, http.StatusNotFound, custom.Status)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.Nil(t, Clone(nil, "x"))
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)

	typed := FromError(fmt.Errorf("run: %w", Clone(ErrTemplateInfeasible, "no aircraft at SVO")))
	assert.Equal(t, "TEMPLATE_INFEASIBLE", typed.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, typed.Status)
}
