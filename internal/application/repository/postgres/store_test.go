package postgres

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/Balizero1987/ayo-sub004/internal/types"
)

func TestWrapErrMapsRecordNotFound(t *testing.T) {
	err := wrapErr("get document", gorm.ErrRecordNotFound)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestWrapErrMapsPoolExhaustion(t *testing.T) {
	err := wrapErr("get document", errors.New("pq: sorry, too many connections"))
	assert.ErrorIs(t, err, types.ErrPoolExhausted)
}

func TestWrapErrDefaultsToTransport(t *testing.T) {
	err := wrapErr("get document", errors.New("connection refused"))
	assert.ErrorIs(t, err, types.ErrTransport)
}

func TestWrapErrNilIsNil(t *testing.T) {
	assert.NoError(t, wrapErr("get document", nil))
}

func TestIsMissingColumn(t *testing.T) {
	assert.True(t, isMissingColumn(errors.New(`pq: column "contextual_summary" does not exist`)))
	assert.False(t, isMissingColumn(errors.New("connection refused")))
	assert.False(t, isMissingColumn(nil))
}
