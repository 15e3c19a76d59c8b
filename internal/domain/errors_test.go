package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/allocation-engine/internal/domain"
)

func TestIsRetryable(t *testing.T) {
	wrapped := fmt.Errorf("confirmar orden: %w", fmt.Errorf("%w: lock timeout", domain.ErrTransient))

	assert.True(t, domain.IsRetryable(wrapped), "un ErrTransient envuelto debe ser reintentable")
	assert.False(t, domain.IsRetryable(domain.ErrConsistency), "una violación de consistencia nunca se reintenta")
	assert.False(t, domain.IsRetryable(errors.New("otro")))
	assert.False(t, domain.IsRetryable(nil))
}
