package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/allocation-engine/internal/domain"
)

func TestClassifyError_CodigosSQLSTATE(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"40001", domain.ErrTransient},
		{"40P01", domain.ErrTransient},
		{"55P03", domain.ErrTransient},
		{"57014", domain.ErrTransient},
		{"23505", domain.ErrDuplicate},
		{"23503", domain.ErrNotFound},
		{"23514", domain.ErrConsistency},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: tc.code, Message: "boom"}
			err := classifyError(fmt.Errorf("commit transaction: %w", pgErr))

			assert.ErrorIs(t, err, tc.want)
			var got *pgconn.PgError
			assert.True(t, errors.As(err, &got), "se conserva el error original")
		})
	}
}

func TestClassifyError_TransitorioEsReintentable(t *testing.T) {
	err := classifyError(&pgconn.PgError{Code: "40001"})
	assert.True(t, domain.IsRetryable(err))

	err = classifyError(&pgconn.PgError{Code: "23505"})
	assert.False(t, domain.IsRetryable(err))
}

func TestClassifyError_ErroresDeDominioPasanSinCambios(t *testing.T) {
	orig := fmt.Errorf("orden x: %w", domain.ErrNotFound)
	assert.Same(t, orig, classifyError(orig))
	assert.NoError(t, classifyError(nil))
}

func TestClassifyError_CodigoDesconocidoSeConserva(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01"}
	err := classifyError(pgErr)

	assert.Equal(t, error(pgErr), err)
	assert.False(t, domain.IsRetryable(err))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23514"}))
	assert.False(t, isUniqueViolation(errors.New("23505 en el texto no cuenta")))
}
