package db

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       error
		persistent bool
	}{
		{name: "no rows", err: sql.ErrNoRows, want: ErrNotFound},
		{name: "unique violation", err: &pq.Error{Code: "23505"}, want: ErrConstraint, persistent: true},
		{name: "foreign key violation", err: &pq.Error{Code: "23503"}, want: ErrConstraint, persistent: true},
		{name: "string too long", err: &pq.Error{Code: "22001"}, want: ErrDataInvalid, persistent: true},
		{name: "connection failure", err: &pq.Error{Code: "08006"}},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.want != nil {
				assert.ErrorIs(t, got, tt.want)
			} else {
				assert.Equal(t, tt.err, got)
			}
			assert.Equal(t, tt.persistent, IsPersistenceError(got))
		})
	}
	assert.NoError(t, classify(nil))
}
