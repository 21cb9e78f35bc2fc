package leads

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStoreAppend(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "avito", "u1", "ivan", "",
			KindMeasure, "Ижевск", 20.0, []string{"светильник"}, "Ворошилова 4",
			"15.03.2026", "14:00", "+79121234567", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	store := NewPostgresStore(mock, nil)
	lead := sampleLead()
	cardPath, err := store.Append(context.Background(), lead)
	require.NoError(t, err)
	assert.Empty(t, cardPath)
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, now, lead.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreChainsToNext(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	args := make([]any, 15)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(args...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))

	next := &captureStore{}
	store := NewPostgresStore(mock, next)
	cardPath, err := store.Append(context.Background(), sampleLead())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/card.json", cardPath)
	require.NotNil(t, next.got)
	assert.Equal(t, "Ижевск", next.got.City)
}

func TestPostgresStoreValidates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock, nil)
	lead := sampleLead()
	lead.City = ""
	_, err = store.Append(context.Background(), lead)
	assert.ErrorIs(t, err, ErrMissingCity)
}

type captureStore struct {
	got *Lead
}

func (c *captureStore) Append(_ context.Context, lead *Lead) (string, error) {
	c.got = lead
	return "/tmp/card.json", nil
}
