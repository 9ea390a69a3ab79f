package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/empresasbrasil/internal/crm"
)

var leadRowColumns = []string{
	"id", "user_id", "nome", "empresa", "telefone", "email", "endereco", "cnpj", "website", "categoria",
	"rating", "reviews_count", "fonte", "dados_originais", "notas", "stage", "created_at", "updated_at",
}

func leadRow(id, stage string, at time.Time) []any {
	return []any{
		id, int64(1), "Padaria", "Padaria LTDA", "1133334444", "", "", "", "", "Padaria",
		4.5, 12, "google_maps", []byte(`{"placeId":"abc"}`), "", stage, at, at,
	}
}

func TestLeadStoreCreate(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	l := crm.Lead{ID: "0190a", UserID: 1, Nome: "Padaria", Empresa: "Padaria LTDA", Stage: crm.StageNew, CreatedAt: at, UpdatedAt: at}

	mock.ExpectExec("INSERT INTO crm_leads").
		WithArgs("0190a", int64(1), "Padaria", "Padaria LTDA", "", "", "", "", "", "",
			0.0, 0, "", nil, "", "novo", "Padaria_Padaria LTDA__", at, at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO crm_leads").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	store := NewLeadStore(mock)
	require.NoError(t, store.Create(context.Background(), l))
	require.ErrorIs(t, store.Create(context.Background(), l), crm.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadStoreListByStage(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM crm_leads WHERE user_id = \\$1 AND stage = \\$2").
		WithArgs(int64(1), "proposta").
		WillReturnRows(pgxmock.NewRows(leadRowColumns).AddRow(leadRow("a", "proposta", at)...))

	leads, err := NewLeadStore(mock).List(context.Background(), 1, crm.StageProposal)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, crm.StageProposal, leads[0].Stage)
	assert.JSONEq(t, `{"placeId":"abc"}`, string(leads[0].DadosOriginais))
	assert.InDelta(t, 4.5, leads[0].Rating, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadStoreUpdateStage(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("UPDATE crm_leads SET stage = \\$1").
		WithArgs("fechado", at, int64(1), "a").
		WillReturnRows(pgxmock.NewRows(leadRowColumns).AddRow(leadRow("a", "fechado", at)...))
	mock.ExpectQuery("UPDATE crm_leads SET notas = \\$1").
		WithArgs("x", at, int64(1), "missing").
		WillReturnRows(pgxmock.NewRows(leadRowColumns))

	store := NewLeadStore(mock)
	l, err := store.UpdateStage(context.Background(), 1, "a", crm.StageWon, at)
	require.NoError(t, err)
	assert.Equal(t, crm.StageWon, l.Stage)

	_, err = store.UpdateNotes(context.Background(), 1, "missing", "x", at)
	require.ErrorIs(t, err, crm.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadStoreDeleteAndKeys(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM crm_leads").
		WithArgs(int64(1), "gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery("SELECT dedup_key FROM crm_leads").
		WithArgs(int64(1), []string{"a_b__", "c_d__"}).
		WillReturnRows(pgxmock.NewRows([]string{"dedup_key"}).AddRow("c_d__"))
	mock.ExpectQuery("GROUP BY stage").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"stage", "count"}).AddRow("novo", int64(3)).AddRow("fechado", int64(1)))

	store := NewLeadStore(mock)
	require.ErrorIs(t, store.Delete(context.Background(), 1, "gone"), crm.ErrNotFound)

	keys, err := store.ExistingKeys(context.Background(), 1, []string{"a_b__", "c_d__"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c_d__"}, keys)

	counts, err := store.CountByStage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, map[crm.Stage]int64{crm.StageNew: 3, crm.StageWon: 1}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}
