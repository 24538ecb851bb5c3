package repositories

import (
	"testing"
	"time"

	"donation_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type capturedQuery struct {
	sql  string
	vars []interface{}
}

// dryRunDB - gorm без соединения: запросы только собираются, SQL попадает в capturedQuery
func dryRunDB(t *testing.T) (*gorm.DB, *capturedQuery) {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=donation dbname=donation sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	captured := &capturedQuery{}
	err = db.Callback().Query().After("gorm:query").Register("test:capture_sql", func(tx *gorm.DB) {
		captured.sql = tx.Statement.SQL.String()
		captured.vars = append([]interface{}(nil), tx.Statement.Vars...)
	})
	require.NoError(t, err)
	return db, captured
}

func TestFindScheduledPickups_QueryShape(t *testing.T) {
	db, captured := dryRunDB(t)
	repo := NewContributionRepository()

	from := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	to := time.Date(2030, 1, 1, 11, 0, 0, 0, time.UTC)
	_, err := repo.FindScheduledPickups(db, PickupWindowFilter{
		OrganizationID: "org-1",
		From:           from,
		To:             to,
		ExcludeID:      "c-9",
		Statuses:       []models.ContributionStatus{models.ContributionStatusPending, models.ContributionStatusApproved},
	})
	require.NoError(t, err)

	// обе границы окна включительно
	assert.Contains(t, captured.sql, `FROM "contributions"`)
	assert.Contains(t, captured.sql, "pickup_status = $1")
	assert.Contains(t, captured.sql, "status IN ($2,$3)")
	assert.Contains(t, captured.sql, "pickup_time BETWEEN $4 AND $5")
	assert.Contains(t, captured.sql, "organization_id = $6")
	assert.Contains(t, captured.sql, "id <> $7")
	assert.Contains(t, captured.sql, "ORDER BY pickup_time ASC")
	assert.NotContains(t, captured.sql, "donor_id")

	assert.Equal(t, []interface{}{
		models.PickupStatusScheduled,
		models.ContributionStatusPending,
		models.ContributionStatusApproved,
		from,
		to,
		"org-1",
		"c-9",
	}, captured.vars)
}

func TestFindScheduledPickups_DonorFilter(t *testing.T) {
	db, captured := dryRunDB(t)

	at := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	_, err := NewContributionRepository().FindScheduledPickups(db, PickupWindowFilter{
		DonorID:  "donor-1",
		From:     at,
		To:       at,
		Statuses: []models.ContributionStatus{models.ContributionStatusPending},
	})
	require.NoError(t, err)

	assert.Contains(t, captured.sql, "donor_id = $5")
	assert.NotContains(t, captured.sql, "organization_id")
	assert.NotContains(t, captured.sql, "id <>")
	assert.Equal(t, "donor-1", captured.vars[len(captured.vars)-1])
}
