package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"operation-list/internal/booking"
	"operation-list/internal/config"
	"operation-list/internal/logger"
)

func testConfig(t *testing.T, driver string) *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Driver: driver, Path: filepath.Join(t.TempDir(), "archive.db")},
		Catalog: config.CatalogConfig{
			Rooms:        []string{"Theatre A"},
			SurgeryTypes: []string{"Phaco"},
		},
		Clinic: config.ClinicConfig{Timezone: "UTC"},
	}
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	rt, err := Open(ctx, testConfig(t, "sqlite"), logger.Test(t))
	require.NoError(t, err)
	defer rt.Close()

	assert.Nil(t, rt.Remote)
	assert.Equal(t, []string{"Theatre A"}, rt.Service.Reference().Rooms)

	_, err = rt.Service.Book(ctx, booking.Request{
		Date:    rt.Service.Today().AddDate(0, 0, 1).Format("2006-01-02"),
		Room:    "Theatre A",
		Hour:    "10:00",
		Doctor:  "Dr. Karwan",
		Surgery: "Phaco",
	})
	require.NoError(t, err)

	rows, err := rt.Service.All(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestOpen_ServiceLoggerName(t *testing.T) {
	ctx := context.Background()
	lggr, logs := logger.TestObserved(t, zapcore.InfoLevel)
	rt, err := Open(ctx, testConfig(t, "csv"), lggr)
	require.NoError(t, err)
	defer rt.Close()

	_, err = rt.Service.Book(ctx, booking.Request{
		Date:    rt.Service.Today().AddDate(0, 0, 1).Format("2006-01-02"),
		Room:    "Theatre A",
		Hour:    "10:00",
		Doctor:  "Dr. Karwan",
		Surgery: "Phaco",
	})
	require.NoError(t, err)

	booked := logs.FilterMessage("booked").All()
	require.Len(t, booked, 1)
	assert.Equal(t, "booking", booked[0].LoggerName)
}

func TestRuntime_MirrorDisabled(t *testing.T) {
	rt, err := Open(context.Background(), testConfig(t, "csv"), logger.Test(t))
	require.NoError(t, err)
	defer rt.Close()

	_, err = rt.Pull(context.Background())
	assert.Error(t, err)
	assert.Error(t, rt.Push(context.Background(), "msg"))
}

func TestOpen_BadCatalog(t *testing.T) {
	cfg := testConfig(t, "csv")
	cfg.Catalog.Rooms = []string{"A", "A"}
	_, err := Open(context.Background(), cfg, logger.Test(t))
	assert.Error(t, err)
}
