package service

import (
	"path/filepath"
	"testing"

	"github.com/cardtracker/cardtracker/config"
	"github.com/cardtracker/cardtracker/database"
	"github.com/cardtracker/cardtracker/database/model"
	"github.com/cardtracker/cardtracker/web/cache"
	"github.com/cardtracker/cardtracker/web/entity"

	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) {
	t.Helper()
	t.Setenv("CARDTRACKER_BCRYPT_COST", "4")

	err := database.InitDB(&config.DatabaseConfig{
		Type:   config.DatabaseTypeSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	require.NoError(t, err)
	require.NoError(t, cache.InitRedis(""))

	t.Cleanup(func() {
		_ = cache.Close()
		_ = database.CloseDB()
	})
}

func ptr[T any](v T) *T {
	return &v
}

// fixture creates a user, a series with one set and a card type.
type fixture struct {
	user     *model.User
	series   *model.Series
	set      *model.Set
	cardType *model.CardType
}

func newFixture(t *testing.T, setAbb *string) fixture {
	t.Helper()
	users := UserService{}
	u, err := users.Create("ash", ptr("ash@example.com"), "pikachu", false)
	require.NoError(t, err)

	seriesService := SeriesService{}
	series, err := seriesService.Create(entity.SeriesRequest{Name: "Original"})
	require.NoError(t, err)

	setService := SetService{}
	set, err := setService.Create(entity.SetRequest{NameOfExpansion: "Base", SeriesId: series.Id, SetAbb: setAbb})
	require.NoError(t, err)

	typeService := CardTypeService{}
	ct, err := typeService.Create(entity.CardTypeRequest{Name: "Stage 2", Category: ptr("Pokémon")})
	require.NoError(t, err)

	return fixture{user: u, series: series, set: set, cardType: ct}
}
