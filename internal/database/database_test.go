package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/bonos-api/internal/models"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "postgres",
			cfg:  DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "bonos", Password: "pw", Name: "bonos", SSLMode: "disable"},
			want: "host=db user=bonos password=pw dbname=bonos port=5432 sslmode=disable TimeZone=UTC",
		},
		{
			name: "mysql",
			cfg:  DatabaseConfig{Driver: "mysql", Host: "db", Port: "3306", User: "bonos", Password: "pw", Name: "bonos"},
			want: "bonos:pw@tcp(db:3306)/bonos?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name: "sqlite",
			cfg:  DatabaseConfig{Driver: "sqlite", Path: "bonos.db"},
			want: "bonos.db",
		},
		{
			name: "unknown",
			cfg:  DatabaseConfig{Driver: "oracle"},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}

func TestStringMasksPassword(t *testing.T) {
	cfg := DatabaseConfig{Driver: "postgres", Password: "hunter2"}
	assert.NotContains(t, cfg.String(), "hunter2")
}

func TestInitDatabaseRejectsUnknownDriver(t *testing.T) {
	_, err := InitDatabase(DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func openMemory(t *testing.T) *gorm.DB {
	db, err := InitDatabase(DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestSeedDemoDataIsIdempotent(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	require.NoError(t, SeedDemoData(ctx, db))
	require.NoError(t, SeedDemoData(ctx, db))

	var users, offers int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Offer{}).Count(&offers).Error)
	assert.Equal(t, int64(2), users)
	assert.Equal(t, int64(len(demoOffers())), offers)

	var admin models.User
	require.NoError(t, db.Where("email = ?", DemoAdminEmail).First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.CheckPassword(DemoAdminPassword))

	var user models.User
	require.NoError(t, db.Where("email = ?", DemoUserEmail).First(&user).Error)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.CheckPassword(DemoUserPassword))

	var active int64
	require.NoError(t, db.Model(&models.Offer{}).Scopes(models.ActiveOffers).Where("user_id = ?", admin.ID).Count(&active).Error)
	assert.Equal(t, offers, active)
}

func TestDuplicateEmailIsTranslated(t *testing.T) {
	db := openMemory(t)

	first := &models.User{Email: "dup@example.com", Name: "A", LastName: "B", Password: "x"}
	require.NoError(t, db.Create(first).Error)

	second := &models.User{Email: "dup@example.com", Name: "C", LastName: "D", Password: "y"}
	err := db.Create(second).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
