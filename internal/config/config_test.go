package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("PUBLIC_BASE_URL", "https://vacunas.hospital.pe/")
	t.Setenv("UPLOAD_MAX_MB", "2")
	t.Setenv("LOW_STOCK_THRESHOLD", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "https://vacunas.hospital.pe", cfg.Upload.PublicBaseURL)
	assert.Equal(t, int64(2*1024*1024), cfg.Upload.MaxFileBytes)
	assert.Equal(t, 10, cfg.Inventory.LowStockThreshold)
	assert.Equal(t, 15, cfg.Recovery.CodeMinutes)
	assert.Equal(t, "*", cfg.GetAllowedOrigins())
}

func TestLoadModeSpecificKeys(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("PROD_DB_HOST", "db.internal")
	t.Setenv("DEV_DB_HOST", "localhost")
	t.Setenv("PROD_JWT_SECRET", "prod-secret")
	t.Setenv("PROD_COOKIE_SECURE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Equal(t, "prod-secret", cfg.JWT.Secret)
	assert.True(t, cfg.Cookie.Secure)
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	t.Setenv("APP_MODE", "staging")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("APP_MODE", "dev")
	t.Setenv("DB_DRIVER", "oracle")
	_, err = Load()
	assert.Error(t, err)
}

func TestMySQLDSNCountsMatchedRows(t *testing.T) {
	dsn := buildMySQLDSN(DatabaseConfig{User: "app", Password: "pw", Host: "db", Port: "3306", DBName: "vacunacion"})
	assert.Equal(t, "app:pw@tcp(db:3306)/vacunacion?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true", dsn)
}
