package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("DB_NAME")
	os.Unsetenv("TYPESENSE_URL")
	os.Unsetenv("GEOCODER_PROVIDER")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "parkour_spots", cfg.Database.Database)
	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
	assert.Equal(t, "mock", cfg.Geocoder.Provider)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_Overrides(t *testing.T) {
	os.Setenv("DB_NAME", "spots_test")
	os.Setenv("IMAGE_STORE_ROOT", "/var/spot-images")
	defer func() {
		os.Unsetenv("DB_NAME")
		os.Unsetenv("IMAGE_STORE_ROOT")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "spots_test", cfg.Database.Database)
	assert.Equal(t, "/var/spot-images", cfg.Storage.Root)
}

func TestIsConfigured_RequiresAuthSecretOutsideDevelopment(t *testing.T) {
	os.Setenv("APP_ENV", "production")
	os.Unsetenv("AUTH_JWT_SECRET")
	defer os.Unsetenv("APP_ENV")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Error(t, cfg.IsConfigured())

	os.Setenv("AUTH_JWT_SECRET", "secret")
	defer os.Unsetenv("AUTH_JWT_SECRET")

	cfg, err = Load()
	assert.NoError(t, err)
	assert.NoError(t, cfg.IsConfigured())
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", Database: "spots", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=spots sslmode=disable", cfg.DatabaseDSN())
}
