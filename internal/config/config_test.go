package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.DBDriver)
	assert.Equal(t, 4, cfg.OTPLength)
	assert.True(t, cfg.OTPHashed)
	assert.Equal(t, 15*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 5, cfg.OTPMaxAttempts)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadParsesLists(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("OTP_LENGTH", "6")
	t.Setenv("OTP_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 6, cfg.OTPLength)
	assert.Equal(t, 90*time.Second, cfg.OTPTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory ok", Config{DBDriver: DriverMemory, OTPLength: 4}, false},
		{"mysql missing host", Config{DBDriver: DriverMySQL, DBUser: "u", DBName: "n", OTPLength: 4}, true},
		{"mysql via cloud sql", Config{DBDriver: DriverMySQL, DBUser: "u", DBName: "n", InstanceConnectionName: "p:r:i", OTPLength: 4}, false},
		{"postgres ok", Config{DBDriver: DriverPostgres, DBUser: "u", DBName: "n", DBHost: "db", OTPLength: 6}, false},
		{"unknown driver", Config{DBDriver: "oracle", OTPLength: 4}, true},
		{"bad otp length", Config{DBDriver: DriverMemory, OTPLength: 5}, true},
		{"negative ttl", Config{DBDriver: DriverMemory, OTPLength: 4, OTPTTL: -time.Second}, true},
		{"negative attempts", Config{DBDriver: DriverMemory, OTPLength: 4, OTPMaxAttempts: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDBPortOrDefault(t *testing.T) {
	assert.Equal(t, "3306", (&Config{DBDriver: DriverMySQL}).DBPortOrDefault())
	assert.Equal(t, "5432", (&Config{DBDriver: DriverPostgres}).DBPortOrDefault())
	assert.Equal(t, "6000", (&Config{DBDriver: DriverPostgres, DBPort: "6000"}).DBPortOrDefault())
}
