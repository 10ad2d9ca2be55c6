package models

// Config holds server and database connection settings loaded from
// config.json.
type Config struct {
	DBHost     string `json:"db_host"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBName     string `json:"db_name"`
	DBSSLMode  string `json:"db_sslmode"`

	ServerAddr     string   `json:"server_addr"`
	AllowedOrigins []string `json:"allowed_origins"`
}
