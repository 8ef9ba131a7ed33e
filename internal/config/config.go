package config

import "os"

type Config struct {
	ListenAddr     string
	DBPath         string
	ImagePath      string
	ExportDir      string
	CloudEndpoint  string
	CloudContainer string
	CloudZone      string
	CloudToken     string
	LogLevel       string
	LogFile        string
	TestMode       bool
}

func Load() *Config {
	return &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		DBPath:         getEnv("DB_PATH", "/data/boxinv.db"),
		ImagePath:      getEnv("IMAGE_PATH", "/data/images"),
		ExportDir:      getEnv("EXPORT_DIR", "/data/exports"),
		CloudEndpoint:  getEnv("CLOUD_ENDPOINT", ""),
		CloudContainer: getEnv("CLOUD_CONTAINER", "iCloud.boxinv"),
		CloudZone:      getEnv("CLOUD_ZONE", "inventory"),
		CloudToken:     getEnv("CLOUD_TOKEN", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),
		TestMode:       os.Getenv("BOXINV_TEST_MODE") == "1",
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
