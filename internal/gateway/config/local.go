package config

import (
	"os"
	"strings"
)

// localObjectConfig points the object menu source at the docker-compose MinIO.
// Explicit MENU_S3_* values still win.
func localObjectConfig() ObjectConfig {
	return ObjectConfig{
		Endpoint:  firstNonEmpty(strings.TrimSpace(os.Getenv("MENU_S3_ENDPOINT")), "minio:9000"),
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("MENU_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("MENU_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER")), "consolenav"),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("MENU_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD")), "consolenav123"),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("MENU_S3_BUCKET")), "consolenav"),
		Object:    firstNonEmpty(strings.TrimSpace(os.Getenv("MENU_S3_OBJECT")), "menus.json"),
		UseSSL:    envBool("MENU_S3_USE_SSL", false),
	}
}
