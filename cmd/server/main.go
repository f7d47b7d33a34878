package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"fraud-risk-engine/internal/api"
)

func main() {
	_ = godotenv.Load()

	baseDir, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("determine working directory: %v", err)
	}

	dataDir := filepath.Join(baseDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logrus.Fatalf("create data directory: %v", err)
	}

	cfg := api.Config{
		DBPath:         filepath.Join(dataDir, "fraud-risk.db"),
		KnowledgePath:  strings.TrimSpace(os.Getenv("KNOWLEDGE_BASE_PATH")),
		FlagRulesPath:  strings.TrimSpace(os.Getenv("FLAG_RULES_PATH")),
		RulesPath:      strings.TrimSpace(os.Getenv("FRAUD_RULES_PATH")),
		ModelBundleDir: strings.TrimSpace(os.Getenv("MODEL_BUNDLE_DIR")),
	}

	if override := strings.TrimSpace(os.Getenv("FRAUD_RISK_DB_PATH")); override != "" {
		cfg.DBPath = override
	}
	if origins := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer server.Close()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logrus.Infof("starting fraud-risk-engine on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
