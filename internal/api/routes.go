package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"fraud-risk-engine/internal/features"
	"fraud-risk-engine/internal/knowledge"
	"fraud-risk-engine/internal/model"
	"fraud-risk-engine/internal/reasoning"
	"fraud-risk-engine/internal/rules"
	"fraud-risk-engine/internal/store"
)

// Config defines server dependencies.
type Config struct {
	DBPath         string
	KnowledgePath  string
	FlagRulesPath  string
	RulesPath      string
	ModelBundleDir string
	AllowedOrigins []string
	SilentDB       bool
}

// Server wires HTTP handlers with persistence, the rule engine, the scoring
// model, and the reasoning engine.
type Server struct {
	db             *store.Database
	engine         *reasoning.Engine
	kb             *knowledge.Base
	rules          *rules.Engine
	transformer    *features.Transformer
	scorer         *model.Scorer
	alertNotifier  *AlertNotifier
	allowedOrigins []string
}

// NewServer constructs the API server. A missing or broken model bundle
// does not fail start-up: the scorer stays unavailable and all scoring
// requests answer 503 until the bundle is fixed and the process restarted.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	kb := knowledge.Default()
	if cfg.KnowledgePath != "" || cfg.FlagRulesPath != "" {
		kb, err = knowledge.Load(cfg.KnowledgePath, cfg.FlagRulesPath)
		if err != nil {
			return nil, fmt.Errorf("knowledge base: %w", err)
		}
	}
	engine, err := reasoning.NewEngine(kb)
	if err != nil {
		return nil, fmt.Errorf("reasoning engine: %w", err)
	}

	ruleEngine := rules.Default()
	if cfg.RulesPath != "" {
		ruleEngine, err = rules.Load(cfg.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("rule engine: %w", err)
		}
	}

	var scorer *model.Scorer
	if strings.TrimSpace(cfg.ModelBundleDir) == "" {
		logrus.Info("anomaly model disabled - no bundle directory configured")
	} else if loaded, err := model.NewScorer(cfg.ModelBundleDir); err != nil {
		logrus.WithError(err).WithField("bundle", cfg.ModelBundleDir).Error("anomaly model unavailable")
	} else {
		scorer = loaded
		logrus.WithFields(logrus.Fields{
			"bundle":  cfg.ModelBundleDir,
			"columns": len(loaded.Columns()),
		}).Info("anomaly model loaded")
	}

	return &Server{
		db:             db,
		engine:         engine,
		kb:             kb,
		rules:          ruleEngine,
		transformer:    features.NewTransformer(),
		scorer:         scorer,
		alertNotifier:  NewAlertNotifier(),
		allowedOrigins: cfg.AllowedOrigins,
	}, nil
}

// Close releases server resources.
func (s *Server) Close() error {
	s.scorer.Close()
	return s.db.Close()
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.POST("/score", s.handleScore)
		api.POST("/explain", s.handleExplain)
		api.POST("/evaluate", s.handleEvaluate)
		api.GET("/decisions", s.handleListDecisions)
		api.GET("/cases", s.handleListCases)
		api.GET("/cases/:id", s.handleGetCase)
		api.POST("/cases/:id/assign", s.handleAssignCase)
		api.POST("/cases/:id/resolve", s.handleResolveCase)
		api.GET("/alerts/stream", s.handleAlertStream)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"knowledge_entries": len(s.kb.Entries()),
		"flag_rules":        len(s.kb.Rules()),
		"fraud_rules":       len(s.rules.Rules()),
		"model_available":   s.scorer != nil,
	})
}

func (s *Server) handleAlertStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.alertNotifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("alert websocket connected")
	defer s.alertNotifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("alert websocket closed")
			} else {
				logrus.WithError(err).Warn("alert websocket unexpected close")
			}
			break
		}
	}
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func pagination(c *gin.Context, defaultSize int) (offset, limit int) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	return page * pageSize, pageSize
}
