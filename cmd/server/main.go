// Command server starts the HTTP API that fronts C1-C13: every component's
// concrete implementation is registered with the process-wide dig
// container (internal/runtime) and resolved once at startup, the role
// WeKnora's own container-based wiring plays for its service graph.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Balizero1987/ayo-sub004/internal/agent/tools"
	"github.com/Balizero1987/ayo-sub004/internal/application/repository/postgres"
	"github.com/Balizero1987/ayo-sub004/internal/application/repository/redisstore"
	"github.com/Balizero1987/ayo-sub004/internal/application/repository/vectorstore"
	"github.com/Balizero1987/ayo-sub004/internal/application/service/golden"
	"github.com/Balizero1987/ayo-sub004/internal/application/service/llm"
	"github.com/Balizero1987/ayo-sub004/internal/application/service/memory"
	"github.com/Balizero1987/ayo-sub004/internal/application/service/orchestrator"
	"github.com/Balizero1987/ayo-sub004/internal/application/service/retrieval"
	"github.com/Balizero1987/ayo-sub004/internal/config"
	"github.com/Balizero1987/ayo-sub004/internal/handler"
	"github.com/Balizero1987/ayo-sub004/internal/ingestion"
	"github.com/Balizero1987/ayo-sub004/internal/models/chat"
	"github.com/Balizero1987/ayo-sub004/internal/models/embedding"
	"github.com/Balizero1987/ayo-sub004/internal/models/rerank"
	"github.com/Balizero1987/ayo-sub004/internal/runtime"
	"github.com/Balizero1987/ayo-sub004/internal/types"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

// ladderBundle carries both the shared fallback ladder and the single
// "primary" chat model ingestion uses for HyDE/KG extraction — dig only
// resolves one value per type, so both travel together.
type ladderBundle struct {
	Ladder  *llm.Ladder
	Primary chat.Chat
}

var configPath = flag.String("config", "config.yaml", "path to config.yaml")

func main() {
	flag.Parse()

	for _, provide := range providers() {
		if err := runtime.Provide(provide); err != nil {
			logrus.WithError(err).Fatal("server: register component")
		}
	}

	if err := runtime.Invoke(serve); err != nil {
		logrus.WithError(err).Fatal("server: build service graph")
	}
}

func providers() []interface{} {
	return []interface{}{
		provideConfig,
		provideDB,
		provideRelationalStore,
		provideVectorStore,
		provideEmbedder,
		provideRedisClient,
		provideSessionStore,
		provideLadderBundle,
		provideLadderMap,
		provideRetrievalEngine,
		provideGoldenCache,
		provideMemoryAssembler,
		provideToolExecutor,
		provideIngestOrchestrator,
		provideAnswerOrchestrator,
		provideQueueClient,
	}
}

func provideQueueClient(cfg *config.Config) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func provideConfig() (*config.Config, error) {
	return config.Load(*configPath)
}

func provideDB(cfg *config.Config) (*gorm.DB, error) {
	return postgres.Open(cfg.Database)
}

func provideRelationalStore(db *gorm.DB) interfaces.RelationalStore {
	return postgres.NewStore(db)
}

func provideVectorStore(cfg *config.Config) (interfaces.VectorStore, error) {
	return vectorstore.New(vectorStoreConfig(cfg.VectorStore))
}

// provideEmbedder degrades rather than aborts startup on a misconfigured
// provider (§6 "Missing keys downgrade capability but never crash startup").
func provideEmbedder(cfg *config.Config) interfaces.Embedder {
	e, err := embedding.New(cfg.Embedding)
	if err != nil {
		logrus.WithError(err).Warn("server: embedder unavailable, retrieval will degrade")
		return nil
	}
	return e
}

func provideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func provideSessionStore(client *redis.Client) interfaces.SessionStore {
	return redisstore.New(client)
}

func provideLadderBundle(cfg *config.Config) *ladderBundle {
	tiers := make([]llm.Tier, 0, len(cfg.LLMProviders))
	var primary chat.Chat
	for _, p := range cfg.LLMProviders {
		c, err := newChatProvider(p)
		if err != nil {
			logrus.WithError(err).WithField("provider", p.Name).Warn("server: skipping unavailable provider")
			continue
		}
		tiers = append(tiers, llm.Tier{Name: p.Name, Chat: c})
		if primary == nil {
			primary = c
		}
	}
	return &ladderBundle{Ladder: llm.NewLadder(tiers), Primary: primary}
}

// provideLadderMap shares the one configured ladder across every suggested
// model tier, since config.yaml doesn't carve out a distinct provider list
// per tier.
func provideLadderMap(bundle *ladderBundle) map[types.ModelTier]*llm.Ladder {
	return map[types.ModelTier]*llm.Ladder{
		types.ModelTierFast:      bundle.Ladder,
		types.ModelTierPro:       bundle.Ladder,
		types.ModelTierDeepThink: bundle.Ladder,
		types.ModelTierDev:       bundle.Ladder,
	}
}

func provideRetrievalEngine(cfg *config.Config, embedder interfaces.Embedder, vectors interfaces.VectorStore) *retrieval.Engine {
	var reranker interfaces.Reranker
	if cfg.Retrieval.RerankEnabled {
		jina, err := rerank.NewJinaReranker(&rerank.RerankerConfig{})
		if err != nil {
			logrus.WithError(err).Warn("server: rerank unavailable, continuing unreranked")
		} else {
			reranker = rerank.NewAdapter(jina)
		}
	}
	return retrieval.New(embedder, vectors, reranker)
}

func provideGoldenCache(store interfaces.RelationalStore, embedder interfaces.Embedder) *golden.Cache {
	cache := golden.New(store, embedder)
	if err := cache.Init(context.Background()); err != nil {
		logrus.WithError(err).Warn("server: golden cache priming failed, continuing cold")
	}
	return cache
}

func provideMemoryAssembler(store interfaces.RelationalStore, sessions interfaces.SessionStore) *memory.Assembler {
	return memory.New(store, sessions)
}

func provideToolExecutor(engine *retrieval.Engine) interfaces.ToolExecutor {
	return tools.NewRegistry(engine)
}

func provideIngestOrchestrator(
	cfg *config.Config,
	embedder interfaces.Embedder,
	vectors interfaces.VectorStore,
	store interfaces.RelationalStore,
	bundle *ladderBundle,
) (*ingestion.Orchestrator, error) {
	return ingestion.New(cfg.Ingestion, embedder, vectors, store, bundle.Primary)
}

func provideAnswerOrchestrator(
	cache *golden.Cache,
	assembler *memory.Assembler,
	engine *retrieval.Engine,
	ladders map[types.ModelTier]*llm.Ladder,
	bundle *ladderBundle,
	sessions interfaces.SessionStore,
	store interfaces.RelationalStore,
	toolExec interfaces.ToolExecutor,
	cfg *config.Config,
) *orchestrator.Orchestrator {
	return orchestrator.New(
		cache, assembler, engine, ladders, bundle.Ladder, sessions, store, toolExec,
		orchestrator.Config{SessionTTLSec: cfg.Conversation.SessionTTLSec},
	)
}

func serve(
	cfg *config.Config,
	answer *orchestrator.Orchestrator,
	ingest *ingestion.Orchestrator,
	store interfaces.RelationalStore,
	cache *golden.Cache,
	queue *asynq.Client,
) {
	defer ingest.Release()
	defer queue.Close()

	worker := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB},
		asynq.Config{Concurrency: 2},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(golden.TaskTypeRefresh, golden.HandleRefreshTask(cache))
	if err := worker.Start(mux); err != nil {
		logrus.WithError(err).Fatal("server: start golden-cache refresh worker")
	}
	defer worker.Shutdown()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.RegisterRoutes(
		router,
		handler.NewQueryHandler(answer),
		handler.NewFeedbackHandler(store),
		handler.NewIngestHandler(ingest, store, queue),
	)

	runServer(router, cfg.Server.Port)
}

func newChatProvider(p config.LLMProviderConfig) (chat.Chat, error) {
	cfg := &chat.ChatConfig{BaseURL: p.BaseURL, APIKey: p.APIKey, ModelName: p.Model, ModelID: p.Name}
	if p.Name == "ollama" {
		return chat.NewOllamaChat(cfg)
	}
	return chat.NewOpenAIChat(cfg)
}

func vectorStoreConfig(cfg config.VectorStoreConfig) vectorstore.Config {
	host, port, useTLS := "localhost", 6334, false
	if cfg.URL != "" {
		if parsed, err := url.Parse(cfg.URL); err == nil {
			host = parsed.Hostname()
			useTLS = parsed.Scheme == "https"
			if p, err := strconv.Atoi(parsed.Port()); err == nil && p > 0 {
				port = p
			}
		}
	}
	return vectorstore.Config{
		Host:               host,
		Port:               port,
		APIKey:             cfg.APIKey,
		UseTLS:             useTLS,
		CollectionBaseName: cfg.CollectionBaseName,
	}
}

func runServer(router *gin.Engine, port string) {
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: fmt.Sprintf(":%s", port), Handler: router}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server: listen")
		}
	}()
	logrus.WithField("port", port).Info("server: listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("server: graceful shutdown failed")
	}
}
