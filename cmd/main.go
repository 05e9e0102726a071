package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"SpotMap-App/internal/domain/model"
	"SpotMap-App/internal/domain/service"
	"SpotMap-App/internal/handler"
	"SpotMap-App/internal/infrastructure/cache"
	"SpotMap-App/internal/infrastructure/database"
	repoImpl "SpotMap-App/internal/repository"
	"SpotMap-App/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseAnonKey := os.Getenv("SUPABASE_ANON_KEY")

	if supabaseURL == "" || supabaseAnonKey == "" {
		fmt.Println("⚠️  環境変数が設定されていません:")
		fmt.Println("必要な環境変数:")
		fmt.Println("  - SUPABASE_URL")
		fmt.Println("  - SUPABASE_ANON_KEY")
		fmt.Println("\n.envファイルを作成するか、環境変数を設定してください")
		log.Fatal("Environment variables not set")
	}

	dbPath := os.Getenv("SPOTMAP_DB_PATH")
	if dbPath == "" {
		dbPath = "spotmap.db"
	}

	fmt.Println("Initializing local store...")
	localStore, err := database.NewLocalStore(dbPath)
	if err != nil {
		log.Fatalf("ローカルストア初期化失敗: %v", err)
	}
	defer localStore.Close()

	ctx := context.Background()
	deviceID, err := localStore.EnsureDeviceID(ctx)
	if err != nil {
		log.Fatalf("端末ID取得失敗: %v", err)
	}
	fmt.Printf("Device ID: %s\n", deviceID)

	fmt.Println("Initializing Supabase client...")
	supabaseClient, err := database.NewSupabaseClient(deviceID)
	if err != nil {
		log.Fatalf("Supabaseクライアント初期化失敗: %v", err)
	}

	fmt.Println("Performing Supabase health check...")
	if err := supabaseClient.HealthCheck(); err != nil {
		log.Fatalf("Supabaseヘルスチェック失敗: %v", err)
	}
	fmt.Println("✅ Supabase connection successful!")

	// 認証情報（トークンがなければゲスト扱い）
	auth := &model.AuthContext{
		UserID:      os.Getenv("SPOTMAP_USER_ID"),
		AccessToken: os.Getenv("SPOTMAP_ACCESS_TOKEN"),
	}
	auth.Guest = auth.AccessToken == ""

	// リポジトリとサービスの初期化
	feedRepo := repoImpl.NewSupabaseFeedRepository(supabaseClient)
	snapshotRepo := repoImpl.NewSQLiteSnapshotRepository(localStore)
	orderRepo := repoImpl.NewSQLiteOrderRepository(localStore)

	feedUseCase := usecase.NewFeedSyncUseCase(
		feedRepo,
		snapshotRepo,
		orderRepo,
		cache.NewFeedCache(),
		service.NewFeedAggregateService(),
		service.NewOrderService(),
		service.NewFilterService(),
		auth,
		nil, // 既定のタイミングパラメータを使用
	)

	feedHandler := handler.NewFeedHandler(feedUseCase)
	libraryHandler := handler.NewLibraryHandler(feedUseCase)

	router := gin.Default()
	router.GET("/api/health", healthHandler)
	router.GET("/feed", feedHandler.GetFeed)
	router.GET("/feed/points", feedHandler.GetDisplayPoints)
	router.POST("/feed/refresh", feedHandler.PostRefresh)
	router.POST("/feed/focus", feedHandler.PostFocus)
	router.PUT("/order/unfiled", libraryHandler.PutUnfiledOrder)
	router.PUT("/folders/:id/order", libraryHandler.PutFolderOrder)
	router.POST("/spots/:id/hide", libraryHandler.PostHideSpot)
	router.POST("/spots/:id/save", libraryHandler.PostSaveSpot)
	router.POST("/session/signout", feedHandler.PostSignOut)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("SpotMap-App server starting on :%s...\n", port)
	log.Fatal(router.Run(":" + port))
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "SpotMap-App",
	})
}
