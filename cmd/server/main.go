package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"github.com/user/stocksim/internal/events"
	kafkaevents "github.com/user/stocksim/internal/events/kafka"
	"github.com/user/stocksim/internal/handlers"
	"github.com/user/stocksim/internal/ledger"
	"github.com/user/stocksim/internal/middleware"
	"github.com/user/stocksim/internal/portfolio"
	"github.com/user/stocksim/internal/quotes"
	"github.com/user/stocksim/internal/storage"
	"github.com/user/stocksim/internal/storage/memory"
	"github.com/user/stocksim/internal/storage/postgres"
	internalws "github.com/user/stocksim/internal/websocket"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	ctx := context.Background()

	// Storage: Postgres when DATABASE_URL is set (unless STORE=memory
	// forces the in-memory store for local development).
	var store storage.Store
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" || os.Getenv("STORE") == "memory" {
		log.Println("Using in-memory store (set DATABASE_URL for Postgres)")
		store = memory.NewStore()
	} else {
		pool, err := postgres.Connect(ctx, dbURL)
		if err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		defer pool.Close()
		log.Println("Successfully connected to the database")
		store = postgres.NewStore(pool)
	}

	// Quote source: the simulated feed by default, Yahoo when requested.
	// The simulated feed always runs so the websocket price stream has
	// something to broadcast.
	feed := quotes.NewSimulatedFeed()
	feed.Start(2 * time.Second)
	var source quotes.Source = feed
	if os.Getenv("QUOTE_PROVIDER") == "yahoo" {
		log.Println("Using Yahoo Finance quote provider")
		source = quotes.NewYahooSource()
	}

	// Trade events: Kafka when brokers are configured, otherwise discarded.
	var publisher events.Publisher = events.NopPublisher{}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kp := kafkaevents.NewPublisher(strings.Split(brokers, ","), events.TopicTradeCompleted)
		defer kp.Close()
		publisher = kp
		log.Printf("Publishing trade events to Kafka (%s)", brokers)
	}

	engine := ledger.NewEngine(store, source, publisher)
	reporter := portfolio.NewReporter(store, source)

	hub := internalws.NewHub(feed.Updates())
	go hub.Run()

	h := handlers.New(store, engine, reporter, source, hub)

	app := fiber.New()

	// --- WebSocket Routes ---
	wsGroup := app.Group("/ws")
	wsGroup.Use("/", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	wsGroup.Get("/prices", websocket.New(h.PriceWS))

	// --- API Routes ---
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("Stocksim API is healthy!")
	})

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", h.Signup)
	authGroup.Post("/login", h.Login)

	// --- Protected Routes ---
	api.Use(middleware.Protected())

	api.Get("/quote/:symbol", h.Quote)
	api.Post("/buy", h.Buy)
	api.Post("/sell", h.Sell)
	api.Post("/deposit", h.Deposit)
	api.Get("/history", h.History)
	api.Get("/portfolio", h.Portfolio)
	api.Post("/password", h.ChangePassword)

	addr := ":" + os.Getenv("PORT")
	if addr == ":" {
		addr = ":8080"
	}
	log.Printf("Starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}
