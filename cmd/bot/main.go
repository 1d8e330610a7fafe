package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/ligue-leadbot/internal/infra/database"
	"github.com/xavierca1/ligue-leadbot/internal/infra/http/handlers"
	botmw "github.com/xavierca1/ligue-leadbot/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leadbot/internal/infra/integration/sheet"
	"github.com/xavierca1/ligue-leadbot/internal/infra/integration/telegram"
	"github.com/xavierca1/ligue-leadbot/internal/infra/mail"
	"github.com/xavierca1/ligue-leadbot/internal/infra/queue"
	"github.com/xavierca1/ligue-leadbot/internal/infra/worker"
	"github.com/xavierca1/ligue-leadbot/internal/usecase"
)

func main() {
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(
		os.Getenv("RABBITMQ_USER"), os.Getenv("RABBITMQ_PASS"),
		os.Getenv("RABBITMQ_HOST"), os.Getenv("RABBITMQ_PORT"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// 1. Repositórios
	leadRepo := database.NewLeadRepository(db)

	// 2. Gateways e Adapters
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)
	bot := telegram.NewClient()
	sheetClient := sheet.NewClient()

	mailPort, _ := strconv.Atoi(os.Getenv("MAIL_PORT"))
	if mailPort == 0 {
		mailPort = 465
	}
	mailSender := mail.NewEmailSender(
		os.Getenv("MAIL_HOST"), mailPort, os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
	)

	// 3. Verificador de entregabilidade (opcional: VERIFY_EMAILS=true)
	var verifier usecase.EmailVerifier
	if os.Getenv("VERIFY_EMAILS") == "true" {
		waitSeconds, _ := strconv.Atoi(os.Getenv("VERIFY_WAIT_SECONDS"))
		window, _ := strconv.Atoi(os.Getenv("BOUNCE_WINDOW"))
		bounces := mail.NewBounceChecker(
			os.Getenv("IMAP_ADDR"), os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
		)
		verifier = usecase.NewVerifyEmailUseCase(
			mailSender, bounces, time.Duration(waitSeconds)*time.Second, window,
		)
		log.Println("📧 Verificação de entregabilidade HABILITADA")
	} else {
		log.Println("📧 Verificação de entregabilidade desabilitada (fluxo só-sintaxe)")
	}

	// 4. UseCases
	adminChatID, _ := strconv.ParseInt(os.Getenv("ADMIN_CHAT_ID"), 10, 64)
	engine := usecase.NewConversationUseCase(
		leadRepo, bot, sheetClient, mailSender, verifier,
		adminChatID, os.Getenv("WELCOME_LINK"), os.Getenv("PDF_PATH"),
	)

	// 5. Workers (bridge da fila + limpeza de sessões)
	dispatcher := queue.NewChatDispatcher()
	qw := queue.NewWorker(rabbitMQ.Ch, engine, dispatcher)
	workerDone := make(chan struct{})
	go func() {
		qw.Start(ctx, queue.QueueName)
		close(workerDone)
	}()

	idleMinutes, _ := strconv.Atoi(os.Getenv("SESSION_IDLE_MINUTES"))
	evictor := worker.NewSessionEvictionWorker(engine, time.Duration(idleMinutes)*time.Minute)
	go evictor.Start(ctx)

	// 6. Modo de entrada: webhook (padrão) ou polling
	token := os.Getenv("TELEGRAM_TOKEN")
	if os.Getenv("TELEGRAM_MODE") == "polling" {
		poller := telegram.NewPoller(bot, producer)
		go poller.Start(ctx)
	} else if rootURL := os.Getenv("ROOT_URL"); rootURL != "" {
		webhookURL := strings.TrimRight(rootURL, "/") + "/webhook/" + token
		if err := bot.SetWebhook(ctx, webhookURL); err != nil {
			log.Printf("⚠️ Falha ao registrar webhook: %v", err)
		}
	}

	// 7. Handlers
	webhookHandler := handlers.NewWebhookHandler(token, producer)
	leadHandler := handlers.NewLeadHandler(ctx, leadRepo, sheetClient)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)

	// 8. Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(botmw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Post("/webhook/{token}", webhookHandler.Handle)
	r.Post("/leads", leadHandler.CaptureLead)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		<-ctx.Done()
		log.Println("⚠️ Encerrando servidor HTTP...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("🤖 Ligue Leadbot rodando na porta :%s", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}

	// Janela de drenagem: espera o worker terminar os updates em voo.
	select {
	case <-workerDone:
	case <-time.After(30 * time.Second):
		log.Println("⚠️ Timeout na drenagem, updates em voo voltam para a fila")
	}
	log.Println("✅ Encerrado")
}
