package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/groupguard/modbot/internal/model"
)

var servePort int

const shutdownTimeout = 10 * time.Second

// webhookUpdate is the inbound payload from the chat platform relay.
type webhookUpdate struct {
	Message model.Message       `json:"message"`
	Sender  model.SenderProfile `json:"sender"`
}

// buildRouter assembles the webhook routes.
func buildRouter(ctx context.Context, env *env) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Post("/webhook/message", func(w http.ResponseWriter, req *http.Request) {
		var update webhookUpdate
		if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if update.Message.ChatID == 0 || update.Message.MessageID == 0 {
			http.Error(w, `{"error":"chat_id and message_id are required"}`, http.StatusBadRequest)
			return
		}

		requestID := uuid.NewString()

		// Each message runs its own pipeline pass; the webhook never
		// blocks on scoring.
		go func() {
			outcome := env.Pipeline.ProcessMessage(ctx, update.Message, update.Sender)
			zap.L().Info("message processed",
				zap.String("request_id", requestID),
				zap.Int64("chat_id", update.Message.ChatID),
				zap.Int64("message_id", update.Message.MessageID),
				zap.String("outcome", outcome),
			)
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{
			"status":     "accepted",
			"request_id": requestID,
		})
	})

	return r
}

// shutdownOnCancel drains srv once ctx is canceled. The drain gets a fresh
// deadline: ctx is already done at that point, and passing it to Shutdown
// would abort in-flight requests instead of letting them finish.
func shutdownOnCancel(ctx context.Context, srv *http.Server, timeout time.Duration) {
	<-ctx.Done()
	zap.L().Info("shutting down server")

	drainCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		zap.L().Error("server shutdown", zap.Error(err))
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the message webhook server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(ctx, env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go shutdownOnCancel(ctx, srv, shutdownTimeout)

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
