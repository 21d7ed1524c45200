package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/studybot/internal/api"
	"github.com/kalambet/studybot/internal/chat"
	"github.com/kalambet/studybot/internal/classify"
	"github.com/kalambet/studybot/internal/config"
	"github.com/kalambet/studybot/internal/enroll"
	"github.com/kalambet/studybot/internal/llm"
	"github.com/kalambet/studybot/internal/notify"
	"github.com/kalambet/studybot/internal/pending"
	"github.com/kalambet/studybot/internal/poller"
	"github.com/kalambet/studybot/internal/sms"
	"github.com/kalambet/studybot/internal/survey"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhooks, the survey poller and optionally the MCP tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServe(withMCP)
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also serve MCP tools over stdio")
}

func runServe(withMCP bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)
	slog.Info("starting studybot", "version", version, "addr", cfg.Server.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seen, closeSeen, err := openSeenStore(cfg)
	if err != nil {
		return err
	}
	defer closeSeen()

	pend, closePending, err := openPendingStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePending()

	var signer *notify.Signer
	if cfg.Relay.Secret != "" {
		signer = notify.NewSigner(cfg.Relay.Secret)
	} else {
		slog.Warn("relay.secret not set: /notify, /actions and /poll are unauthenticated")
	}
	if cfg.Enroll.WebhookURL == "" {
		slog.Warn("enroll.webhook_url not set: approvals will fail")
	}

	surveyClient := survey.NewClient(cfg.Survey.BaseURL, cfg.Survey.ID, cfg.Survey.Token, cfg.Survey.PageSize)
	meta := surveyClient.FetchMetadata(ctx)
	slog.Info("survey metadata loaded", "questions", len(meta.Questions), "choice_sets", len(meta.Choices))

	relay := notify.NewRelay(cfg.Relay.BaseURL, cfg.Relay.Timeout, signer)
	p := poller.NewPoller(surveyClient, seen, relay, meta, cfg.Survey.ExpectedAnswers, cfg.Poll.Interval)
	enroller := enroll.NewExecutor(cfg.Enroll.WebhookURL, cfg.Enroll.Timeout)

	deps := api.Deps{
		Classifier: classify.NewClassifier(llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey), cfg.LLM.Model),
		Relay:      relay,
		Pending:    pend,
		Slot:       &pending.Slot{},
		Enroller:   enroller,
		Chat:       chat.NewPoster(cfg.Chat.SurveyWebhookURL, cfg.Chat.EmailWebhookURL),
		Poller:     p,
		Signer:     signer,
	}
	if cfg.SMS.AccountSID != "" {
		deps.SMS = sms.NewSender(cfg.SMS.BaseURL, cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.From, cfg.SMS.To)
	} else {
		slog.Warn("sms.account_sid not set: operator SMS disabled")
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewHandler(deps),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		p.Run(gctx)
		return nil
	})

	if withMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Actions: api.NewActions(pend, enroller),
			Poller:  p,
		})
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
		slog.Info("MCP server started (stdio transport)")
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
