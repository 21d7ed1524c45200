package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/studybot/internal/config"
	"github.com/kalambet/studybot/internal/dedup"
	"github.com/kalambet/studybot/internal/poller"
	"github.com/kalambet/studybot/internal/survey"
)

// --- poll ---

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Trigger one survey poll cycle on the running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		res, err := triggerPoll(cmd.Context(), newAPIClient(cfg))
		if err != nil {
			return err
		}

		printSuccess("Poll cycle complete")
		printStatus("Fetched", "%d", res.Fetched)
		printStatus("Relayed", "%d", res.Relayed)
		printStatus("Relay failed", "%d", res.RelayFailed)
		printStatus("Already seen", "%d", res.SkippedSeen)
		printStatus("Ineligible", "%d", res.Ineligible)
		return nil
	},
}

func triggerPoll(ctx context.Context, client *apiClient) (poller.Result, error) {
	var res poller.Result
	resp, err := client.post(ctx, "/poll")
	if err != nil {
		return res, err
	}
	if err := decodeJSON(resp, &res); err != nil {
		return res, err
	}
	return res, nil
}

// --- approve / reject ---

// actionResult is the server's reply to an approve or reject callback.
type actionResult struct {
	Status string `json:"status"`
	Name   string `json:"name,omitempty"`
}

var approveCmd = &cobra.Command{
	Use:   "approve <notification-id>",
	Short: "Approve a pending candidate and send the enrollment email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		res, err := resolveAction(cmd.Context(), newAPIClient(cfg), args[0], "approve")
		if err != nil {
			return err
		}
		printSuccess("Template email sent to %s", res.Name)
		return nil
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <notification-id>",
	Short: "Ignore a pending candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if _, err := resolveAction(cmd.Context(), newAPIClient(cfg), args[0], "reject"); err != nil {
			return err
		}
		printSuccess("Ignored %s", args[0])
		return nil
	},
}

// resolveAction posts a human decision for a notification to the server.
func resolveAction(ctx context.Context, client *apiClient, id, action string) (actionResult, error) {
	var res actionResult
	resp, err := client.post(ctx, "/actions/"+url.PathEscape(id)+"/"+action)
	if err != nil {
		return res, err
	}
	if err := decodeJSON(resp, &res); err != nil {
		return res, err
	}
	return res, nil
}

// --- seed ---

// ResponseLister fetches current survey responses.
type ResponseLister interface {
	FetchResponses(ctx context.Context) []survey.Response
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Mark every current survey response as seen without notifying",
	Long: `Mark every current survey response as seen without notifying.

Run this once before the first serve so existing responses are not relayed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogging(cfg)

		store, closeStore, err := openSeenStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		src := survey.NewClient(cfg.Survey.BaseURL, cfg.Survey.ID, cfg.Survey.Token, cfg.Survey.PageSize)
		added, total, err := seedSeen(cmd.Context(), src, store)
		if err != nil {
			return err
		}
		printSuccess("Seeded %d new responses (%d seen in total)", added, total)
		return nil
	},
}

// seedSeen merges every fetched response ID into the seen set.
func seedSeen(ctx context.Context, src ResponseLister, store dedup.Store) (added, total int, err error) {
	seen, err := store.Load(ctx)
	if err != nil {
		return 0, 0, err
	}

	responses := src.FetchResponses(ctx)
	if len(responses) == 0 {
		printWarning("Survey source returned no responses")
	}
	for _, r := range responses {
		if !seen.Has(r.ID) {
			seen.Add(r.ID)
			added++
		}
	}

	if added > 0 {
		if err := store.Save(ctx, seen); err != nil {
			return 0, 0, err
		}
	}
	return added, seen.Len(), nil
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server health and seen-set size",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.ErrOrStderr(), colorize(colorBold, "studybot "+version))

		if running, err := serverRunning(cmd.Context(), newAPIClient(cfg)); running {
			printStatus("Server", "%s", colorize(colorGreen, "running"))
		} else {
			printStatus("Server", "%s (%v)", colorize(colorRed, "stopped"), err)
		}

		store, closeStore, err := openSeenStore(cfg)
		if err != nil {
			printError("Seen set: %v", err)
			return nil
		}
		defer closeStore()

		seen, err := store.Load(cmd.Context())
		if err != nil {
			printError("Seen set: %v", err)
			return nil
		}
		printStatus("Seen set", "%d responses (%s backend)", seen.Len(), cfg.Dedup.Backend)
		printStatus("Pending backend", "%s", cfg.Pending.Backend)
		printStatus("Poll interval", "%s", cfg.Poll.Interval)
		return nil
	},
}

func serverRunning(ctx context.Context, client *apiClient) (bool, error) {
	resp, err := client.get(ctx, "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("health returned %d", resp.StatusCode)
	}
	return true, nil
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			if errors.Is(err, config.ErrUnknownKey) {
				return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
			}
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
