package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scout/internal/agent"
	"scout/internal/domain"
	"scout/internal/metrics"
	"scout/internal/web"
)

func parseRead(url string) *domain.ToolInvocation {
	return &domain.ToolInvocation{Tool: "read_webpage", Params: map[string]string{"url": url}}
}

func formatResearch(res web.Result) string {
	return web.FormatWithCitations(res)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(loadConfig())
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signalContext()
			defer stop()

			reply, err := app.orchestrator.HandleMessage(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(reply.Text)
			return nil
		},
	}
}

func researchCmd() *cobra.Command {
	var deep bool
	cmd := &cobra.Command{
		Use:   "research <query>",
		Short: "Search the web, read the top results, and print a cited digest",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			query := strings.Join(args, " ")

			ctx, stop := signalContext()
			defer stop()

			if !deep {
				searcher := web.NewThrottledSearcher(newSearcher(logger),
					time.Duration(cfg.Web.SearchIntervalSec)*time.Second)
				pipeline := buildPipeline(cfg, searcher, newFetcher(cfg, logger), logger)
				res := pipeline.SearchAndRead(ctx, query)
				if res.Err != nil {
					return res.Err
				}
				fmt.Println(web.FormatWithCitations(res))
				return nil
			}

			// Deep mode runs the multi-role pipeline: plan, research,
			// answer, review.
			app, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			runner := newTaskRunner(app)
			result, err := runner.ExecuteTask(ctx, query)
			if err != nil {
				return err
			}
			fmt.Println("## Plan\n" + result.Plan)
			if result.Findings != "" {
				fmt.Println("\n## Findings\n" + result.Findings)
			}
			fmt.Println("\n## Answer\n" + result.Answer)
			if result.Review != "" {
				fmt.Println("\n## Review\n" + result.Review)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&deep, "deep", false, "run the multi-agent pipeline (plan, research, answer, review)")
	return cmd
}

func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and manage stored memories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show recent memories",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(loadConfig())
			if err != nil {
				return err
			}
			defer app.Close()
			if app.memStore == nil {
				return fmt.Errorf("memory is disabled in config")
			}
			for _, m := range app.memStore.Recent(20) {
				fmt.Printf("#%d [%s] %s (recalled %d times)\n", m.ID, m.Type, m.Content, m.AccessCount)
			}
			return nil
		},
	})

	var searchType string
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search memories by keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(loadConfig())
			if err != nil {
				return err
			}
			defer app.Close()
			if app.memStore == nil {
				return fmt.Errorf("memory is disabled in config")
			}
			found, err := app.memStore.Search(strings.Join(args, " "), searchType, 10)
			if err != nil {
				return err
			}
			for _, m := range found {
				fmt.Printf("#%d [%s] %s\n", m.ID, m.Type, m.Content)
			}
			return nil
		},
	}
	searchCmd.Flags().StringVar(&searchType, "type", "", "restrict results to one memory type")
	cmd.AddCommand(searchCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "add <content>",
		Short: "Store a memory directly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(loadConfig())
			if err != nil {
				return err
			}
			defer app.Close()
			if app.memStore == nil {
				return fmt.Errorf("memory is disabled in config")
			}
			m, err := app.memStore.Add(strings.Join(args, " "), "note", []string{"manual"}, nil)
			if err != nil {
				return err
			}
			fmt.Printf("stored #%d\n", m.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a memory by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id: %s", args[0])
			}
			app, err := buildApp(loadConfig())
			if err != nil {
				return err
			}
			defer app.Close()
			if app.memStore == nil {
				return fmt.Errorf("memory is disabled in config")
			}
			return app.memStore.Delete(id)
		},
	})

	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past conversations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recent conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(loadConfig())
			if err != nil {
				return err
			}
			defer app.Close()

			convs, err := app.histStore.ListConversations(cmd.Context(), 20)
			if err != nil {
				return err
			}
			for _, c := range convs {
				fmt.Printf("%s  %s  %s\n", c.ID, c.UpdatedAt.Format("2006-01-02 15:04"), c.Title)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <conversation-id>",
		Short: "Print a conversation transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(loadConfig())
			if err != nil {
				return err
			}
			defer app.Close()

			msgs, err := app.histStore.Messages(cmd.Context(), args[0], 200)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				tag := m.Role
				if m.Provider != "" {
					tag += "/" + m.Provider
				}
				fmt.Printf("[%s] %s\n", tag, m.Content)
			}
			return nil
		},
	})

	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and session counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			router := buildRouter(cfg, logger)

			fmt.Println("config:", resolveConfigPath())
			fmt.Println("backends:", strings.Join(router.Available(), ", "))
			fmt.Println("routing mode:", router.Mode())
			fmt.Printf("token threshold: %d\n", cfg.Routing.TokenThreshold)
			fmt.Println("memory:", cfg.Memory.Path)
			fmt.Println("history:", cfg.History.DBPath)
			fmt.Print(metrics.Collector.Summary())
			return nil
		},
	}
}

// newTaskRunner wires the multi-agent runner against the app's router and
// research pipeline.
func newTaskRunner(app *app) *agent.TaskRunner {
	return agent.NewTaskRunner(agent.TaskRunnerConfig{
		Router: app.router,
		Research: func(ctx context.Context, query string) (string, error) {
			res := app.pipeline.SearchAndRead(ctx, query)
			if res.Err != nil {
				return "", res.Err
			}
			return web.FormatWithCitations(res), nil
		},
		Logger: logger,
	})
}
