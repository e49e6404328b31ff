package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"scout/internal/provider"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE:  runChat,
	}
}

const chatHelp = `Commands:
  !groq, !gemini   pin replies to one backend
  !auto            restore automatic routing
  !search <query>  run the research pipeline directly
  !read <url>      read one page
  !memory          show recent memories
  !history         show this conversation so far
  !clear           start a new conversation
  !help            this text
  !quit            exit`

func runChat(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	app, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("scout %s — backends: %s. Type !help for commands.\n",
		version, strings.Join(app.router.Available(), ", "))

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "!") {
			if quit := handleBang(ctx, app, line); quit {
				return nil
			}
			continue
		}

		reply, err := app.orchestrator.HandleMessage(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		if reply.Tool != "" {
			fmt.Printf("[used %s via %s]\n", reply.Tool, reply.Provider)
		} else {
			fmt.Printf("[%s]\n", reply.Provider)
		}
		fmt.Println(reply.Text)
	}
}

// handleBang processes a !command line. Returns true when the session should end.
func handleBang(ctx context.Context, app *app, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "!quit", "!exit":
		return true
	case "!help":
		fmt.Println(chatHelp)
	case "!auto":
		app.router.SetProvider(provider.AutoMode)
		fmt.Println("routing automatically")
	case "!clear":
		app.orchestrator.Reset()
		fmt.Println("new conversation:", app.orchestrator.ConversationID())
	case "!memory":
		if app.memStore == nil {
			fmt.Println("memory is disabled")
			break
		}
		for _, m := range app.memStore.Recent(10) {
			fmt.Printf("  #%d [%s] %s (recalled %d times)\n", m.ID, m.Type, m.Content, m.AccessCount)
		}
	case "!history":
		if app.histStore == nil {
			fmt.Println("history is disabled")
			break
		}
		msgs, err := app.histStore.Messages(ctx, app.orchestrator.ConversationID(), 50)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			break
		}
		if len(msgs) == 0 {
			fmt.Println("nothing persisted for this conversation yet")
			break
		}
		for _, m := range msgs {
			label := m.Role
			if m.Provider != "" {
				label += "/" + m.Provider
			}
			fmt.Printf("  [%s] %s\n", label, m.Content)
		}
	case "!search":
		if len(fields) < 2 {
			fmt.Println("usage: !search <query>")
			break
		}
		res := app.pipeline.SearchAndRead(ctx, strings.Join(fields[1:], " "))
		if res.Err != nil {
			fmt.Fprintln(os.Stderr, "error:", res.Err)
			break
		}
		fmt.Println(formatResearch(res))
	case "!read":
		if len(fields) != 2 {
			fmt.Println("usage: !read <url>")
			break
		}
		out, err := app.executor.Run(ctx, parseRead(fields[1]))
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			break
		}
		fmt.Println(out)
	default:
		// Bare backend name pins routing: !groq, !gemini, ...
		name := strings.TrimPrefix(fields[0], "!")
		if err := app.router.SetProvider(name); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			break
		}
		fmt.Println("pinned to", name)
	}
	return false
}
