// Command sierra-agent is the Sierra Outfitters customer-service chatbot: a
// REPL that forwards each line to the language model and prints the reply.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sierra-outfitters/sierra-agent/internal/agent"
	"github.com/sierra-outfitters/sierra-agent/internal/app"
	"github.com/sierra-outfitters/sierra-agent/internal/config"
)

const (
	welcomeMessage = "🏔️  Welcome to Sierra Outfitters Customer Service! 🏔️"
	exitMessage    = "\nThanks for choosing Sierra Outfitters! Onward into the unknown! 🏔️"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Please create a .env file with your OPENAI_API_KEY")
		os.Exit(1)
	}

	components, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}

	os.Exit(runREPL(components.NewOrchestrator()))
}

// runREPL reads lines until exit/quit, EOF, or an interrupt, and prints one
// agent reply per line. Per-turn errors apologize and continue; only startup
// can fail the process.
func runREPL(orchestrator *agent.Orchestrator) int {
	fmt.Println(welcomeMessage)
	fmt.Println("Type 'exit' or 'quit' to end the conversation, or Ctrl+C to quit.")
	fmt.Println()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-interrupt
		fmt.Println(exitMessage)
		os.Exit(0)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			// EOF, e.g. piped input ran out.
			fmt.Println(exitMessage)
			return 0
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if lower := strings.ToLower(input); lower == "exit" || lower == "quit" {
			fmt.Println(exitMessage)
			return 0
		}

		reply, err := orchestrator.ProcessMessage(context.Background(), input)
		if err != nil {
			log.Printf("turn failed: %v", err)
		}
		fmt.Printf("\nSierra Agent: %s\n\n", reply)
	}
}
