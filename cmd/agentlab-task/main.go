// agentlab-task executes one task payload against the configured backends and
// prints the outcome recorded on the assistant message.
//
// Usage:
//
//	agentlab-task -config agentlab.yaml -payload task.json
//	echo '{"chatId":"c1",...}' | agentlab-task -config agentlab.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/hupe1980/agentlab"
	"github.com/hupe1980/agentlab/config"
	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/task"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("agentlab-task", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("AGENTLAB_CONFIG"), "path to the YAML config file")
	payloadPath := fs.String("payload", "-", "task payload file, - reads stdin")
	timeout := fs.Duration("timeout", 10*time.Minute, "upper bound for the whole task")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	red := color.New(color.FgRed, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	cfg, err := config.Load(*configPath)
	if err != nil {
		red.Fprintf(stdout, "config: %v\n", err)
		return 1
	}

	req, err := readPayload(*payloadPath, stdin)
	if err != nil {
		red.Fprintf(stdout, "payload: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	lab, err := agentlab.NewFromConfig(ctx, cfg)
	if err != nil {
		red.Fprintf(stdout, "init: %v\n", err)
		return 1
	}
	defer lab.Close()

	cyan.Fprintf(stdout, "running message %s in chat %s\n", req.AssistantMessageID, req.ChatID)

	execErr := lab.Execute(ctx, req)

	msg, err := lab.DocumentStore().GetMessage(context.Background(), req.ChatID, req.AssistantMessageID)
	if err != nil || msg.Run == nil {
		if execErr == nil {
			execErr = err
		}
		red.Fprintf(stdout, "failed: %v\n", execErr)
		return 1
	}

	switch msg.Run.Status {
	case core.RunStatusCompleted:
		green.Fprintf(stdout, "completed (%d events)\n", len(msg.Run.OutputEvents))
		fmt.Fprintln(stdout, msg.Run.FinalResponseText)
		return 0
	default:
		yellow.Fprintf(stdout, "%s (%d events)\n", msg.Run.Status, len(msg.Run.OutputEvents))
		for _, d := range msg.Run.QueryErrorDetails {
			red.Fprintf(stdout, "  - %s\n", d)
		}
		if msg.Run.FinalResponseText != "" {
			fmt.Fprintln(stdout, msg.Run.FinalResponseText)
		}
		return 1
	}
}

func readPayload(path string, stdin io.Reader) (task.Request, error) {
	if path == "-" || path == "" {
		return task.DecodeRequest(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return task.Request{}, err
	}
	defer f.Close()

	return task.DecodeRequest(f)
}
