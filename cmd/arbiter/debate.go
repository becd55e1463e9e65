package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/config"
	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate"
	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate/verdict"
	"github.com/lorenzotomasdiez/stance-arbiter/internal/llm"
	"github.com/lorenzotomasdiez/stance-arbiter/internal/nli"
	"github.com/lorenzotomasdiez/stance-arbiter/internal/store"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

func colorize(color, s string) string { return color + s + ansiReset }

func newDebateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debate",
		Short: "Run an interactive stance-locked debate in the terminal",
		RunE:  runDebate,
	}
	cmd.Flags().String("topic", "", "Thesis to debate (required)")
	cmd.Flags().String("stance", "pro", "Side the assistant defends: pro or con")
	cmd.MarkFlagRequired("topic")
	return cmd
}

// topicChecker is the optional gate provider adapters expose.
type topicChecker interface {
	CheckTopic(ctx context.Context, topic, language string) (bool, string, error)
}

func runDebate(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	stanceFlag, _ := cmd.Flags().GetString("stance")
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	stance := debate.Stance(strings.ToLower(stanceFlag))
	if stance != debate.StancePro && stance != debate.StanceCon {
		return fmt.Errorf("stance must be pro or con, got %q", stanceFlag)
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	generator, judge, scorer, err := buildCollaborators(cfg, logger)
	if err != nil {
		return err
	}

	if checker, ok := generator.(topicChecker); ok {
		valid, reason, err := checker.CheckTopic(ctx, topic, "en")
		if err != nil {
			fmt.Printf("Warning: topic gate unavailable: %v\n", err)
		} else if !valid {
			return fmt.Errorf("topic rejected: %s", reason)
		}
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	engine := debate.NewEngine(scorer, judge, generator,
		debate.EvidenceConfig{
			MinAssistantWords: cfg.MinAssistantWords,
			TopicSignalMin:    cfg.TopicSignalMin,
			TopicNeutralMax:   cfg.TopicNeutralMax,
		},
		debate.GateConfig{
			ConfidenceThreshold: cfg.ConfidenceThreshold,
			NoveltyMin:          cfg.NoveltyMin,
		},
		logger,
	)

	state, err := debate.NewState(topic, stance, debate.Policy{
		RequiredPositiveJudgements: cfg.RequiredPositiveJudgements,
		MaxAssistantTurns:          cfg.MaxAssistantTurns,
	})
	if err != nil {
		return err
	}
	conversationID, err := st.Create(ctx, state)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s (defending %s)\n",
		colorize(ansiCyan, "Debate:"), colorize(ansiBold, topic), strings.ToUpper(string(stance)))
	fmt.Printf("Policy: %d accepted rebuttal(s) or %d assistant turns end the debate. Ctrl+C to quit.\n\n",
		cfg.RequiredPositiveJudgements, cfg.MaxAssistantTurns)

	var transcript []debate.Turn

	// Opening statement: no user turn yet, so the engine skips judging.
	reply, err := takeTurn(ctx, engine, st, conversationID, transcript)
	if err != nil {
		return err
	}
	transcript = append(transcript, debate.Turn{Role: debate.RoleAssistant, Text: reply})
	fmt.Printf("%s %s\n\n", colorize(ansiGreen, "Assistant:"), reply)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(colorize(ansiYellow, "You: "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		userText := strings.TrimSpace(scanner.Text())
		if userText == "" {
			continue
		}
		transcript = append(transcript, debate.Turn{Role: debate.RoleUser, Text: userText})

		reply, err := takeTurn(ctx, engine, st, conversationID, transcript)
		if err != nil {
			return err
		}
		transcript = append(transcript, debate.Turn{Role: debate.RoleAssistant, Text: reply})
		fmt.Printf("\n%s %s\n\n", colorize(ansiGreen, "Assistant:"), reply)

		final, err := st.Get(ctx, conversationID)
		if err != nil {
			return err
		}
		if final.Concluded {
			fmt.Printf("%s %s (reason: %s)\n",
				colorize(ansiCyan, "Debate ended."),
				colorize(ansiBold, fmt.Sprintf("%d/%d points accepted", final.PositiveJudgements, final.Policy.RequiredPositiveJudgements)),
				final.EndReason)
			return nil
		}
	}
}

// takeTurn runs one engine turn under the store's per-conversation lock.
func takeTurn(ctx context.Context, engine *debate.Engine, st store.Store, id string, transcript []debate.Turn) (string, error) {
	var reply string
	_, err := st.Update(ctx, id, func(state *debate.State) error {
		var err error
		reply, _, err = engine.ProcessTurn(ctx, id, transcript, state)
		return err
	})
	return reply, err
}

// buildCollaborators is the composition root: expensive clients are built
// once here and injected, never cached globally.
func buildCollaborators(cfg *config.Config, logger *zap.Logger) (debate.ReplyGenerator, debate.VerdictJudge, debate.NLIScorer, error) {
	var scorer debate.NLIScorer
	if cfg.NLIBaseURL != "" {
		scorer = nli.NewClient(cfg.NLIBaseURL)
	} else {
		scorer = nli.NewOffline()
	}

	switch cfg.Provider {
	case "anthropic":
		client := llm.NewAnthropic(cfg.AnthropicAPIKey)
		return client, verdict.NewLLMJudge(client, logger), scorer, nil
	case "openai":
		client := llm.NewOpenAI(cfg.OpenAIAPIKey)
		return client, verdict.NewLLMJudge(client, logger), scorer, nil
	case "fallback":
		primary := llm.NewAnthropic(cfg.AnthropicAPIKey)
		secondary := llm.NewOpenAI(cfg.OpenAIAPIKey)
		return llm.NewFallback(primary, secondary), verdict.NewLLMJudge(primary, logger), scorer, nil
	case "dummy":
		return llm.NewDummy(), verdict.NewHeuristic(logger), scorer, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.StorePath == "" {
		return store.NewMemory(), nil
	}
	return store.OpenSQLite(cfg.StorePath)
}
