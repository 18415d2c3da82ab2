package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	catalogx "github.com/zensbot/leadflow/agent/catalog"
	contractx "github.com/zensbot/leadflow/agent/contract"
	leadx "github.com/zensbot/leadflow/agent/lead"
	llmx "github.com/zensbot/leadflow/agent/llm"
	memoryx "github.com/zensbot/leadflow/agent/memory"
	nodex "github.com/zensbot/leadflow/agent/nodes"
	"github.com/zensbot/leadflow/agent/orchestrator"
	promptx "github.com/zensbot/leadflow/agent/prompt"
	toolx "github.com/zensbot/leadflow/agent/tool"
	configx "github.com/zensbot/leadflow/pkg/config"
	_ "github.com/zensbot/leadflow/pkg/logger/autoload"
	openrouterx "github.com/zensbot/leadflow/pkg/openrouter"
)

type AppConfig struct {
	SummarizeInterval int `envconfig:"SUMMARIZE_INTERVAL" split_words:"true" default:"10"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("AGENT")

	llmCfg := configx.MustNew[llmx.Config]("LLM")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid llm config")
	}

	chatCfg := llmCfg.OpenRouterFor(llmx.PurposeChat)
	chatModel, err := chatCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build chat model")
	}
	generator, err := llmx.NewClient(chatModel)
	if err != nil {
		log.Fatal().Err(err).Msg("build generator")
	}

	summarizerCfg := llmCfg.OpenRouterFor(llmx.PurposeSummarizer)
	summarizerModel, err := summarizerCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build summarizer model")
	}
	summarizerClient, err := llmx.NewClient(summarizerModel)
	if err != nil {
		log.Fatal().Err(err).Msg("build summarizer client")
	}
	prompts := promptx.LoadPromptSet()
	summarizer := memoryx.NewSummarizer(summarizerClient, prompts.Summarizer)

	sdkClient := openrouterx.NewClient(chatCfg)
	if sdkClient == nil {
		log.Fatal().Msg("failed to initialize openrouter sdk client")
	}
	embedder, err := llmx.NewOpenAIEmbedder(sdkClient, llmCfg.EmbeddingModel)
	if err != nil {
		log.Fatal().Err(err).Msg("build embedder")
	}
	index := memoryx.NewSemanticIndex(embedder)

	storeCfg := configx.MustNew[leadx.StoreConfig]("LEAD_STORE")
	if storeCfg.TurnCap > 0 && appCfg.SummarizeInterval > storeCfg.TurnCap {
		log.Fatal().
			Int("turn_cap", storeCfg.TurnCap).
			Int("summarize_interval", appCfg.SummarizeInterval).
			Msg("summarize interval must not exceed the turn cap")
	}
	store, err := leadx.NewFileStore(*storeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open lead store")
	}

	var catalog nodex.CatalogContext
	var tools *toolx.Executor
	if pgCfg, err := configx.New[catalogx.PostgresConfig]("SUPABASE"); err != nil {
		log.Warn().Err(err).Msg("catalog database not configured, continuing without catalog")
	} else {
		source, err := catalogx.NewPostgresSource(*pgCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("connect catalog database")
		}
		service, err := catalogx.NewService(source)
		if err != nil {
			log.Fatal().Err(err).Msg("build catalog service")
		}
		catalog = service
		tools = toolx.NewExecutor(service)
	}

	svc, err := orchestrator.New(store, generator, toolExecutor(tools), index, catalog, summarizer, orchestrator.Config{
		SummarizeInterval: appCfg.SummarizeInterval,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	log.Info().Str("model", chatCfg.Model).Msg("agent ready")
	runREPL(ctx, svc)
}

func runREPL(ctx context.Context, svc *orchestrator.Service) {
	fmt.Println("Course advisor agent. Type a message, or /help for commands.")

	conversationID := ""
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runCommand(ctx, svc, &conversationID, line); quit {
				return
			}
			continue
		}

		res, err := svc.Chat(ctx, conversationID, line)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		conversationID = res.ConversationID
		fmt.Println(res.Reply)
		if res.StageChanged {
			fmt.Printf("[stage -> %s]\n", res.Stage)
		}
	}
}

func runCommand(ctx context.Context, svc *orchestrator.Service, conversationID *string, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println(`commands:
  /new                start a fresh conversation
  /stage              show the current funnel stage
  /setstage STAGE     manually override the stage
  /leads STAGE        list leads at a stage
  /stats              funnel statistics
  /history [n]        recent turns of this conversation
  /search QUERY       search conversation memory
  /quit               exit`)

	case "/new":
		*conversationID = ""
		fmt.Println("started a new conversation")

	case "/stage":
		stage, err := svc.Stage(*conversationID)
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		fmt.Println(stage)

	case "/setstage":
		stage, err := leadx.ParseStage(arg)
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		if _, err := svc.SetStage(*conversationID, stage); err != nil {
			fmt.Println("error:", err)
			return false
		}
		fmt.Printf("stage set to %s\n", stage)

	case "/leads":
		stage, err := leadx.ParseStage(arg)
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		for _, l := range svc.LeadsByStage(stage) {
			name := "-"
			if l.Data.Name != nil {
				name = *l.Data.Name
			}
			fmt.Printf("%s  %s  since %s\n", l.ConversationID, name, l.StageUpdatedAt.Format("2006-01-02 15:04"))
		}

	case "/stats":
		stats := svc.Stats()
		fmt.Printf("total leads: %d, conversion: %.1f%%\n", stats.TotalLeads, stats.ConversionRate)
		for _, stage := range leadx.AllStages {
			if n := stats.ByStage[stage]; n > 0 {
				fmt.Printf("  %-20s %d\n", stage, n)
			}
		}

	case "/history":
		n := 10
		if arg != "" {
			fmt.Sscanf(arg, "%d", &n)
		}
		turns, err := svc.History(*conversationID, n)
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		for _, t := range turns {
			fmt.Printf("user: %s\nagent: %s\n", t.UserMessage, t.AssistantMessage)
		}

	case "/search":
		hits, err := svc.SearchMemory(ctx, arg, 5)
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		for _, h := range hits {
			fmt.Printf("%.2f  %s  %s\n", h.Score, h.ConversationID, h.Summary)
		}

	default:
		fmt.Println("unknown command, try /help")
	}
	return false
}

// toolExecutor keeps the nil-interface trap out of the wiring: a nil
// *Executor must become a nil interface, not a non-nil interface holding nil.
func toolExecutor(e *toolx.Executor) contractx.ToolExecutor {
	if e == nil {
		return nil
	}
	return e
}
