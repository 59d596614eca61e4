package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"courier/internal/agent"
	"courier/internal/ai"
	"courier/internal/channels"
	"courier/internal/channels/telegram"
	"courier/internal/chunker"
	"courier/internal/config"
	"courier/internal/gateway"
	"courier/internal/heartbeat"
	"courier/internal/persona"
	"courier/internal/sessions"
	"courier/internal/version"
)

var (
	cfgFile string
	verbose bool

	splitMarkers []string
	splitMinSize int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "courier",
	Short: "Courier - personal AI assistant relay",
	Long: `Courier relays chat messages between messaging channels and an AI
provider. Long replies are split into multiple delivered messages at
inline markers the model emits, so conversations read like texting
instead of essays.`,
	Version: version.Full(),
}

// serveCmd starts the relay
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay",
	Long:  `Start the relay: connect channel adapters, open the session store and process messages until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// versionCmd prints detailed build information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Courier %s\n", version.Full())
		buildInfo := version.GetBuildInfo()

		if buildInfo.GitCommit != "unknown" {
			fmt.Printf("Git commit: %s\n", buildInfo.GitCommit)
		}
		if buildInfo.BuildDate != "unknown" {
			fmt.Printf("Build date: %s\n", buildInfo.BuildDate)
		}
		fmt.Printf("Go version: %s\n", buildInfo.GoVersion)
		return nil
	},
}

// splitCmd runs the chunk splitter on text from args or stdin, printing one
// chunk per block. Handy for eyeballing how a reply will be delivered.
var splitCmd = &cobra.Command{
	Use:   "split [text]",
	Short: "Split text at chunk markers and print the resulting messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		var text string
		if len(args) > 0 {
			text = strings.Join(args, " ")
		} else {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			text = string(data)
		}

		markers := splitMarkers
		if len(markers) == 0 {
			markers = chunker.DefaultMarkers()
		}

		chunks := chunker.Split(text, markers, splitMinSize)
		for i, chunk := range chunks {
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "---")
			}
			fmt.Fprintln(cmd.OutOrStdout(), chunk)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.json", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	splitCmd.Flags().StringSliceVar(&splitMarkers, "markers", nil, "chunk markers (default \"[MSG]\",\"<nl>\")")
	splitCmd.Flags().IntVar(&splitMinSize, "min-size", chunker.DefaultMinChunkSize, "minimum chunk size before merging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(splitCmd)

	// No subcommand defaults to serve
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	}
}

func runServe() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if verbose || cfg.Debug.VerboseLogging {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.Println("Verbose logging enabled")
	}

	store, err := sessions.NewStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	var p *persona.Persona
	if cfg.Agent.PersonaFile != "" {
		p, err = persona.LoadFile(cfg.Agent.PersonaFile)
		if err != nil {
			return fmt.Errorf("failed to load persona: %w", err)
		}
		log.Printf("[Courier] Loaded persona: %s", p.Name)
	}

	providers, defaultProvider, err := ai.NewProviders(cfg.AI)
	if err != nil {
		return fmt.Errorf("failed to configure AI providers: %w", err)
	}

	promptBuilder := agent.NewPromptBuilder(cfg.Agent, &cfg.Chunking, p, cfg.GetLocation())

	manager := channels.NewManager(&cfg.Chunking)
	manager.RegisterFactory(telegram.NewFactory())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := manager.Start(ctx, channelConfigs(cfg)); err != nil {
		return fmt.Errorf("failed to start channels: %w", err)
	}

	gw := gateway.New(store, manager, providers, defaultProvider, promptBuilder)
	go gw.Run(ctx, manager.ReceiveMessages())

	hb := heartbeat.New(cfg.Heartbeat, gw.HandleIncoming)
	if err := hb.Start(ctx); err != nil {
		return fmt.Errorf("failed to start heartbeat: %w", err)
	}

	log.Printf("[Courier] %s started with provider %s", version.Full(), defaultProvider)
	<-ctx.Done()

	log.Println("[Courier] Shutting down")
	hb.Stop()
	if err := manager.Stop(); err != nil {
		log.Printf("[Courier] Error stopping channels: %v", err)
	}

	log.Println("[Courier] Stopped gracefully")
	return nil
}

// channelConfigs maps config entries to the channel manager's form. The
// channel name doubles as its ID.
func channelConfigs(cfg *config.Config) []channels.ChannelConfig {
	out := make([]channels.ChannelConfig, 0, len(cfg.Channels))
	for _, c := range cfg.Channels {
		out = append(out, channels.ChannelConfig{
			ID:      c.Name,
			Type:    c.Type,
			Name:    c.Name,
			Enabled: c.Enabled,
			Config:  c.Config,
		})
	}
	return out
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
