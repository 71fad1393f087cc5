package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/action"
	"github.com/suspectuso/ton-staking-console/internal/config"
	"github.com/suspectuso/ton-staking-console/internal/confirm"
	"github.com/suspectuso/ton-staking-console/internal/console"
	"github.com/suspectuso/ton-staking-console/internal/ledger"
	"github.com/suspectuso/ton-staking-console/internal/notifier"
	"github.com/suspectuso/ton-staking-console/internal/operator"
	"github.com/suspectuso/ton-staking-console/internal/staking"
	"github.com/suspectuso/ton-staking-console/internal/storage"
	"github.com/suspectuso/ton-staking-console/internal/telegram"
	"github.com/suspectuso/ton-staking-console/internal/tonapi"
)

var (
	stakingAddr string
	timeout     time.Duration
	interval    time.Duration
	testnet     bool
	verbose     bool
	dbPath      string

	historyLimit int
	historyID    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "staking-console",
		Short:         "Operator console for a TON jetton staking contract",
		RunE:          runConsole,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&stakingAddr, "staking", "", "staking contract address (overrides STAKING_ADDRESS)")
	flags.DurationVar(&timeout, "timeout", 0, "confirmation timeout (overrides CONFIRM_TIMEOUT)")
	flags.DurationVar(&interval, "interval", 0, "poll interval (overrides POLL_INTERVAL)")
	flags.BoolVar(&testnet, "testnet", false, "use the testnet")
	flags.BoolVar(&verbose, "verbose", false, "debug logging")
	flags.StringVar(&dbPath, "db", "", "journal database path (overrides DB_PATH)")

	consoleCmd := &cobra.Command{
		Use:   "console",
		Short: "Run the interactive console (default)",
		RunE:  runConsole,
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Print the contract state and exit",
		RunE:  runInfo,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled actions, newest first",
		RunE:  runHistory,
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of entries")
	historyCmd.Flags().StringVar(&historyID, "id", "", "show a single entry in full")

	encodeCmd := &cobra.Command{
		Use:   "encode <operation> [args...]",
		Short: "Print the message body of an operation as a base64 BoC",
		Long:  encodeUsage,
		Args:  cobra.MinimumNArgs(1),
		RunE:  runEncode,
	}

	rootCmd.AddCommand(consoleCmd, infoCmd, historyCmd, encodeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads .env and the environment, applies flags and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	envErr := godotenv.Load()

	cfg := config.Load()
	f := cmd.Flags()
	if testnet {
		cfg.UseTestnet()
	}
	if f.Changed("staking") {
		cfg.StakingAddress = stakingAddr
	}
	if f.Changed("timeout") {
		cfg.ConfirmTimeout = timeout
	}
	if f.Changed("interval") {
		cfg.PollInterval = interval
	}
	if f.Changed("db") {
		cfg.DBPath = dbPath
	}
	if verbose {
		cfg.LogLevel = slog.LevelDebug
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(log)

	if envErr != nil {
		log.Debug("no .env file found")
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	return cfg, log, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func configuredContract(cfg *config.Config) (*ton.AccountID, error) {
	if cfg.StakingAddress == "" {
		return nil, nil
	}
	id, err := ton.ParseAccountID(cfg.StakingAddress)
	if err != nil {
		return nil, fmt.Errorf("parse staking address: %w", err)
	}
	return &id, nil
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	api := tonapi.NewClient(cfg.TonAPIBaseURL, cfg.TonAPIKey, cfg.TonAPIRPS)
	log.Info("tonapi client initialized", "base_url", cfg.TonAPIBaseURL, "network", cfg.Network)

	prompt := console.NewTerminal(os.Stdin, os.Stdout, cfg.Testnet())

	// Operator wallet
	var (
		sender ledger.Broadcaster
		opAddr *ton.AccountID
	)
	words, err := operator.NewMnemonicSource(cfg.WalletMnemonic).Get()
	switch {
	case errors.Is(err, operator.ErrNoWallet):
		log.Warn("no operator wallet, messages cannot be sent")
	case err != nil:
		return fmt.Errorf("mnemonic: %w", err)
	default:
		w, err := operator.Open(words, cfg.WalletVersion, cfg.Testnet(), log)
		if err != nil {
			return err
		}
		addr := w.Address()
		sender, opAddr = w, &addr
		prompt.Say("Operator wallet: %s", addr.ToHuman(false, cfg.Testnet()))
	}
	client := ledger.Combine(api, sender)

	configured, err := configuredContract(cfg)
	if err != nil {
		return err
	}
	addr, err := console.SelectContract(ctx, prompt, api, configured, cfg.Testnet())
	if errors.Is(err, action.ErrAborted) {
		return nil
	}
	if err != nil {
		return err
	}
	contract := staking.NewContract(api, addr)
	log.Info("contract selected", "address", addr.ToHuman(true, cfg.Testnet()))

	// Journal
	var (
		journal notifier.Journal
		store   *storage.Storage
	)
	if cfg.DBPath != "" {
		store, err = storage.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		defer store.Close()
		journal = store
		log.Info("storage initialized", "path", cfg.DBPath)
	}

	// Telegram
	var reports notifier.Sender
	if cfg.TelegramEnabled() {
		bot, err := telegram.New(cfg.BotToken, cfg.ReportChatID,
			infoView(contract, cfg.Testnet()), historyView(store, addr), log)
		if err != nil {
			return fmt.Errorf("init telegram bot: %w", err)
		}
		reports = bot
		go bot.Start(ctx)
		log.Info("telegram bot initialized", "chat_id", cfg.ReportChatID)
	}

	session := &action.Session{
		Contract: contract,
		Operator: opAddr,
		Ledger:   client,
		Engine:   confirm.New(client, cfg.PollInterval, log),
		Prompt:   prompt,
		Timeout:  cfg.ConfirmTimeout,
		Testnet:  cfg.Testnet(),
		Log:      log,
	}
	c := console.New(session, notifier.New(journal, reports, cfg.Testnet(), log), log)

	err = c.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("shutting down...")
		return nil
	}
	return err
}

func infoView(contract *staking.Contract, testnet bool) telegram.ViewFunc {
	return func(ctx context.Context) (string, error) {
		snap, err := contract.Snapshot(ctx)
		if err != nil {
			return "", err
		}
		return notifier.FormatInfo(contract.Address, snap, testnet), nil
	}
}

func historyView(store *storage.Storage, addr ton.AccountID) telegram.ViewFunc {
	if store == nil {
		return nil
	}
	return func(ctx context.Context) (string, error) {
		recs, err := store.ListActions(addr.String(), 10)
		if err != nil {
			return "", err
		}
		return notifier.FormatHistory(recs), nil
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	api := tonapi.NewClient(cfg.TonAPIBaseURL, cfg.TonAPIKey, cfg.TonAPIRPS)
	prompt := console.NewTerminal(os.Stdin, os.Stdout, cfg.Testnet())

	configured, err := configuredContract(cfg)
	if err != nil {
		return err
	}
	addr, err := console.SelectContract(ctx, prompt, api, configured, cfg.Testnet())
	if err != nil {
		return err
	}

	snap, err := staking.NewContract(api, addr).Snapshot(ctx)
	if err != nil {
		return err
	}
	for _, line := range action.InfoLines(snap, cfg.Testnet()) {
		fmt.Println(line)
	}
	return nil
}
