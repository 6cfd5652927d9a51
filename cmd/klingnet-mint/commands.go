package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/klingnet-mint/config"
	"github.com/Klingon-tech/klingnet-mint/internal/log"
	"github.com/Klingon-tech/klingnet-mint/internal/pipeline"
	"github.com/Klingon-tech/klingnet-mint/internal/token"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// errAborted is returned when the operator declines the confirmation prompt.
var errAborted = errors.New("aborted")

// ── mint ────────────────────────────────────────────────────────────────

func cmdMint(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("mint", flag.ExitOnError)
	name := fs.String("name", "", "Token name (1-64 chars)")
	description := fs.String("description", "", "Token description")
	decimals := fs.String("decimals", "0", "Decimal places (0-18)")
	quantity := fs.String("quantity", "", "Supply in display units")
	ergs := fs.String("ergs", "0.002", "ERG carried by the mint box")
	dryRun := fs.Bool("dry-run", false, "Print the unsigned transaction and exit")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Parse(args)

	if *name == "" || *quantity == "" {
		fmt.Fprintf(os.Stderr, `Usage: klingnet-mint mint [flags]

Required:
  --name <name>          Token name (1-64 chars)
  --quantity <q>         Supply in display units, e.g. 1000.5

Optional:
  --description <text>   Token description
  --decimals <n>         Decimal places, 0-18 (default: 0)
  --ergs <erg>           ERG carried by the mint box (default: 0.002)
  --dry-run              Print the unsigned transaction and exit
  --yes                  Do not ask for confirmation
`)
		os.Exit(1)
	}

	params := a.pipeline.Params()
	req, err := pipeline.NewMintRequest(pipeline.MintForm{
		Name:        *name,
		Description: *description,
		Decimals:    *decimals,
		Quantity:    *quantity,
		Ergs:        *ergs,
	}, params)
	if err != nil {
		return err
	}

	if *dryRun {
		plan, err := a.pipeline.BuildMint(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Token ID: %s\n", plan.TokenID)
		return printJSON(plan.Tx)
	}

	fmt.Fprintf(os.Stderr, "Minting %s %s (%d decimals)\n",
		token.FormatAmount(req.Amount, req.Metadata.Decimals), req.Metadata.Name, req.Metadata.Decimals)
	printFees(params, req.Payout)
	if !*yes && !confirm("Sign and submit?") {
		return errAborted
	}

	res, err := a.pipeline.Mint(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("Token minted!\n")
	fmt.Printf("  Tx ID:    %s\n", res.TxID)
	fmt.Printf("  Token ID: %s\n", res.TokenID)
	fmt.Printf("  Name:     %s\n", req.Metadata.Name)
	fmt.Printf("  Supply:   %s\n", token.FormatAmount(req.Amount, req.Metadata.Decimals))
	fmt.Println("\nThe token will be spendable once the transaction is confirmed.")
	return nil
}

// ── burn ────────────────────────────────────────────────────────────────

// burnList collects --token values of the form <id>:<amount>. A single
// value may hold several comma-separated entries.
type burnList []pipeline.BurnEntry

func (b *burnList) String() string {
	parts := make([]string, len(*b))
	for i, e := range *b {
		parts[i] = e.TokenID + ":" + e.Amount
	}
	return strings.Join(parts, ",")
}

func (b *burnList) Set(value string) error {
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		id, amount, ok := strings.Cut(item, ":")
		if !ok || id == "" || amount == "" {
			return fmt.Errorf("%q: want <token_id>:<amount>", item)
		}
		*b = append(*b, pipeline.BurnEntry{TokenID: id, Amount: amount})
	}
	return nil
}

func cmdBurn(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("burn", flag.ExitOnError)
	var entries burnList
	fs.Var(&entries, "token", "Token to burn as <id>:<amount> in raw units (repeatable)")
	ergs := fs.String("ergs", "0.001", "ERG returned alongside the burn")
	dryRun := fs.Bool("dry-run", false, "Print the unsigned transaction and exit")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Parse(args)

	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, `Usage: klingnet-mint burn [flags]

Required:
  --token <id>:<amount>  Token and raw amount to burn; repeat or
                         comma-separate for several tokens

Optional:
  --ergs <erg>           ERG returned to the wallet (default: 0.001)
  --dry-run              Print the unsigned transaction and exit
  --yes                  Do not ask for confirmation

Amounts above the wallet's holdings are clamped to what it holds.
`)
		os.Exit(1)
	}

	params := a.pipeline.Params()
	req, err := pipeline.NewBurnRequest(pipeline.BurnForm{Tokens: entries, Ergs: *ergs}, params)
	if err != nil {
		return err
	}

	plan, err := a.pipeline.BuildBurn(ctx, req)
	if err != nil {
		return err
	}
	if *dryRun {
		printBurns(a, plan.Burns)
		return printJSON(plan.Tx)
	}

	printBurns(a, plan.Burns)
	printFees(params, req.Payout)
	if !*yes && !confirm("Sign and submit?") {
		return errAborted
	}

	// Burn rebuilds against a fresh snapshot of the wallet.
	res, err := a.pipeline.Burn(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("Burn submitted!\n")
	fmt.Printf("  Tx ID: %s\n", res.TxID)
	for _, b := range res.Burns {
		fmt.Printf("  %s: %s burned\n", b.TokenID, b.Burned)
	}
	return nil
}

func printBurns(a *app, burns []token.Burn) {
	fmt.Fprintf(os.Stderr, "Burning %d token(s):\n", len(burns))
	for _, b := range burns {
		label := token.ShortID(b.TokenID)
		amount := b.Burned.String()
		if meta, err := a.tokens.Get(b.TokenID); err == nil && meta != nil {
			label = meta.Name
			amount = token.FormatAmount(b.Burned, meta.Decimals)
		}
		line := fmt.Sprintf("  %s: %s", label, amount)
		if b.Burned.Lt(b.Requested) {
			line += fmt.Sprintf(" (requested %s, clamped to balance)", b.Requested)
		}
		fmt.Fprintln(os.Stderr, line)
	}
}

// ── tokens ──────────────────────────────────────────────────────────────

func cmdTokens(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("tokens", flag.ExitOnError)
	cached := fs.Bool("cached", false, "List cached token metadata instead of wallet holdings")
	forget := fs.Bool("clear-cache", false, "Forget cached metadata for this network")
	asJSON := fs.Bool("json", false, "Print as JSON")
	fs.Parse(args)

	if *forget {
		n, err := a.cache.Clear()
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d cached entries for %s.\n", n, a.cache.Name())
		return nil
	}

	if *cached {
		entries, err := a.tokens.List()
		if err != nil {
			return err
		}
		if *asJSON {
			return printJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No cached token metadata.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("  %s  %s (%d decimals, cached %s)\n",
				e.ID, e.Name, e.Decimals, e.CachedAt.Format("2006-01-02"))
		}
		return nil
	}

	tokens, err := a.pipeline.ListTokens(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(tokens)
	}
	if len(tokens) == 0 {
		fmt.Println("The wallet holds no tokens.")
		return nil
	}

	fmt.Printf("Tokens: %d\n\n", len(tokens))
	for i, t := range tokens {
		fmt.Printf("  [%d] %s\n", i, t.Label())
		fmt.Printf("      ID:      %s\n", t.ID)
		fmt.Printf("      Balance: %s\n", t.Display)
		fmt.Printf("      Boxes:   %d\n", t.Boxes)
		fmt.Println()
	}
	return nil
}

// ── config ──────────────────────────────────────────────────────────────

func cmdConfig(flags *config.Flags, args []string) {
	if len(args) < 1 || args[0] != "init" {
		fatal("Usage: klingnet-mint config init [--force]")
	}
	fs := flag.NewFlagSet("config init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	fs.Parse(args[1:])

	network := config.Mainnet
	if strings.ToLower(flags.Network) == string(config.Testnet) {
		network = config.Testnet
	}
	cfg := config.Default(network)
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}
	path := flags.Config
	if path == "" {
		path = cfg.ConfigFile()
	}

	if _, err := os.Stat(path); err == nil && !*force {
		fatal("%s already exists (use --force to overwrite)", path)
	}
	if err := config.EnsureDataDirs(cfg); err != nil {
		fatal("%v", err)
	}
	if err := config.WriteDefaultConfig(path, network); err != nil {
		fatal("write config: %v", err)
	}
	fmt.Printf("Wrote %s\n", path)
	if cfg.Fee.AppAddress == "" {
		fmt.Println("Set fee.app_address before minting on this network.")
	}
}

// ── Output helpers ──────────────────────────────────────────────────────

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printFees(p pipeline.Params, payout types.Amount) {
	fmt.Fprintf(os.Stderr, "  Box value:   %s nanoERG\n", payout)
	fmt.Fprintf(os.Stderr, "  App fee:     %s nanoERG to %s\n", p.AppFee, p.AppFeeAddress)
	fmt.Fprintf(os.Stderr, "  Network fee: %s nanoERG\n", p.NetworkFee)
}

// confirm asks a yes/no question on the terminal. Non-interactive runs
// proceed without asking.
func confirm(prompt string) bool {
	if !log.IsTerminal(os.Stdin) {
		return true
	}
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
