// powledger runs the ledger demonstration: it bootstraps a chain, mines and
// appends a block, then tries to append blocks that skip the chain tip.
//
// Usage:
//
//	powledger [--threads=N --timeout=30s]  Run the demo
//	powledger --help                      Show help
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Klingon-tech/powledger/config"
	"github.com/Klingon-tech/powledger/internal/chain"
	"github.com/Klingon-tech/powledger/internal/consensus"
	"github.com/Klingon-tech/powledger/internal/log"
	"github.com/Klingon-tech/powledger/internal/miner"
)

const version = "0.1.0"

func main() {
	cfg, flags, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	switch {
	case flags.Help:
		config.PrintUsage(os.Stdout)
		return
	case flags.Version:
		fmt.Println("powledger version " + version)
		return
	case flags.WriteConfig:
		if flags.Config == "" {
			fmt.Fprintln(os.Stderr, "Error: --write-config requires --config")
			os.Exit(1)
		}
		if err := config.WriteDefaultConfig(flags.Config); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.Error().Err(err).Msg("demo failed")
		os.Exit(1)
	}
}

// run executes the fixed demo sequence, printing the chain after each step.
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	pow, err := consensus.NewPoW(config.Difficulty)
	if err != nil {
		return err
	}
	pow.Threads = cfg.Mining.Threads

	ch, err := chain.New(pow)
	if err != nil {
		return err
	}
	if err := ch.InitGenesis(); err != nil {
		return err
	}
	printChain(out, ch)

	m := miner.New(ch, pow, cfg.Mining.Timeout)
	blk, err := m.ProduceBlockCtx(ctx, []byte("Data"))
	if err != nil {
		return err
	}
	if err := ch.Append(blk); err != nil {
		return fmt.Errorf("append block %d: %w", blk.Index, err)
	}
	if err := ch.Verify(); err != nil {
		return err
	}
	printChain(out, ch)

	// Blocks linked to genesis instead of the tip must be rejected.
	genesis := ch.Blocks()[0]
	for i, payload := range []string{"Data1", "Data2"} {
		index := uint64(3 + i)
		rogue, err := pow.MineCtx(ctx, index, genesis.Hash, []byte(payload))
		if err != nil {
			return err
		}
		err = ch.Append(rogue)
		var re *chain.RejectError
		if !errors.As(err, &re) {
			return fmt.Errorf("rogue block %d: expected rejection, got %v", index, err)
		}
		fmt.Fprintf(out, "block %d rejected: %s\n", index, re.Reason)
		if err := ch.Verify(); err != nil {
			return err
		}
		printChain(out, ch)
	}
	return nil
}

func printChain(w io.Writer, ch *chain.Chain) {
	blocks := ch.Blocks()
	fmt.Fprintf(w, "Chain (%d blocks):\n", len(blocks))
	for _, b := range blocks {
		fmt.Fprintf(w, "  %s\n", b)
	}
}

// Compile-time check that Chain satisfies the miner's view.
var _ miner.ChainState = (*chain.Chain)(nil)
