package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/bluewin4/infinite-contract/internal/agent"
	"github.com/bluewin4/infinite-contract/internal/arena"
	"github.com/bluewin4/infinite-contract/internal/engine/game"
	"github.com/bluewin4/infinite-contract/internal/persistence/gamelog"
	"github.com/bluewin4/infinite-contract/internal/persistence/profiledb"
	"github.com/bluewin4/infinite-contract/internal/persistence/snapshot"
	"github.com/bluewin4/infinite-contract/internal/transport/ws"
)

func main() {
	var (
		configPath = flag.String("config", "./configs/arena.yaml", "arena config path")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		dbPath     = flag.String("db", "", "profile db path (default: <data>/profiles.db)")
		games      = flag.Int("games", 1, "number of games to play")
		listen     = flag.String("listen", "", "ws listen address for remote agents (empty: local scripted mode)")
		stats      = flag.String("stats", "", "print a player profile and exit")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[arena] ", log.LstdFlags|log.Lmicroseconds)

	if *dbPath == "" {
		*dbPath = filepath.Join(*dataDir, "profiles.db")
	}

	if *stats != "" {
		if err := printStats(*dbPath, *stats); err != nil {
			logger.Fatalf("stats: %v", err)
		}
		return
	}

	cfg, err := arena.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	gc, err := cfg.GameConfig()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	store, err := profiledb.Open(*dbPath)
	if err != nil {
		logger.Fatalf("open profile db: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Printf("close profile db: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *listen != "" {
		if err := runRemote(ctx, logger, gc, *listen, *games, *dataDir, store); err != nil {
			logger.Fatalf("remote games: %v", err)
		}
		return
	}
	if err := runLocal(ctx, logger, cfg, gc, *games, *dataDir, store); err != nil {
		logger.Fatalf("local games: %v", err)
	}
}

// runLocal plays n independent games in parallel, each with fresh scripted
// agents. Instances share nothing but the immutable startup configuration.
func runLocal(ctx context.Context, logger *log.Logger, cfg arena.Config, gc game.Config, n int, dataDir string, store *profiledb.Store) error {
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a1, err := cfg.Players[0].ScriptedAgent()
			if err != nil {
				errs <- err
				return
			}
			a2, err := cfg.Players[1].ScriptedAgent()
			if err != nil {
				errs <- err
				return
			}
			g, err := game.New(gc, [2]agent.Agent{a1, a2})
			if err != nil {
				errs <- err
				return
			}
			res, err := g.Run(ctx)
			if err != nil {
				errs <- err
				return
			}
			if err := persist(dataDir, store, g, res); err != nil {
				errs <- err
				return
			}
			logger.Printf("game %s finished: %s", res.GameID, outcome(res))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func runRemote(ctx context.Context, logger *log.Logger, gc game.Config, addr string, n int, dataDir string, store *profiledb.Store) error {
	srv := ws.NewServer(gc, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", srv.Handler())
	httpSrv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("http: %v", err)
		}
	}()
	defer httpSrv.Close()
	logger.Printf("waiting for agents on ws://%s/v1/ws", addr)

	for i := 0; i < n; i++ {
		res, err := srv.RunGame(ctx)
		if err != nil {
			return err
		}
		if err := recordResult(dataDir, store, res); err != nil {
			return err
		}
		logger.Printf("game %s finished: %s", res.GameID, outcome(res))
	}
	return nil
}

func persist(dataDir string, store *profiledb.Store, g *game.Game, res game.Result) error {
	snapPath := filepath.Join(dataDir, "snapshots", res.GameID+".snap.zst")
	if err := snapshot.Save(snapPath, snapshot.Capture(res.GameID, g.Contract(), g.History())); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return recordResult(dataDir, store, res)
}

func recordResult(dataDir string, store *profiledb.Store, res game.Result) error {
	lw := gamelog.NewWriter(filepath.Join(dataDir, "gamelogs"), res.GameID)
	for _, r := range res.Records {
		if err := lw.Write(r); err != nil {
			_ = lw.Close()
			return fmt.Errorf("game log: %w", err)
		}
	}
	if err := lw.Close(); err != nil {
		return fmt.Errorf("game log: %w", err)
	}
	return store.RecordResult(res)
}

func printStats(dbPath, playerID string) error {
	store, err := profiledb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	p, err := store.Profile(context.Background(), playerID)
	if err != nil {
		return err
	}
	fmt.Printf("player:           %s\n", p.PlayerID)
	fmt.Printf("games:            %d\n", p.Games)
	fmt.Printf("wins:             %d (%.1f%%)\n", p.Wins, p.WinRate*100)
	fmt.Printf("avg turns to win: %.1f\n", p.AvgTurnsToWin)
	for kind, n := range p.MoveKinds {
		fmt.Printf("moves %-12s %d\n", kind, n)
	}
	return nil
}

func outcome(res game.Result) string {
	if res.Draw {
		return fmt.Sprintf("draw after %d turns", res.Turns)
	}
	return fmt.Sprintf("%s wins on turn %d", res.Winner, res.Turns)
}
