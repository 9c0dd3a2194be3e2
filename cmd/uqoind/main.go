// Command uqoind is the daemon entrypoint (C11, SPEC_FULL.md §4.11):
// opens the store, replays state, runs the mining loop, and serves the
// read-only JSON API. Grounded on the teacher's cmd/rivined cobra root
// command shape and pkg/cli's exit-code conventions.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/uqoin/uqoin/api"
	"github.com/uqoin/uqoin/build"
	"github.com/uqoin/uqoin/crypto"
	"github.com/uqoin/uqoin/daemon"
	"github.com/uqoin/uqoin/pkg/cli"
)

func main() {
	var (
		dataDir      string
		apiAddr      string
		validatorHex string
		complexity   uint64
		groupsMax    int
		mineInterval time.Duration
	)

	root := &cobra.Command{
		Use:     "uqoind",
		Short:   "uqoind runs the uqoin validator daemon",
		Version: build.Version.String(),
		Run: func(*cobra.Command, []string) {
			if validatorHex == "" {
				cli.Die("a --validator-key is required")
			}
			skWord, err := crypto.FromHex(validatorHex)
			if err != nil {
				cli.Die("malformed validator key:", err)
			}

			if err := os.MkdirAll(dataDir, 0700); err != nil {
				cli.Die("failed to create data directory:", err)
			}

			d, err := daemon.New(daemon.Config{
				StorePath:    filepath.Join(dataDir, "uqoin.db"),
				LogPath:      filepath.Join(dataDir, "uqoind.log"),
				ValidatorKey: crypto.SecretKey(skWord),
				Complexity:   complexity,
				GroupsMax:    groupsMax,
				MineInterval: mineInterval,
			})
			if err != nil {
				cli.Die("failed to start daemon:", err)
			}

			server := &http.Server{Addr: apiAddr, Handler: api.Router(d)}
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					cli.Die("api server failed:", err)
				}
			}()
			fmt.Println("uqoind serving API on", apiAddr)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig

			fmt.Println("uqoind shutting down")
			_ = server.Close()
			if err := d.Close(); err != nil {
				cli.Die("daemon shutdown failed:", err)
			}
		},
	}

	root.Flags().StringVar(&dataDir, "data-dir", "./uqoind-data", "directory holding the block store and log")
	root.Flags().StringVar(&apiAddr, "api-addr", "127.0.0.1:23110", "address the read-only JSON API listens on")
	root.Flags().StringVar(&validatorHex, "validator-key", "", "hex-encoded validator secret key")
	root.Flags().Uint64Var(&complexity, "complexity", 24, "proof-of-work complexity (leading zero bits at size 1)")
	root.Flags().IntVar(&groupsMax, "groups-max", 64, "maximum pending groups to include per mined block")
	root.Flags().DurationVar(&mineInterval, "mine-interval", time.Second, "how often to attempt mining a block")

	if err := root.Execute(); err != nil {
		cli.DieWithError("uqoind failed", err)
	}
}
