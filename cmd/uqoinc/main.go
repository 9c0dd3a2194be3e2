// Command uqoinc is the offline companion CLI (C11, SPEC_FULL.md §6):
// generate or recover a key, mine a single coin, and build a signed
// transaction — none of it touching a running daemon or the network.
// Grounded on the teacher's cmd/rivinec entrypoint shape (one root cobra
// command, one subcommand per concern) and pkg/cli's Die/DieWithExitCode
// exit-code conventions.
package main

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/uqoin/uqoin/build"
	"github.com/uqoin/uqoin/coin"
	"github.com/uqoin/uqoin/crypto"
	"github.com/uqoin/uqoin/pkg/cli"
	"github.com/uqoin/uqoin/seed"
	"github.com/uqoin/uqoin/txn"
)

func main() {
	root := &cobra.Command{
		Use:     "uqoinc",
		Short:   "uqoinc is the offline CLI for uqoin keys, mining and transactions",
		Version: build.Version.String(),
	}
	root.AddCommand(
		newKeyCmd(),
		newMineCmd(),
		newTxCmd(),
	)
	if err := root.Execute(); err != nil {
		cli.DieWithError("uqoinc failed", err)
	}
}

func newKeyCmd() *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "generate or recover a secret key",
	}
	keyCmd.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "generate a fresh secret key and its mnemonic backup",
		Run: func(*cobra.Command, []string) {
			var entropy [32]byte
			if _, err := rand.Read(entropy[:]); err != nil {
				cli.Die("failed to read entropy:", err)
			}
			mnemonic, err := seed.NewMnemonic(entropy[:])
			if err != nil {
				cli.Die("failed to derive mnemonic:", err)
			}
			material, err := seed.NewSeed(mnemonic, "")
			if err != nil {
				cli.Die("failed to derive seed:", err)
			}
			sk, err := crypto.GenerateKey(bytes.NewReader(material))
			if err != nil {
				cli.Die("failed to derive key:", err)
			}
			fmt.Println("secret key: ", crypto.W(sk).Hex())
			fmt.Println("address:    ", crypto.W(sk.Public()).Hex())
			fmt.Println("mnemonic:   ", mnemonic)
		},
	})
	var passphrase string
	recoverCmd := &cobra.Command{
		Use:   "recover [mnemonic]",
		Short: "recover a secret key from a mnemonic and optional passphrase",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			material, err := seed.NewSeed(args[0], passphrase)
			if err != nil {
				cli.Die("failed to derive seed:", err)
			}
			sk, err := crypto.GenerateKey(bytes.NewReader(material))
			if err != nil {
				cli.Die("failed to derive key:", err)
			}
			fmt.Println("secret key:", crypto.W(sk).Hex())
			fmt.Println("address:   ", crypto.W(sk.Public()).Hex())
		},
	}
	recoverCmd.Flags().StringVar(&passphrase, "passphrase", "", "optional BIP-39 passphrase")
	keyCmd.AddCommand(recoverCmd)
	return keyCmd
}

func newMineCmd() *cobra.Command {
	var minOrder uint64
	cmd := &cobra.Command{
		Use:   "mine [address]",
		Short: "mine a single coin valid for the given address",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			addr, err := crypto.FromHex(args[0])
			if err != nil {
				cli.Die("malformed address:", err)
			}
			m := coin.NewMiner(rand.Reader, addr, minOrder)
			c, err := m.Next()
			if err != nil {
				cli.Die("mining failed:", err)
			}
			order := coin.Order(c, addr)
			fmt.Println("coin:  ", c.Hex())
			fmt.Println("order: ", order)
			fmt.Println("symbol:", coin.Symbol(order))
		},
	}
	cmd.Flags().Uint64Var(&minOrder, "min-order", 0, "minimum acceptable coin order")
	return cmd
}

func newTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx [coin] [address] [secret-key] [counter]",
		Short: "build and sign a single transaction offline",
		Args:  cobra.ExactArgs(4),
		Run: func(_ *cobra.Command, args []string) {
			c, err := crypto.FromHex(args[0])
			if err != nil {
				cli.Die("malformed coin:", err)
			}
			addr, err := crypto.FromHex(args[1])
			if err != nil {
				cli.Die("malformed address:", err)
			}
			skWord, err := crypto.FromHex(args[2])
			if err != nil {
				cli.Die("malformed secret key:", err)
			}
			counter, err := strconv.ParseUint(args[3], 10, 64)
			if err != nil {
				cli.Die("malformed counter:", err)
			}
			tx, err := txn.Build(rand.Reader, c, addr, crypto.SecretKey(skWord), counter)
			if err != nil {
				cli.Die("failed to build transaction:", err)
			}
			fmt.Println("coin:    ", tx.Coin.Hex())
			fmt.Println("addr:    ", tx.Addr.Hex())
			fmt.Println("sign_r:  ", tx.SignR.Hex())
			fmt.Println("sign_s:  ", tx.SignS.Hex())
			fmt.Println("tx hash: ", tx.Hash().Hex())
		},
	}
	return cmd
}
