// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/matchingengine/custody"
	"github.com/luxfi/matchingengine/engine"
	"github.com/luxfi/matchingengine/messages"
	"github.com/luxfi/matchingengine/vaa"
)

const (
	flagBody    = "body"
	flagDigest  = "digest"
	flagProgram = "program"
	flagFile    = "file"
)

var errMissingFlag = errors.New("missing flag")

var digestCmd = &cli.Command{
	Name:  "digest",
	Usage: "print the digest of a message body",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: flagBody, Usage: "hex encoded message body", Required: true},
		&cli.StringFlag{Name: flagProgram, Usage: "engine program address; also prints the auction custody account"},
	},
	Action: func(cctx *cli.Context) error {
		body, err := vaa.DecodeBody(common.FromHex(cctx.String(flagBody)))
		if err != nil {
			return err
		}
		w := cctx.App.Writer
		digest := body.Digest()
		fmt.Fprintf(w, "digest:   %s\n", digest.Hex())
		fmt.Fprintf(w, "emitter:  %d/%s\n", body.EmitterChain, body.EmitterAddress)
		fmt.Fprintf(w, "sequence: %d\n", body.Sequence)
		if cctx.IsSet(flagProgram) {
			program := common.HexToAddress(cctx.String(flagProgram))
			fmt.Fprintf(w, "custody:  %s\n", custody.AuctionCustody(program, digest).Hex())
		}
		return nil
	},
}

var orderCmd = &cli.Command{
	Name:  "order",
	Usage: "decode the fast market order carried by a message body",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: flagBody, Usage: "hex encoded message body", Required: true},
	},
	Action: func(cctx *cli.Context) error {
		body, err := vaa.DecodeBody(common.FromHex(cctx.String(flagBody)))
		if err != nil {
			return err
		}
		desc, err := messages.NewOrderDescriptor(body)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cctx.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(desc)
	},
}

var custodyCmd = &cli.Command{
	Name:  "custody",
	Usage: "print every account derived for an order digest",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: flagDigest, Usage: "order digest", Required: true},
		&cli.StringFlag{Name: flagProgram, Usage: "engine program address", Required: true},
	},
	Action: func(cctx *cli.Context) error {
		digest := common.HexToHash(cctx.String(flagDigest))
		program := common.HexToAddress(cctx.String(flagProgram))
		if program == (common.Address{}) {
			return fmt.Errorf("%w: %s", errMissingFlag, flagProgram)
		}
		addrs := custody.DeriveAll(program, digest)
		w := cctx.App.Writer
		fmt.Fprintf(w, "auction:           %s\n", addrs.Auction.Hex())
		fmt.Fprintf(w, "auction custody:   %s\n", addrs.AuctionCustody.Hex())
		fmt.Fprintf(w, "prepared response: %s\n", addrs.PreparedResponse.Hex())
		fmt.Fprintf(w, "prepared custody:  %s\n", addrs.PreparedCustody.Hex())
		fmt.Fprintf(w, "fast fill custody: %s\n", addrs.FastFillCustody.Hex())
		return nil
	},
}

var configCmd = &cli.Command{
	Name:  "config",
	Usage: "verify an engine config file",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: flagFile, Usage: "path to the JSON config", Required: true},
	},
	Action: func(cctx *cli.Context) error {
		raw, err := os.ReadFile(cctx.String(flagFile))
		if err != nil {
			return err
		}
		cfg, err := engine.ParseConfig(raw)
		if err != nil {
			return err
		}
		fmt.Fprintf(cctx.App.Writer, "%s ok: program %s, auction config %d\n", cfg.Key(), cfg.Program.Hex(), cfg.AuctionConfigID)
		return nil
	},
}
