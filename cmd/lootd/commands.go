package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/lootforge/lootd/internal/config"
	"github.com/lootforge/lootd/internal/core/application"
	"github.com/lootforge/lootd/internal/infrastructure/db"
	"github.com/lootforge/lootd/internal/infrastructure/signer"
	lootlib "github.com/lootforge/lootd/pkg/loot-lib"
	"github.com/lootforge/lootd/pkg/loot-lib/market"
	"github.com/lootforge/lootd/pkg/loot-lib/sighash"
	"github.com/lootforge/lootd/pkg/loot-lib/token"
)

var mintCmd = &cli.Command{
	Name:  "mint",
	Usage: "build a deploy+mint token locking script",
	Flags: []cli.Flag{ownerFlag, amtFlag, metadataFlag},
	Action: func(ctx *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		metadata, err := parseMetadata(ctx)
		if err != nil {
			return err
		}
		codec := token.NewCodec(cfg.AppName, cfg.NetParams())
		script, err := codec.Lock(
			ctx.String(ownerFlagName), "", token.OpMint, ctx.Uint64(amtFlagName), metadata,
		)
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(script))
		return nil
	},
}

var transferCmd = &cli.Command{
	Name:  "transfer",
	Usage: "build a transfer token locking script",
	Flags: []cli.Flag{ownerFlag, assetIdFlag(true), amtFlag, metadataFlag},
	Action: func(ctx *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		metadata, err := parseMetadata(ctx)
		if err != nil {
			return err
		}
		codec := token.NewCodec(cfg.AppName, cfg.NetParams())
		script, err := codec.Lock(
			ctx.String(ownerFlagName), ctx.String(assetIdFlagName),
			token.OpTransfer, ctx.Uint64(amtFlagName), metadata,
		)
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(script))
		return nil
	},
}

var listCmd = &cli.Command{
	Name:  "list",
	Usage: "build a marketplace listing locking script",
	Flags: []cli.Flag{
		cancelAddressFlag, payAddressFlag, priceFlag, assetIdFlag(true), metadataFlag,
	},
	Action: func(ctx *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		metadata, err := parseMetadata(ctx)
		if err != nil {
			return err
		}
		codec := market.NewCodec(cfg.AppName, cfg.NetParams())
		script, err := codec.BuildListing(
			ctx.String(cancelAddressFlagName), ctx.String(payAddressFlagName),
			ctx.Uint64(priceFlagName), ctx.String(assetIdFlagName), metadata,
		)
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(script))
		return nil
	},
}

var cancelCmd = &cli.Command{
	Name:  "cancel",
	Usage: "sign the cancel branch of a listing input",
	Flags: []cli.Flag{
		txFlag, inputIndexFlag, sourceSatoshisFlag, sourceScriptFlag,
		signOutputsFlag, anyoneCanPayFlag, signerKeyFlag,
	},
	Action: func(ctx *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tx, err := parseTx(ctx.String(txFlagName))
		if err != nil {
			return err
		}
		opts, err := unlockOptions(ctx)
		if err != nil {
			return err
		}
		signerSvc, err := loadSigner(ctx, cfg)
		if err != nil {
			return err
		}
		script, err := market.CancelUnlock(signerSvc, opts).
			Sign(ctx.Context, tx, ctx.Int(inputIndexFlagName))
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(script))
		return nil
	},
}

var purchaseCmd = &cli.Command{
	Name:  "purchase",
	Usage: "build the signature-free purchase unlock of a listing input",
	Flags: []cli.Flag{txFlag, inputIndexFlag, sourceSatoshisFlag, sourceScriptFlag},
	Action: func(ctx *cli.Context) error {
		tx, err := parseTx(ctx.String(txFlagName))
		if err != nil {
			return err
		}
		opts, err := unlockOptions(ctx)
		if err != nil {
			return err
		}
		script, err := market.PurchaseUnlock(opts).
			Sign(ctx.Context, tx, ctx.Int(inputIndexFlagName))
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(script))
		return nil
	},
}

var decodeCmd = &cli.Command{
	Name:  "decode",
	Usage: "decode a token or listing locking script",
	Flags: []cli.Flag{scriptFlag},
	Action: func(ctx *cli.Context) error {
		script, err := hex.DecodeString(ctx.String(scriptFlagName))
		if err != nil {
			return fmt.Errorf("invalid script, must be hex: %s", err)
		}

		if listing, err := market.DecodeListing(script); err == nil {
			return printJSON(map[string]any{
				"kind":        "listing",
				"inscription": listing.Inscription,
				"cancelOwner": hex.EncodeToString(listing.CancelHash[:]),
				"price":       listing.Price(),
				"metadata":    listing.Metadata,
			})
		}
		decoded, err := token.Decode(script)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"kind":        "token",
			"inscription": decoded.Inscription,
			"owner":       hex.EncodeToString(decoded.OwnerHash[:]),
			"metadata":    decoded.Metadata,
		})
	},
}

var indexCmd = &cli.Command{
	Name:  "index",
	Usage: "scan a raw transaction into the inventory store",
	Flags: []cli.Flag{txFlag},
	Action: func(ctx *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		repoManager, err := db.NewRepoManager(cfg.Datadir, nil)
		if err != nil {
			return err
		}
		defer repoManager.Close()

		report, err := application.NewIndexerService(repoManager).
			IndexTx(ctx.Context, ctx.String(txFlagName))
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var tokensCmd = &cli.Command{
	Name:  "tokens",
	Usage: "list unspent tokens held by an owner",
	Flags: []cli.Flag{ownerFlag},
	Action: func(ctx *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ownerHash, err := lootlib.ResolveOwnerHash(ctx.String(ownerFlagName), cfg.NetParams())
		if err != nil {
			return err
		}
		repoManager, err := db.NewRepoManager(cfg.Datadir, nil)
		if err != nil {
			return err
		}
		defer repoManager.Close()

		tokens, err := application.NewIndexerService(repoManager).
			GetTokensByOwner(ctx.Context, hex.EncodeToString(ownerHash[:]))
		if err != nil {
			return err
		}
		return printJSON(tokens)
	},
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %s", err)
	}
	log.SetLevel(log.Level(cfg.LogLevel))
	return cfg, nil
}

func loadSigner(ctx *cli.Context, cfg *config.Config) (lootlib.Signer, error) {
	key := ctx.String(signerKeyFlagName)
	if len(key) <= 0 {
		key = cfg.SignerKey
	}
	if len(key) <= 0 {
		return nil, fmt.Errorf("missing signer key, set --%s or LOOTD_SIGNER_PRVKEY", signerKeyFlagName)
	}
	return signer.NewLocalSigner(key)
}

func parseTx(rawTx string) (*wire.MsgTx, error) {
	buf, err := hex.DecodeString(rawTx)
	if err != nil {
		return nil, fmt.Errorf("invalid tx, must be hex: %s", err)
	}
	tx := &wire.MsgTx{}
	if err := tx.Deserialize(bytes.NewReader(buf)); err != nil {
		return nil, fmt.Errorf("invalid tx: %s", err)
	}
	return tx, nil
}

func parseMetadata(ctx *cli.Context) (map[string]any, error) {
	raw := ctx.String(metadataFlagName)
	if len(raw) <= 0 {
		return nil, nil
	}
	metadata := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, fmt.Errorf("invalid metadata, must be a JSON object: %s", err)
	}
	return metadata, nil
}

func unlockOptions(ctx *cli.Context) (lootlib.UnlockOptions, error) {
	opts := lootlib.UnlockOptions{AnyoneCanPay: ctx.Bool(anyoneCanPayFlagName)}

	if ctx.IsSet(signOutputsFlagName) || len(ctx.String(signOutputsFlagName)) > 0 {
		outputs, err := sighash.ParseSignOutputs(ctx.String(signOutputsFlagName))
		if err != nil {
			return opts, err
		}
		opts.SignOutputs = outputs
	}

	satoshis := ctx.Int64(sourceSatoshisFlagName)
	opts.SourceSatoshis = &satoshis

	script, err := hex.DecodeString(ctx.String(sourceScriptFlagName))
	if err != nil {
		return opts, fmt.Errorf("invalid source script, must be hex: %s", err)
	}
	opts.LockingScript = script
	return opts, nil
}

func printJSON(v any) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}
