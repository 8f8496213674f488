package main

import "github.com/urfave/cli/v2"

const (
	ownerFlagName          = "owner"
	assetIdFlagName        = "asset-id"
	amtFlagName            = "amt"
	metadataFlagName       = "metadata"
	priceFlagName          = "price"
	payAddressFlagName     = "pay-address"
	cancelAddressFlagName  = "cancel-address"
	txFlagName             = "tx"
	inputIndexFlagName     = "input-index"
	sourceSatoshisFlagName = "source-satoshis"
	sourceScriptFlagName   = "source-script"
	signOutputsFlagName    = "sign-outputs"
	anyoneCanPayFlagName   = "anyone-can-pay"
	scriptFlagName         = "script"
	signerKeyFlagName      = "signer-prvkey"
)

var (
	ownerFlag = &cli.StringFlag{
		Name:     ownerFlagName,
		Usage:    "owner as P2PKH address, compressed pubkey hex or hash160 hex",
		Required: true,
	}
	assetIdFlag = func(required bool) *cli.StringFlag {
		return &cli.StringFlag{
			Name:     assetIdFlagName,
			Usage:    "asset id in <txid>_<vout> form",
			Required: required,
		}
	}
	amtFlag = &cli.Uint64Flag{
		Name:  amtFlagName,
		Usage: "token amount, 1 for unit items, >1 for stackable materials",
		Value: 1,
	}
	metadataFlag = &cli.StringFlag{
		Name:  metadataFlagName,
		Usage: "extra metadata fields as a JSON object",
	}
	priceFlag = &cli.Uint64Flag{
		Name:     priceFlagName,
		Usage:    "listing price in satoshis",
		Required: true,
	}
	payAddressFlag = &cli.StringFlag{
		Name:     payAddressFlagName,
		Usage:    "address the payment output must pay on purchase",
		Required: true,
	}
	cancelAddressFlag = &cli.StringFlag{
		Name:     cancelAddressFlagName,
		Usage:    "address authorized to cancel the listing",
		Required: true,
	}
	txFlag = &cli.StringFlag{
		Name:     txFlagName,
		Usage:    "raw transaction hex",
		Required: true,
	}
	inputIndexFlag = &cli.IntFlag{
		Name:  inputIndexFlagName,
		Usage: "index of the input to unlock",
	}
	sourceSatoshisFlag = &cli.Int64Flag{
		Name:  sourceSatoshisFlagName,
		Usage: "value of the source output in satoshis",
		Value: 1,
	}
	sourceScriptFlag = &cli.StringFlag{
		Name:     sourceScriptFlagName,
		Usage:    "locking script hex of the source output",
		Required: true,
	}
	signOutputsFlag = &cli.StringFlag{
		Name:  signOutputsFlagName,
		Usage: "outputs the signature commits to: all, none or single",
		Value: "single",
	}
	anyoneCanPayFlag = &cli.BoolFlag{
		Name:  anyoneCanPayFlagName,
		Usage: "uncommit the other inputs from the signature",
	}
	scriptFlag = &cli.StringFlag{
		Name:     scriptFlagName,
		Usage:    "locking script hex",
		Required: true,
	}
	signerKeyFlag = &cli.StringFlag{
		Name:  signerKeyFlagName,
		Usage: "signing private key hex, overrides LOOTD_SIGNER_PRVKEY",
	}
)
