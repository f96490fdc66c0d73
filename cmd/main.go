package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"papertrader/cmd/executor"
	"papertrader/cmd/ohlcvcrypto"
	"papertrader/cmd/token"
	"papertrader/src/database"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Papertrader CMD"
	app.Usage = "The papertrader command line interface"

	app.Commands = []cli.Command{
		executorCMD,
		ohlcvCryptoCMD,
		tokenCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	executorCMD = cli.Command{
		Name:        "executor",
		Usage:       "run the price loop",
		Action:      executorAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the paper trading price loop without the HTTP API`,
	}
	ohlcvCryptoCMD = cli.Command{
		Name:        "ohlcv_crypto",
		Usage:       "run OHLCV crypto ingest",
		Action:      ohlcvCryptoAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Fetch OHLCV candles into the ledger database for ATR sizing`,
	}
	tokenCMD = cli.Command{
		Name:        "token",
		Usage:       "hash an API token",
		Action:      tokenAction,
		ArgsUsage:   "[token]",
		Flags:       []cli.Flag{},
		Description: `Print the bcrypt hash to store in API_TOKEN_HASH`,
	}
)

func executorAction(_ *cli.Context) error {

	logrus.Info("Starting executor CMD")
	logrus.WithField("cmd", "executor")

	loop := &executor.Executor{}
	err := loop.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

// ohlcvCryptoAction fetches OHLCV candles for the configured symbol.
func ohlcvCryptoAction(_ *cli.Context) error {

	logrus.Info("Starting OHLCV crypto CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	_ohlcv := &ohlcvcrypto.OHLCVCrypto{
		Log: logrus.WithField("cmd", "ohlcv_crypto"),
		DB:  database.MainDB,
	}

	err := _ohlcv.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting OHLCV cmd")
		return err
	}

	return nil
}

func tokenAction(c *cli.Context) error {

	logrus.Info("Starting token CMD")

	g := &token.Generator{In: os.Stdin, Out: os.Stdout}
	err := g.Run(c.Args().First())
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
