package main

import (
	"fmt"

	"github.com/tari-project/tari-sub016/settings"
	"github.com/urfave/cli/v2"
)

func tip(c *cli.Context) error {
	tSettings := settings.NewSettings()
	logger := newLogger(tSettings)

	store, err := openStore(c.Context, c, logger, tSettings)
	if err != nil {
		return err
	}

	defer func() {
		_ = store.Close()
	}()

	tipHeader, err := store.GetTipHeader(c.Context)
	if err != nil {
		return err
	}

	accumulated := tipHeader.AccumulatedData()

	fmt.Fprintf(c.App.Writer, "network:    %s\n", tSettings.ChainCfgParams.Name)
	fmt.Fprintf(c.App.Writer, "height:     %d\n", tipHeader.Height())
	fmt.Fprintf(c.App.Writer, "hash:       %s\n", tipHeader.Hash())
	fmt.Fprintf(c.App.Writer, "timestamp:  %d\n", tipHeader.Timestamp())
	fmt.Fprintf(c.App.Writer, "algorithm:  %s\n", tipHeader.PowAlgo())
	fmt.Fprintf(c.App.Writer, "monero:     %s\n", accumulated.AccumulatedMoneroDifficulty)
	fmt.Fprintf(c.App.Writer, "sha3:       %s\n", accumulated.AccumulatedSha3Difficulty)
	fmt.Fprintf(c.App.Writer, "total:      %s\n", accumulated.TotalAccumulatedDifficulty)

	return nil
}
