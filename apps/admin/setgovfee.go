package main

import (
	"context"
	"fmt"
)

// setGovFee sets the fee new government students are enrolled with. Existing ledgers are left alone.
func (cli *commandLine) setGovFee(amount int64) error {
	if err := cli.stSvc.SetDefaultGovFee(context.Background(), amount); err != nil {
		return err
	}
	fmt.Printf("default gov fee set to %d\n", amount)
	return nil
}
