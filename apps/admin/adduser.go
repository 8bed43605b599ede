package main

import (
	"context"
	"fmt"

	"github.com/trezcool/feedesk/core/user"
)

// addUser creates a staff account.
func (cli *commandLine) addUser(nu user.NewUser) error {
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return err
	}
	fmt.Printf("created %s %v\n", usr.Username, usr.Roles)
	return nil
}
