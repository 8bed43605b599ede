package main

import (
	"context"

	"github.com/trezcool/feedesk/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	rp := user.ResetUserPassword{Username: uname, NewPassword: pwd}
	if err := rp.Validate(cli.validate); err != nil {
		return err
	}
	return cli.usrSvc.ResetPassword(context.Background(), rp)
}
