package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/feedesk/core"
	"github.com/trezcool/feedesk/core/student"
	"github.com/trezcool/feedesk/core/user"
	logsvc "github.com/trezcool/feedesk/services/logger"
	"github.com/trezcool/feedesk/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(os.Stdout, "ADMIN : ", conf)
	ctx := context.Background()

	cli := commandLine{migrate: newMigrator(ctx, conf)}

	// migrate manages the schema itself; everything else needs the repositories
	if len(os.Args) < 2 || os.Args[1] != "migrate" {
		repos, err := database.OpenRepositories(ctx, conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() { _ = repos.Close(ctx) }()

		validate := validator.New()
		translator := core.NewTranslator()
		core.InitValidators(validate, translator)
		user.InitValidators(validate, translator)

		cli.validate = validate
		cli.usrSvc = user.NewService(repos.Users)
		cli.stSvc = student.NewService(repos.Students, repos.Settings)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
