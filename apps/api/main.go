package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/feedesk/apps/api/echo"
	"github.com/trezcool/feedesk/core"
	"github.com/trezcool/feedesk/core/exam"
	"github.com/trezcool/feedesk/core/payment"
	"github.com/trezcool/feedesk/core/student"
	"github.com/trezcool/feedesk/core/user"
	emailsvc "github.com/trezcool/feedesk/services/email"
	gatewaysvc "github.com/trezcool/feedesk/services/gateway"
	logsvc "github.com/trezcool/feedesk/services/logger"
	"github.com/trezcool/feedesk/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(os.Stdout, "API : ", conf)
	dbLogger := logger.Named("DB : ")

	// set up DB
	repos, err := database.OpenRepositories(context.Background(), conf)
	if err != nil {
		dbLogger.Fatal(fmt.Sprintf("setting up %s database: %v", conf.Database.Engine, err), err)
	}
	defer func() {
		if err = repos.Close(context.Background()); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(repos.Users)
	stSvc := student.NewService(repos.Students, repos.Settings)
	paySvc := payment.NewService(repos.Payments, gatewaysvc.NewRazorpayGateway(conf.Gateway), stSvc, mailSvc)
	examSvc := exam.NewService(repos.Notifications)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : %s", conf))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	if conf.Gateway.KeyID == "" || conf.Gateway.KeySecret == "" {
		logger.Warn("Razorpay keys are not set: orders cannot be created and signatures are not checked")
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("dbEngine").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,
			UserSvc:    usrSvc,
			StudentSvc: stSvc,
			PaymentSvc: paySvc,
			ExamSvc:    examSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
