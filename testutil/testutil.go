// Package testutil wires in-memory stacks & fixtures for tests.
package testutil

import (
	"context"
	"io/ioutil"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	ut "github.com/go-playground/universal-translator"

	"github.com/trezcool/feedesk/core"
	"github.com/trezcool/feedesk/core/exam"
	"github.com/trezcool/feedesk/core/payment"
	"github.com/trezcool/feedesk/core/student"
	"github.com/trezcool/feedesk/core/user"
	emailsvc "github.com/trezcool/feedesk/services/email"
	gatewaysvc "github.com/trezcool/feedesk/services/gateway"
	logsvc "github.com/trezcool/feedesk/services/logger"
	inmemdb "github.com/trezcool/feedesk/storage/database/inmem"
)

// Stack is a fully wired application backed by the in-memory store.
type Stack struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Mail       *emailsvc.ConsoleServiceMock

	UserRepo    user.Repository
	StudentRepo student.Repository

	UserSvc    *user.Service
	StudentSvc *student.Service
	PaymentSvc *payment.Service
	ExamSvc    *exam.Service
}

func NewStack() *Stack {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(ioutil.Discard, "TEST : ", conf)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	stRepo := inmemdb.NewStudentRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	stSvc := student.NewService(stRepo, inmemdb.NewSettingsRepository(db))

	return &Stack{
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Translator:  translator,
		Mail:        mailSvc,
		UserRepo:    usrRepo,
		StudentRepo: stRepo,
		UserSvc:     user.NewService(usrRepo),
		StudentSvc:  stSvc,
		PaymentSvc: payment.NewService(
			inmemdb.NewPaymentRepository(db),
			gatewaysvc.NewRazorpayGateway(conf.Gateway),
			stSvc,
			mailSvc,
		),
		ExamSvc: exam.NewService(inmemdb.NewExamRepository(db)),
	}
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// Enroll creates a student through the service, the way staff would.
func Enroll(t *testing.T, svc *student.Service, ns student.NewStudent) student.Student {
	t.Helper()
	if ns.Password == "" {
		ns.Password = "Str0ng&Passw0rd"
	}
	if ns.Name == "" {
		ns.Name = "Student " + ns.Username
	}
	if ns.Department == "" {
		ns.Department = "CSE"
	}
	if ns.CurrentYear == 0 {
		ns.CurrentYear = 1
	}
	if ns.Quota == "" {
		ns.Quota = student.QuotaGovernment
	}
	if ns.Entry == "" {
		ns.Entry = student.EntryRegular
	}
	st, err := svc.Create(context.Background(), ns)
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return st
}
