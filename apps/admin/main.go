package main

import (
	"log"
	"os"

	"github.com/trezcool/learnbridge/core"
	"github.com/trezcool/learnbridge/core/audit"
	"github.com/trezcool/learnbridge/core/booking"
	"github.com/trezcool/learnbridge/core/notification"
	"github.com/trezcool/learnbridge/core/rating"
	"github.com/trezcool/learnbridge/core/user"
	emailsvc "github.com/trezcool/learnbridge/services/email"
	logsvc "github.com/trezcool/learnbridge/services/logger"
	documentdb "github.com/trezcool/learnbridge/storage/document"
)

func main() {
	defer os.Exit(0)

	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(conf.RollbarToken != "")

	// set up the document store
	db, err := documentdb.Open(conf.DataFile, logger)
	if err != nil {
		std.Fatalf("opening %s: %v", conf.DataFile, err)
	}
	if conf.Debug {
		db.OnChange(func(collections ...string) {
			logger.Debug("document changed", collections)
		})
	}

	var mailSvc core.EmailService
	if conf.SendgridAPIKey != "" {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	} else {
		mailSvc = emailsvc.NewConsoleService(conf)
	}

	// wire services; booking cancellers register on the user service last
	auditSvc := audit.NewService(db, conf)
	usrSvc := user.NewService(db, auditSvc)
	notifSvc := notification.NewService(db, mailSvc, usrSvc, logger)
	tutoringSvc := booking.NewService(booking.KindTutoring, db, auditSvc, notifSvc)
	counsellingSvc := booking.NewService(booking.KindCounselling, db, auditSvc, notifSvc)
	usrSvc.RegisterCanceller(tutoringSvc)
	usrSvc.RegisterCanceller(counsellingSvc)
	ratingSvc := rating.NewService(db, auditSvc)

	cli := commandLine{
		usrSvc:         usrSvc,
		tutoringSvc:    tutoringSvc,
		counsellingSvc: counsellingSvc,
		ratingSvc:      ratingSvc,
		auditSvc:       auditSvc,
		out:            os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
