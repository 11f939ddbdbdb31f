package main

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/learnbridge/core/audit"
	"github.com/trezcool/learnbridge/core/booking"
	"github.com/trezcool/learnbridge/core/rating"
	"github.com/trezcool/learnbridge/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

// cliActor is the audit identity of this tool.
const cliActor = "admin"

type commandLine struct {
	usrSvc         *user.Service
	tutoringSvc    *booking.Service
	counsellingSvc *booking.Service
	ratingSvc      *rating.Service
	auditSvc       *audit.Service
	out            io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -name NAME -email EMAIL -role ROLE [-department DEPT] - create a user; a password may be prompted next")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  suspend -email EMAIL - suspend a user account")
	fmt.Fprintln(cli.out, "  reinstate -email EMAIL - lift a user account suspension")
	fmt.Fprintln(cli.out, "  export -kind tutoring|counselling|ratings [-category CAT] - write a CSV export to stdout")
	fmt.Fprintln(cli.out, "  audit [-action ACTION] [-by ACTOR] [-limit N] - print the audit log, newest first")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "adduser":
		return cli.runAddUser(args[2:])
	case "resetpassword":
		return cli.runResetPassword(args[2:])
	case "suspend":
		return cli.runSetSuspended(args[2:], true)
	case "reinstate":
		return cli.runSetSuspended(args[2:], false)
	case "export":
		return cli.runExport(args[2:])
	case "audit":
		return cli.runAudit(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

// promptPassword reads a password from the terminal without echo.
func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
