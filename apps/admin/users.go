package main

import (
	"flag"
	"fmt"
)

func (cli *commandLine) runResetPassword(args []string) error {
	cmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	email := cmd.String("email", "", "The user's email. The password will be prompted next.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		cmd.Usage()
		return errHelp
	}
	pwd, err := promptPassword()
	if err != nil {
		return err
	}
	if pwd == "" {
		cmd.Usage()
		return errHelp
	}
	return cli.resetPassword(*email, pwd)
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	usr, err := cli.usrSvc.GetByEmail(email)
	if err != nil {
		return err
	}
	return cli.usrSvc.ResetPassword(cliActor, usr.ID, pwd)
}

func (cli *commandLine) runSetSuspended(args []string, suspended bool) error {
	name := "reinstate"
	if suspended {
		name = "suspend"
	}
	cmd := flag.NewFlagSet(name, flag.ExitOnError)
	email := cmd.String("email", "", "The user's email.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		cmd.Usage()
		return errHelp
	}
	usr, err := cli.usrSvc.GetByEmail(*email)
	if err != nil {
		return err
	}
	if suspended {
		usr, err = cli.usrSvc.Suspend(cliActor, usr.ID)
	} else {
		usr, err = cli.usrSvc.Reinstate(cliActor, usr.ID)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%sed %q\n", name, usr.Name)
	return nil
}
