package main

import (
	"flag"
	"fmt"

	"github.com/trezcool/learnbridge/core/user"
)

func (cli *commandLine) runAddUser(args []string) error {
	cmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	name := cmd.String("name", "", "The user's full name.")
	email := cmd.String("email", "", "The user's email.")
	role := cmd.String("role", "", "One of: student, tutor, counsellor, admin.")
	department := cmd.String("department", "", "Optional department.")
	withPassword := cmd.Bool("password", false, "Prompt for a temporary password.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *name == "" || *email == "" || *role == "" {
		cmd.Usage()
		return errHelp
	}

	nu := user.NewUser{
		Name:       *name,
		Email:      *email,
		Role:       *role,
		Department: *department,
	}
	if *withPassword {
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		nu.Password = pwd
	}

	usr, err := cli.usrSvc.Create(cliActor, nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %s %q (%s)\n", usr.Role, usr.Name, usr.ID)
	return nil
}
