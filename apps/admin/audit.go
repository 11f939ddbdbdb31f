package main

import (
	"flag"
	"fmt"

	"github.com/trezcool/learnbridge/core/audit"
)

func (cli *commandLine) runAudit(args []string) error {
	cmd := flag.NewFlagSet("audit", flag.ExitOnError)
	action := cmd.String("action", "", "Only entries with this exact action.")
	by := cmd.String("by", "", "Only entries by this actor.")
	limit := cmd.Int("limit", 0, "Print at most N entries; 0 prints all.")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	entries, err := cli.auditSvc.Query(audit.Filter{Action: *action, By: *by})
	if err != nil {
		return err
	}
	if *limit > 0 && len(entries) > *limit {
		entries = entries[:*limit]
	}
	for _, e := range entries {
		fmt.Fprintf(cli.out, "%s  %-40s  by=%s  %s\n",
			e.Time.Format("2006-01-02 15:04:05"), e.Action, e.By, e.Details)
	}
	return nil
}
