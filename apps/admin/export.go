package main

import (
	"flag"
	"fmt"

	"github.com/trezcool/learnbridge/core/booking"
	"github.com/trezcool/learnbridge/core/rating"
)

func (cli *commandLine) runExport(args []string) error {
	cmd := flag.NewFlagSet("export", flag.ExitOnError)
	kind := cmd.String("kind", "", "One of: tutoring, counselling, ratings.")
	category := cmd.String("category", "all", "One of: pending, accepted, completed, cancelled, upcoming, followup, updated, all.")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	switch *kind {
	case booking.KindTutoring:
		return cli.exportRequests(cli.tutoringSvc, *category)
	case booking.KindCounselling:
		return cli.exportRequests(cli.counsellingSvc, *category)
	case "ratings":
		ratings, err := cli.ratingSvc.QueryAll()
		if err != nil {
			return err
		}
		return rating.WriteCSV(cli.out, ratings)
	default:
		cmd.Usage()
		return errHelp
	}
}

func (cli *commandLine) exportRequests(svc *booking.Service, category string) error {
	reqs, err := svc.Filter(booking.QueryFilter{Category: category})
	if err != nil {
		return err
	}
	if err = booking.WriteCSV(cli.out, svc.Kind(), reqs); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "\n%d rows\n", len(reqs))
	return nil
}
