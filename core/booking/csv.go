package booking

import (
	"io"

	"github.com/trezcool/learnbridge/core"
)

// WriteCSV writes requests in the export format, newest first as given.
// Column labels for the booked person follow the kind.
func WriteCSV(w io.Writer, kind string, reqs []Request) error {
	label := "Tutor"
	if kind == KindCounselling {
		label = "Counsellor"
	}
	err := core.WriteCSVRow(w,
		"Created", "Session Date", "Student Name", "Student Number",
		label+" Name", label+" Email", "Module", "Type", "Venue", "Status", "Comment")
	if err != nil {
		return err
	}
	for _, r := range reqs {
		err = core.WriteCSVRow(w,
			core.CSVTime(r.Created), core.CSVTime(r.DateTime),
			r.StudentName, r.StudentNumber, r.PersonName, r.PersonEmail,
			r.Module, r.SessionType, r.Venue, r.Status, r.Comment)
		if err != nil {
			return err
		}
	}
	return nil
}
