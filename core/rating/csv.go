package rating

import (
	"io"
	"strconv"

	"github.com/trezcool/learnbridge/core"
)

// WriteCSV writes ratings in the export format, newest first as given.
func WriteCSV(w io.Writer, ratings []Rating) error {
	err := core.WriteCSVRow(w,
		"Student", "Student Number", "Rated Person", "Role", "Module", "Stars", "Comment", "Date")
	if err != nil {
		return err
	}
	for _, r := range ratings {
		err = core.WriteCSVRow(w,
			r.StudentName, r.StudentNumber, r.PersonName, r.Role, r.Module,
			strconv.Itoa(r.Stars), r.Comment, core.CSVTime(r.Created))
		if err != nil {
			return err
		}
	}
	return nil
}
