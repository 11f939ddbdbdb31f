package booking_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/learnbridge/core/booking"
)

func TestWriteCSV(t *testing.T) {
	created := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	session := time.Date(2026, 8, 10, 14, 0, 0, 0, time.UTC)

	reqs := []booking.Request{{
		ID:            "r1",
		StudentName:   "Thandi Mokoena",
		StudentNumber: "ST-2024-001",
		PersonName:    `Jane "JD" Dlamini`,
		PersonEmail:   "jane@test.cd",
		Module:        "CS101",
		SessionType:   "online",
		Venue:         "Lab 3",
		Status:        booking.StatusCancelled,
		Comment:       "bring notes\nCancel: clashing lecture",
		Created:       created,
		DateTime:      session,
	}}

	var sb strings.Builder
	require.NoError(t, booking.WriteCSV(&sb, booking.KindTutoring, reqs))

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		`"Created","Session Date","Student Name","Student Number","Tutor Name","Tutor Email","Module","Type","Venue","Status","Comment"`,
		lines[0])
	assert.Equal(t,
		`"2026-08-01 09:30","2026-08-10 14:00","Thandi Mokoena","ST-2024-001","Jane ""JD"" Dlamini","jane@test.cd","CS101","online","Lab 3","cancelled","bring notes Cancel: clashing lecture"`,
		lines[1], "every value quoted, inner quotes doubled, newlines collapsed")
}

func TestWriteCSV_counsellingHeader(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, booking.WriteCSV(&sb, booking.KindCounselling, nil))
	assert.Contains(t, sb.String(), `"Counsellor Name","Counsellor Email"`)
}
