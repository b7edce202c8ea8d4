package output_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/discleague/internal/adapters/output"
	"github.com/okian/discleague/internal/domain/model"
	"github.com/okian/discleague/internal/domain/types"
)

var dates = []model.Date{
	{Year: 2025, Month: time.July, Day: 6},
	{Year: 2025, Month: time.July, Day: 13},
}

func rows() []types.Row {
	return []types.Row{
		{
			Name: "Alice", Username: "alice", PDGANumber: "12345",
			Cells: []model.Outcome{model.PlayedOutcome(14), model.DiscardedOutcome(3)},
			Total: 14,
		},
		{
			Name:  "Bob, Jr.",
			Cells: []model.Outcome{{}, model.PlayedOutcome(11)},
			Total: 11,
		},
	}
}

func TestWrite(t *testing.T) {
	Convey("Given standings for two dates", t, func() {
		var buf bytes.Buffer

		Convey("When written with the default layout", func() {
			err := output.NewWriter().Write(&buf, dates, rows())

			Convey("Then the header and cells follow the table format", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldEqual,
					"name,username,pdga_number,06/07/2025,13/07/2025,total_score\n"+
						"Alice,alice,12345,14,DUP,14\n"+
						"\"Bob, Jr.\",,,DNP,11,11\n")
			})
		})

		Convey("When written with a custom layout and delimiter", func() {
			err := output.NewWriter(output.WithDateLayout(model.KeyLayout), output.WithComma(';')).Write(&buf, dates, nil)

			Convey("Then only the header is written", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldEqual, "name;username;pdga_number;07-06-2025;07-13-2025;total_score\n")
			})
		})
	})
}

func TestWriteFile(t *testing.T) {
	Convey("Given an output path in a missing folder", t, func() {
		path := filepath.Join(t.TempDir(), "out", "leaderboard.csv")
		w := output.NewWriter()

		Convey("When written twice", func() {
			So(w.WriteFile(path, dates, rows()), ShouldBeNil)
			So(w.WriteFile(path, dates, nil), ShouldBeNil)

			Convey("Then the last table replaces the first and nothing else is left", func() {
				body, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "name,username,pdga_number,06/07/2025,13/07/2025,total_score\n")
				entries, err := os.ReadDir(filepath.Dir(path))
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given a path whose folder is a file", t, func() {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		So(os.WriteFile(blocker, nil, 0o600), ShouldBeNil)

		err := output.NewWriter().WriteFile(filepath.Join(blocker, "leaderboard.csv"), dates, nil)

		Convey("Then the write fails", func() {
			So(errors.Is(err, output.ErrWriteOutput), ShouldBeTrue)
		})
	})
}
