package model_test

import (
	"testing"
	"time"

	"github.com/okian/rinkcast/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestBaselineJobKey(t *testing.T) {
	convey.Convey("Given two jobs for the same player and day", t, func() {
		day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
		a := model.BaselineJob{ID: "a", PlayerID: "8471214", SnapshotDate: day}
		b := model.BaselineJob{ID: "b", PlayerID: "8471214", SnapshotDate: day.Add(20 * time.Hour)}

		convey.Convey("Then they share an idempotency key", func() {
			convey.So(a.Key(), convey.ShouldEqual, "8471214|2025-01-15")
			convey.So(b.Key(), convey.ShouldEqual, a.Key())
		})

		convey.Convey("Then another day yields a different key", func() {
			c := a
			c.SnapshotDate = day.AddDate(0, 0, 1)
			convey.So(c.Key(), convey.ShouldNotEqual, a.Key())
		})
	})
}
