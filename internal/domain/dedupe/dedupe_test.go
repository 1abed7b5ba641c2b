package dedupe_test

import (
	"context"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	dedupe "github.com/okian/radar/internal/domain/dedupe"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a fresh deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		ctx := context.Background()

		Convey("When recording a new key", func() {
			seen := d.SeenAndRecord(ctx, "kyara|mention|mig|123")

			Convey("Then it was not seen before", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And recording it again reports it as seen", func() {
				So(d.SeenAndRecord(ctx, "kyara|mention|mig|123"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording a key", func() {
			d.SeenAndRecord(ctx, "kyara|mention|mig|123")
			d.Unrecord(ctx, "kyara|mention|mig|123")

			Convey("Then the key can be recorded fresh", func() {
				So(d.SeenAndRecord(ctx, "kyara|mention|mig|123"), ShouldBeFalse)
			})
		})

		Convey("When unrecording a key that was never recorded", func() {
			d.Unrecord(ctx, "ghost")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a deduper bounded to three keys", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		ctx := context.Background()

		Convey("When a fourth key arrives", func() {
			for i := 0; i < 4; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("key-%d", i))
			}

			Convey("Then the oldest key was evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "key-0"), ShouldBeFalse) // evicted, so re-recordable
			})

			Convey("And newer keys are still tracked", func() {
				So(d.SeenAndRecord(ctx, "key-3"), ShouldBeTrue)
			})
		})
	})
}
