package repository_test

import (
	"context"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	repository "github.com/okian/radar/internal/adapters/repository"
)

func TestRankIndex(t *testing.T) {
	Convey("Given a rank index with three candidates", t, func() {
		ctx := context.Background()
		idx := repository.NewRankIndex()
		idx.Upsert(ctx, "alpha", 30, 0.5, false)
		idx.Upsert(ctx, "beta", 10, 0.5, false)
		idx.Upsert(ctx, "gamma", 20, 0.5, false)

		Convey("When asking for the top entries", func() {
			top, err := idx.TopN(ctx, 3)

			Convey("Then they come back score-descending with ranks assigned", func() {
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 3)
				So(top[0].Slug, ShouldEqual, "alpha")
				So(top[1].Slug, ShouldEqual, "gamma")
				So(top[2].Slug, ShouldEqual, "beta")
				So(top[0].Rank, ShouldEqual, 1)
				So(top[2].Rank, ShouldEqual, 3)
			})
		})

		Convey("When asking for a single candidate's rank", func() {
			entry, err := idx.Rank(ctx, "gamma")

			Convey("Then the rank and score match the ordering", func() {
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, 2)
				So(entry.Score, ShouldAlmostEqual, 20.0, 1e-9)
			})
		})

		Convey("When a candidate's score drops on upsert", func() {
			idx.Upsert(ctx, "alpha", 5, 0.5, false)

			Convey("Then the latest score wins, not the best", func() {
				entry, err := idx.Rank(ctx, "alpha")
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, 3)
				So(entry.Score, ShouldAlmostEqual, 5.0, 1e-9)
				So(idx.Count(ctx), ShouldEqual, 3)
			})
		})

		Convey("When two candidates tie on score", func() {
			idx.Upsert(ctx, "delta", 20, 0.5, false)

			Convey("Then the tie breaks by slug ascending", func() {
				top, err := idx.TopN(ctx, 4)
				So(err, ShouldBeNil)
				So(top[1].Slug, ShouldEqual, "delta")
				So(top[2].Slug, ShouldEqual, "gamma")
			})
		})

		Convey("When asking for more entries than exist", func() {
			top, err := idx.TopN(ctx, 50)

			Convey("Then everything is returned without padding", func() {
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 3)
			})
		})

		Convey("When asking for an unranked candidate", func() {
			_, err := idx.Rank(ctx, "ghost")

			Convey("Then the lookup reports not found", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When asking for a non-positive limit", func() {
			_, err := idx.TopN(ctx, 0)

			Convey("Then the limit is rejected", func() {
				So(err, ShouldEqual, repository.ErrInvalidLimit)
			})
		})
	})

	Convey("Given a larger population", t, func() {
		ctx := context.Background()
		idx := repository.NewRankIndex()
		for i := 0; i < 500; i++ {
			idx.Upsert(ctx, fmt.Sprintf("cand-%03d", i), float64(i), 0.5, false)
		}

		Convey("When ranks are checked across the whole range", func() {
			Convey("Then rank plus score position stays consistent", func() {
				best, err := idx.Rank(ctx, "cand-499")
				So(err, ShouldBeNil)
				So(best.Rank, ShouldEqual, 1)

				worst, err := idx.Rank(ctx, "cand-000")
				So(err, ShouldBeNil)
				So(worst.Rank, ShouldEqual, 500)

				mid, err := idx.Rank(ctx, "cand-250")
				So(err, ShouldBeNil)
				So(mid.Rank, ShouldEqual, 250)
			})
		})
	})
}
