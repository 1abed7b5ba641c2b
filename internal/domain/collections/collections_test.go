package collections_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	collections "github.com/okian/radar/internal/domain/collections"
	"github.com/okian/radar/internal/domain/model"
)

func profile(slug string, score, trend float64, tags ...string) collections.Profile {
	return collections.Profile{
		Candidate: model.Candidate{Slug: slug, Name: slug, Tags: tags},
		Score:     model.CompositeScore{CandidateSlug: slug, Composite: score},
		Trend:     trend,
	}
}

func TestAnalyzer_AssessFit(t *testing.T) {
	Convey("Given an analyzer", t, func() {
		analyzer := collections.New()

		Convey("When the roster is empty", func() {
			fit := analyzer.AssessFit(profile("kyara", 10, 0, "hyperpop"), nil)

			Convey("Then the result is the defined neutral, not an error", func() {
				So(fit.Fit, ShouldEqual, 0.5)
				So(fit.Note, ShouldEqual, "empty roster")
				So(fit.AlignedTags, ShouldBeEmpty)
				So(fit.NovelTags, ShouldBeEmpty)
			})
		})

		Convey("When the candidate half-overlaps the roster's tags", func() {
			roster := []collections.Profile{
				profile("a", 10, 0, "hyperpop", "berlin"),
				profile("b", 12, 0, "hyperpop", "seoul"),
			}
			fit := analyzer.AssessFit(profile("kyara", 11, 0, "hyperpop", "drill"), roster)

			Convey("Then aligned and novel tags are split correctly", func() {
				So(fit.AlignedTags, ShouldResemble, []string{"hyperpop"})
				So(fit.NovelTags, ShouldResemble, []string{"drill"})
				So(fit.OverlapCount, ShouldEqual, 1)
			})

			Convey("And a score inside the roster band fits well", func() {
				So(fit.Fit, ShouldBeGreaterThan, 0.5)
				So(fit.Fit, ShouldBeLessThanOrEqualTo, 1.0)
			})
		})

		Convey("When the candidate's score sits far outside the roster band", func() {
			roster := []collections.Profile{
				profile("a", 10, 0, "hyperpop"),
				profile("b", 12, 0, "hyperpop"),
			}
			near := analyzer.AssessFit(profile("x", 11, 0, "hyperpop", "drill"), roster)
			far := analyzer.AssessFit(profile("y", 500, 0, "hyperpop", "drill"), roster)

			Convey("Then the outlier fits worse with identical tags", func() {
				So(far.Fit, ShouldBeLessThan, near.Fit)
				So(far.ScoreDistance, ShouldBeGreaterThan, near.ScoreDistance)
			})
		})

		Convey("When the same inputs are assessed twice", func() {
			roster := []collections.Profile{
				profile("a", 10, 0, "hyperpop", "berlin"),
				profile("b", 14, 0, "drill"),
			}
			cand := profile("kyara", 12, 0, "hyperpop", "ambient")

			Convey("Then the results are identical", func() {
				So(analyzer.AssessFit(cand, roster), ShouldResemble, analyzer.AssessFit(cand, roster))
			})
		})
	})
}

func TestAnalyzer_RosterGaps(t *testing.T) {
	Convey("Given an analyzer and a reference population", t, func() {
		analyzer := collections.New()
		reference := []collections.Profile{
			profile("r1", 10, 0, "hyperpop", "drill"),
			profile("r2", 11, 0, "hyperpop", "ambient"),
			profile("r3", 12, 0, "drill"),
			profile("r4", 13, 0, "ambient"),
		}

		Convey("When the roster covers only hyperpop", func() {
			roster := []collections.Profile{
				profile("a", 10, 0, "hyperpop"),
				profile("b", 12, 0, "hyperpop"),
			}
			gaps := analyzer.RosterGaps(roster, reference)

			Convey("Then uncovered tags surface ranked by deficit", func() {
				So(len(gaps), ShouldEqual, 2)
				// drill and ambient each at reference share 0.5, roster share 0.
				So(gaps[0].Deficit, ShouldAlmostEqual, 0.5, 1e-9)
				So(gaps[1].Deficit, ShouldAlmostEqual, 0.5, 1e-9)
			})

			Convey("And equal deficits break ties lexically", func() {
				So(gaps[0].Tag, ShouldEqual, "ambient")
				So(gaps[1].Tag, ShouldEqual, "drill")
			})

			Convey("And fully covered tags are omitted", func() {
				for _, g := range gaps {
					So(g.Tag, ShouldNotEqual, "hyperpop")
				}
			})
		})

		Convey("When the roster matches the reference distribution", func() {
			gaps := analyzer.RosterGaps(reference, reference)

			Convey("Then there are no gaps", func() {
				So(gaps, ShouldBeEmpty)
			})
		})
	})
}

func TestAnalyzer_Collabs(t *testing.T) {
	Convey("Given an analyzer with a low compatibility floor", t, func() {
		analyzer := collections.New(collections.WithMinCompatibility(0.1))

		Convey("When pairing roster members with complementary tags", func() {
			roster := []collections.Profile{
				profile("alpha", 10, 1.0, "hyperpop", "berlin"),
				profile("beta", 11, 1.2, "drill", "lagos"),
				profile("gamma", 12, 1.1, "hyperpop", "berlin"),
			}
			pairs := analyzer.SuggestCollabsWithinRoster(roster, 10)

			Convey("Then fully disjoint tag sets outrank identical ones", func() {
				So(len(pairs), ShouldBeGreaterThan, 0)
				So(pairs[0].A, ShouldBeIn, "alpha", "beta")
				So(pairs[0].B, ShouldBeIn, "beta", "gamma")
			})

			Convey("And identical tag sets never pair", func() {
				for _, p := range pairs {
					So([2]string{p.A, p.B}, ShouldNotResemble, [2]string{"alpha", "gamma"})
				}
			})

			Convey("And pair slugs are ordered lexically", func() {
				for _, p := range pairs {
					So(p.A, ShouldBeLessThan, p.B)
				}
			})
		})

		Convey("When trajectories point in opposite directions", func() {
			rising := profile("rising", 10, 2.0, "hyperpop")
			alsoRising := profile("also-rising", 10, 2.0, "drill")
			fading := profile("fading", 10, -2.0, "drill")

			up := analyzer.SuggestExternalCollabs(rising, []collections.Profile{alsoRising}, 1)
			down := analyzer.SuggestExternalCollabs(rising, []collections.Profile{fading}, 1)

			Convey("Then aligned trajectories score higher", func() {
				So(len(up), ShouldEqual, 1)
				So(len(down), ShouldEqual, 1)
				So(up[0].Compatibility, ShouldBeGreaterThan, down[0].Compatibility)
			})
		})

		Convey("When the limit is smaller than the pair count", func() {
			roster := []collections.Profile{
				profile("a", 10, 1, "t1"),
				profile("b", 10, 1, "t2"),
				profile("c", 10, 1, "t3"),
				profile("d", 10, 1, "t4"),
			}
			pairs := analyzer.SuggestCollabsWithinRoster(roster, 2)

			Convey("Then the list is capped", func() {
				So(len(pairs), ShouldEqual, 2)
			})
		})

		Convey("When a candidate appears in its own pool", func() {
			cand := profile("kyara", 10, 1, "hyperpop")
			pool := []collections.Profile{cand, profile("other", 10, 1, "drill")}
			pairs := analyzer.SuggestExternalCollabs(cand, pool, 10)

			Convey("Then it never pairs with itself", func() {
				for _, p := range pairs {
					So(p.A, ShouldNotEqual, p.B)
				}
				So(len(pairs), ShouldEqual, 1)
			})
		})
	})

	Convey("Given an analyzer with a high compatibility floor", t, func() {
		analyzer := collections.New(collections.WithMinCompatibility(0.99))

		Convey("When no pair clears the floor", func() {
			roster := []collections.Profile{
				profile("a", 10, 1.0, "hyperpop"),
				profile("b", 10, 5.0, "hyperpop", "drill"),
			}
			pairs := analyzer.SuggestCollabsWithinRoster(roster, 10)

			Convey("Then the suggestion list is empty, not nil-panicky", func() {
				So(pairs, ShouldBeEmpty)
			})
		})
	})
}
