package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	repository "github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/domain/model"
)

func openStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	store, err := repository.Open(filepath.Join(t.TempDir(), "radar.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	return store
}

func TestSQLiteStore_Candidates(t *testing.T) {
	Convey("Given an open store", t, func() {
		ctx := context.Background()
		store := openStore(t)
		Reset(func() { store.Close() })

		kyara := model.Candidate{Slug: "kyara", Name: "Kyara", Tags: []string{"hyperpop", "berlin"}, CreatedAt: time.Now()}

		Convey("When creating and fetching a candidate", func() {
			So(store.CreateCandidate(ctx, kyara), ShouldBeNil)
			got, err := store.GetCandidate(ctx, "kyara")

			Convey("Then the round trip preserves identity and tags", func() {
				So(err, ShouldBeNil)
				So(got.Slug, ShouldEqual, "kyara")
				So(got.Name, ShouldEqual, "Kyara")
				So(got.Tags, ShouldResemble, []string{"hyperpop", "berlin"})
			})
		})

		Convey("When creating the same slug twice", func() {
			So(store.CreateCandidate(ctx, kyara), ShouldBeNil)
			err := store.CreateCandidate(ctx, kyara)

			Convey("Then the conflict is reported", func() {
				So(err, ShouldWrap, repository.ErrAlreadyExists)
			})
		})

		Convey("When fetching an unknown candidate", func() {
			_, err := store.GetCandidate(ctx, "ghost")

			Convey("Then the lookup reports the unknown candidate", func() {
				So(err, ShouldWrap, repository.ErrUnknownCandidate)
			})
		})

		Convey("When adding tags with overlap", func() {
			So(store.CreateCandidate(ctx, kyara), ShouldBeNil)
			So(store.AddTags(ctx, "kyara", []string{"berlin", "ambient"}), ShouldBeNil)

			Convey("Then tags merge without duplicates", func() {
				got, err := store.GetCandidate(ctx, "kyara")
				So(err, ShouldBeNil)
				So(got.Tags, ShouldResemble, []string{"hyperpop", "berlin", "ambient"})
			})
		})

		Convey("When filtering by tag", func() {
			So(store.CreateCandidate(ctx, kyara), ShouldBeNil)
			So(store.CreateCandidate(ctx, model.Candidate{Slug: "vex", Name: "Vex", Tags: []string{"drill"}, CreatedAt: time.Now()}), ShouldBeNil)

			Convey("Then only carriers of the tag come back", func() {
				got, err := store.ListCandidatesByTag(ctx, "drill")
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 1)
				So(got[0].Slug, ShouldEqual, "vex")

				n, err := store.CountCandidates(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})
		})
	})
}

func TestSQLiteStore_Events(t *testing.T) {
	Convey("Given a store with one candidate", t, func() {
		ctx := context.Background()
		store := openStore(t)
		Reset(func() { store.Close() })

		So(store.CreateCandidate(ctx, model.Candidate{Slug: "kyara", Name: "Kyara", CreatedAt: time.Now()}), ShouldBeNil)

		base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		event := model.Event{
			CandidateSlug: "kyara",
			Type:          model.SignalMention,
			Value:         3,
			Source:        "mig",
			OccurredAt:    base,
			IngestedAt:    base,
		}

		Convey("When appending the same event twice", func() {
			first, err1 := store.AppendEvent(ctx, event)
			second, err2 := store.AppendEvent(ctx, event)

			Convey("Then the replay is a successful no-op", func() {
				So(err1, ShouldBeNil)
				So(first, ShouldBeTrue)
				So(err2, ShouldBeNil)
				So(second, ShouldBeFalse)

				n, err := store.CountEvents(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When appending for an unknown candidate", func() {
			bad := event
			bad.CandidateSlug = "ghost"
			_, err := store.AppendEvent(ctx, bad)

			Convey("Then the foreign key rejects it", func() {
				So(err, ShouldWrap, repository.ErrUnknownCandidate)
			})
		})

		Convey("When querying a time window", func() {
			older := event
			older.OccurredAt = base.AddDate(0, 0, -10)
			newer := event
			newer.OccurredAt = base.AddDate(0, 0, -1)
			_, err := store.AppendEvent(ctx, older)
			So(err, ShouldBeNil)
			_, err = store.AppendEvent(ctx, newer)
			So(err, ShouldBeNil)

			Convey("Then the window is exclusive at the start, inclusive at the end", func() {
				events, err := store.EventsForCandidate(ctx, "kyara", base.AddDate(0, 0, -10), base.AddDate(0, 0, -1))
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 1)
				So(events[0].OccurredAt.Equal(newer.OccurredAt), ShouldBeTrue)
			})

			Convey("And events come back in chronological order", func() {
				events, err := store.EventsForCandidate(ctx, "kyara", base.AddDate(0, 0, -30), base)
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 2)
				So(events[0].OccurredAt.Before(events[1].OccurredAt), ShouldBeTrue)
			})
		})
	})
}

func TestSQLiteStore_Scores(t *testing.T) {
	Convey("Given a store with one candidate", t, func() {
		ctx := context.Background()
		store := openStore(t)
		Reset(func() { store.Close() })

		So(store.CreateCandidate(ctx, model.Candidate{Slug: "kyara", Name: "Kyara", CreatedAt: time.Now()}), ShouldBeNil)
		asOf := time.Now().UTC()

		run := func(runID string, composite float64, at time.Time) model.CompositeScore {
			momenta := []model.MomentumScore{
				{CandidateSlug: "kyara", SignalType: model.SignalMention, WindowDays: 90, DecayedValue: composite, ComputedAt: at},
				{CandidateSlug: "kyara", SignalType: model.SignalCoverage, WindowDays: 90, DecayedValue: 0, ComputedAt: at},
			}
			saved, err := store.SaveRun(ctx, momenta, model.CompositeScore{
				CandidateSlug: "kyara", RunID: runID, Composite: composite,
				BreakoutProbability: 0.5, ComputedAt: at,
			})
			So(err, ShouldBeNil)
			return saved
		}

		Convey("When saving one run", func() {
			saved := run("run-1", 12.5, asOf)

			Convey("Then the composite references every momentum row", func() {
				So(saved.ID, ShouldBeGreaterThan, 0)
				So(len(saved.ContributingMomentumIDs), ShouldEqual, 2)
			})

			Convey("And the latest composite is retrievable", func() {
				latest, err := store.LatestComposite(ctx, "kyara")
				So(err, ShouldBeNil)
				So(latest.RunID, ShouldEqual, "run-1")
				So(latest.Composite, ShouldAlmostEqual, 12.5, 1e-9)
				So(latest.ContributingMomentumIDs, ShouldResemble, saved.ContributingMomentumIDs)
			})
		})

		Convey("When saving several runs over time", func() {
			run("run-1", 10, asOf.Add(-2*time.Hour))
			run("run-2", 11, asOf.Add(-time.Hour))
			run("run-3", 13, asOf)

			Convey("Then history returns oldest first", func() {
				history, err := store.CompositeHistory(ctx, "kyara", 30)
				So(err, ShouldBeNil)
				So(len(history), ShouldEqual, 3)
				So(history[0].RunID, ShouldEqual, "run-1")
				So(history[2].RunID, ShouldEqual, "run-3")
			})

			Convey("And recent composites honor the cap in chronological order", func() {
				recent, err := store.RecentComposites(ctx, "kyara", 2)
				So(err, ShouldBeNil)
				So(len(recent), ShouldEqual, 2)
				So(recent[0].RunID, ShouldEqual, "run-2")
				So(recent[1].RunID, ShouldEqual, "run-3")
			})

			Convey("And the latest wins the latest query", func() {
				latest, err := store.LatestComposite(ctx, "kyara")
				So(err, ShouldBeNil)
				So(latest.RunID, ShouldEqual, "run-3")
			})
		})

		Convey("When a candidate has no scores yet", func() {
			_, err := store.LatestComposite(ctx, "kyara")

			Convey("Then the lookup reports not found", func() {
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})

		Convey("When asking history with a non-positive day count", func() {
			_, err := store.CompositeHistory(ctx, "kyara", 0)

			Convey("Then the limit is rejected", func() {
				So(err, ShouldEqual, repository.ErrInvalidLimit)
			})
		})
	})
}

func TestSQLiteStore_Collections(t *testing.T) {
	Convey("Given a store with candidates", t, func() {
		ctx := context.Background()
		store := openStore(t)
		Reset(func() { store.Close() })

		for _, slug := range []string{"kyara", "vex", "nilo"} {
			So(store.CreateCandidate(ctx, model.Candidate{Slug: slug, Name: slug, CreatedAt: time.Now()}), ShouldBeNil)
		}

		Convey("When creating a roster and adding members", func() {
			coll, err := store.CreateCollection(ctx, model.Collection{OwnerID: "scout-7", Kind: model.KindRoster, Name: "signings"})
			So(err, ShouldBeNil)

			_, err = store.AddMember(ctx, coll.ID, "kyara", "priority")
			So(err, ShouldBeNil)
			_, err = store.AddMember(ctx, coll.ID, "vex", "")
			So(err, ShouldBeNil)

			Convey("Then members come back in position order", func() {
				got, members, err := store.GetCollection(ctx, coll.ID)
				So(err, ShouldBeNil)
				So(got.Kind, ShouldEqual, model.KindRoster)
				So(len(members), ShouldEqual, 2)
				So(members[0].CandidateSlug, ShouldEqual, "kyara")
				So(members[0].Position, ShouldEqual, 1)
				So(members[1].CandidateSlug, ShouldEqual, "vex")
				So(members[1].Position, ShouldEqual, 2)
				So(members[0].Notes, ShouldEqual, "priority")
			})

			Convey("And adding the same member again conflicts", func() {
				_, err := store.AddMember(ctx, coll.ID, "kyara", "")
				So(err, ShouldWrap, repository.ErrAlreadyExists)
			})

			Convey("And swapping positions reorders them", func() {
				So(store.SwapPositions(ctx, coll.ID, "kyara", "vex"), ShouldBeNil)
				_, members, err := store.GetCollection(ctx, coll.ID)
				So(err, ShouldBeNil)
				So(members[0].CandidateSlug, ShouldEqual, "vex")
				So(members[1].CandidateSlug, ShouldEqual, "kyara")
			})

			Convey("And removing a member frees its slot", func() {
				So(store.RemoveMember(ctx, coll.ID, "kyara"), ShouldBeNil)
				_, members, err := store.GetCollection(ctx, coll.ID)
				So(err, ShouldBeNil)
				So(len(members), ShouldEqual, 1)

				So(store.RemoveMember(ctx, coll.ID, "kyara"), ShouldWrap, repository.ErrNotFound)
			})

			Convey("And the owner's collections are listable", func() {
				colls, err := store.ListCollections(ctx, "scout-7")
				So(err, ShouldBeNil)
				So(len(colls), ShouldEqual, 1)
				So(colls[0].Name, ShouldEqual, "signings")
			})
		})

		Convey("When adding a member to a missing collection", func() {
			_, err := store.AddMember(ctx, 999, "kyara", "")

			Convey("Then the collection lookup fails", func() {
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})
	})
}

func TestSQLiteStore_Insights(t *testing.T) {
	Convey("Given a store with one candidate", t, func() {
		ctx := context.Background()
		store := openStore(t)
		Reset(func() { store.Close() })

		So(store.CreateCandidate(ctx, model.Candidate{Slug: "kyara", Name: "Kyara", CreatedAt: time.Now()}), ShouldBeNil)
		now := time.Now().UTC()

		Convey("When saving insights for two owners", func() {
			for i, owner := range []string{"scout-7", "scout-7", "scout-9"} {
				_, err := store.SaveInsight(ctx, model.Insight{
					OwnerID:       owner,
					CandidateSlug: "kyara",
					Kind:          model.InsightSurge,
					Magnitude:     0.5,
					Narrative:     "kyara jumped 50% in momentum",
					CreatedAt:     now.Add(time.Duration(i) * time.Minute),
				})
				So(err, ShouldBeNil)
			}

			Convey("Then listing is owner-scoped and newest first", func() {
				got, err := store.ListInsights(ctx, "scout-7", 10)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].CreatedAt.After(got[1].CreatedAt), ShouldBeTrue)
			})

			Convey("And the limit caps the result", func() {
				got, err := store.ListInsights(ctx, "scout-7", 1)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 1)
			})

			Convey("And the latest insight is owner- and candidate-scoped", func() {
				got, err := store.LatestInsight(ctx, "scout-7", "kyara")
				So(err, ShouldBeNil)
				So(got.CreatedAt.Equal(now.Add(time.Minute)), ShouldBeTrue)

				_, err = store.LatestInsight(ctx, "scout-9", "nobody")
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})
	})
}
