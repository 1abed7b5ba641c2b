package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	api "github.com/okian/radar/internal/adapters/http/api"
	"github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/app"
	"github.com/okian/radar/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*httptest.Server, *repository.SQLiteStore) {
	t.Helper()
	store, err := repository.Open(filepath.Join(t.TempDir(), "radar.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	svc, err := app.New(nil, app.WithStore(store))
	if err != nil {
		t.Fatalf("building service: %v", err)
	}

	mux := http.NewServeMux()
	api.NewServer(svc).Register(mux)
	return httptest.NewServer(mux), store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("posting: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestAPI_Candidates(t *testing.T) {
	Convey("Given a running API", t, func() {
		srv, store := newTestServer(t)
		Reset(func() {
			srv.Close()
			store.Close()
		})

		Convey("When creating a candidate", func() {
			resp := postJSON(t, srv.URL+"/candidates", map[string]any{
				"slug": "kyara", "name": "Kyara", "tags": []string{"hyperpop"},
			})

			Convey("Then it is created and fetchable", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				resp.Body.Close()

				get, err := http.Get(srv.URL + "/candidates/kyara")
				So(err, ShouldBeNil)
				So(get.StatusCode, ShouldEqual, http.StatusOK)

				var cand struct {
					Slug string   `json:"Slug"`
					Tags []string `json:"Tags"`
				}
				decodeBody(t, get, &cand)
				So(cand.Slug, ShouldEqual, "kyara")
			})

			Convey("And creating it again conflicts", func() {
				dup := postJSON(t, srv.URL+"/candidates", map[string]any{
					"slug": "kyara", "name": "Kyara",
				})
				So(dup.StatusCode, ShouldEqual, http.StatusConflict)
				dup.Body.Close()
			})
		})

		Convey("When the payload fails validation", func() {
			resp := postJSON(t, srv.URL+"/candidates", map[string]any{"slug": "", "name": ""})

			Convey("Then the request is a bad request", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				resp.Body.Close()
			})
		})

		Convey("When fetching a missing candidate", func() {
			resp, err := http.Get(srv.URL + "/candidates/ghost")

			Convey("Then the lookup is a 404", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				resp.Body.Close()
			})
		})
	})
}

func TestAPI_EventsAndScores(t *testing.T) {
	Convey("Given an API with one candidate", t, func() {
		srv, store := newTestServer(t)
		Reset(func() {
			srv.Close()
			store.Close()
		})

		resp := postJSON(t, srv.URL+"/candidates", map[string]any{
			"slug": "kyara", "name": "Kyara", "tags": []string{"hyperpop"},
		})
		So(resp.StatusCode, ShouldEqual, http.StatusCreated)
		resp.Body.Close()

		now := time.Now().UTC()
		events := []map[string]any{
			{"candidate_slug": "kyara", "type": "mention", "value": 10, "source": "mig", "occurred_at": now.Add(-time.Hour).Format(time.RFC3339)},
			{"candidate_slug": "kyara", "type": "coverage", "value": 50, "source": "scenes", "occurred_at": now.Add(-2 * time.Hour).Format(time.RFC3339)},
			{"candidate_slug": "ghost", "type": "mention", "value": 1, "source": "mig", "occurred_at": now.Add(-time.Hour).Format(time.RFC3339)},
		}

		Convey("When ingesting a batch with one bad item", func() {
			resp := postJSON(t, srv.URL+"/events", map[string]any{"events": events})

			var report struct {
				Accepted int `json:"accepted"`
				Rejected int `json:"rejected"`
				Errors   []struct {
					Index  int    `json:"index"`
					Reason string `json:"reason"`
				} `json:"errors"`
			}
			decodeBody(t, resp, &report)

			Convey("Then the report isolates the failure", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(report.Accepted, ShouldEqual, 2)
				So(report.Rejected, ShouldEqual, 1)
				So(report.Errors[0].Index, ShouldEqual, 2)
			})
		})

		Convey("When refreshing and reading scores", func() {
			ingest := postJSON(t, srv.URL+"/events", map[string]any{"events": events[:2]})
			ingest.Body.Close()

			refresh := postJSON(t, srv.URL+"/refresh/kyara", nil)

			Convey("Then the refresh returns a composite score", func() {
				So(refresh.StatusCode, ShouldEqual, http.StatusOK)
				refresh.Body.Close()

				get, err := http.Get(srv.URL + "/scores/kyara")
				So(err, ShouldBeNil)
				So(get.StatusCode, ShouldEqual, http.StatusOK)

				var view struct {
					Rank struct {
						Rank  int     `json:"rank"`
						Score float64 `json:"score"`
					} `json:"rank"`
				}
				decodeBody(t, get, &view)
				So(view.Rank.Rank, ShouldEqual, 1)
				So(view.Rank.Score, ShouldBeGreaterThan, 0)
			})

			Convey("And the leaderboard includes the candidate", func() {
				So(refresh.StatusCode, ShouldEqual, http.StatusOK)
				refresh.Body.Close()

				get, err := http.Get(srv.URL + "/top?limit=5")
				So(err, ShouldBeNil)

				var top struct {
					Top []struct {
						Slug string `json:"slug"`
					} `json:"top"`
				}
				decodeBody(t, get, &top)
				So(len(top.Top), ShouldEqual, 1)
				So(top.Top[0].Slug, ShouldEqual, "kyara")
			})

			Convey("And the history endpoint returns the run", func() {
				So(refresh.StatusCode, ShouldEqual, http.StatusOK)
				refresh.Body.Close()

				get, err := http.Get(srv.URL + "/scores/kyara/history?days=7")
				So(err, ShouldBeNil)
				So(get.StatusCode, ShouldEqual, http.StatusOK)

				var hist struct {
					History []json.RawMessage `json:"history"`
				}
				decodeBody(t, get, &hist)
				So(len(hist.History), ShouldEqual, 1)
			})
		})

		Convey("When reading scores for an unscored candidate", func() {
			resp, err := http.Get(srv.URL + "/scores/kyara")

			Convey("Then the lookup is a 404", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				resp.Body.Close()
			})
		})

		Convey("When the top limit is not an integer", func() {
			resp, err := http.Get(srv.URL + "/top?limit=lots")

			Convey("Then the request is a bad request", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				resp.Body.Close()
			})
		})
	})
}

func TestAPI_CollectionsAndInsights(t *testing.T) {
	Convey("Given an API with scored candidates", t, func() {
		srv, store := newTestServer(t)
		Reset(func() {
			srv.Close()
			store.Close()
		})

		now := time.Now().UTC()
		for _, c := range []map[string]any{
			{"slug": "kyara", "name": "Kyara", "tags": []string{"hyperpop"}},
			{"slug": "vex", "name": "Vex", "tags": []string{"drill"}},
		} {
			resp := postJSON(t, srv.URL+"/candidates", c)
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			resp.Body.Close()

			slug := c["slug"].(string)
			ev := postJSON(t, srv.URL+"/events", map[string]any{"events": []map[string]any{
				{"candidate_slug": slug, "type": "mention", "value": 10, "source": "mig", "occurred_at": now.Add(-time.Hour).Format(time.RFC3339)},
				{"candidate_slug": slug, "type": "coverage", "value": 20, "source": "scenes", "occurred_at": now.Add(-time.Hour).Format(time.RFC3339)},
			}})
			ev.Body.Close()
			refresh := postJSON(t, srv.URL+fmt.Sprintf("/refresh/%s", slug), nil)
			So(refresh.StatusCode, ShouldEqual, http.StatusOK)
			refresh.Body.Close()
		}

		resp := postJSON(t, srv.URL+"/collections", map[string]any{
			"owner_id": "scout-7", "name": "signings", "kind": "roster",
		})
		var coll struct {
			ID int64 `json:"ID"`
		}
		decodeBody(t, resp, &coll)
		So(resp.StatusCode, ShouldEqual, http.StatusCreated)

		base := fmt.Sprintf("%s/collections/%d", srv.URL, coll.ID)

		addMember := func(slug string) {
			resp := postJSON(t, base+"/members", map[string]any{"candidate_slug": slug})
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			resp.Body.Close()
		}

		Convey("When managing members", func() {
			addMember("kyara")
			addMember("vex")

			Convey("Then the collection lists them in order", func() {
				get, err := http.Get(base)
				So(err, ShouldBeNil)

				var out struct {
					Members []struct {
						CandidateSlug string `json:"CandidateSlug"`
						Position      int    `json:"Position"`
					} `json:"members"`
				}
				decodeBody(t, get, &out)
				So(len(out.Members), ShouldEqual, 2)
				So(out.Members[0].CandidateSlug, ShouldEqual, "kyara")
			})

			Convey("And reorder swaps their positions", func() {
				re := postJSON(t, base+"/reorder", map[string]any{"slug_a": "kyara", "slug_b": "vex"})
				So(re.StatusCode, ShouldEqual, http.StatusNoContent)
				re.Body.Close()

				get, err := http.Get(base)
				So(err, ShouldBeNil)
				var out struct {
					Members []struct {
						CandidateSlug string `json:"CandidateSlug"`
					} `json:"members"`
				}
				decodeBody(t, get, &out)
				So(out.Members[0].CandidateSlug, ShouldEqual, "vex")
			})

			Convey("And removing a member returns no content", func() {
				req, err := http.NewRequest(http.MethodDelete, base+"/members/vex", nil)
				So(err, ShouldBeNil)
				resp, err := http.DefaultClient.Do(req)
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)
				resp.Body.Close()
			})

			Convey("And the gaps endpoint answers for the roster", func() {
				get, err := http.Get(base + "/gaps")
				So(err, ShouldBeNil)
				So(get.StatusCode, ShouldEqual, http.StatusOK)
				get.Body.Close()
			})

			Convey("And fit assessment answers for an outsider", func() {
				get, err := http.Get(base + "/fit/vex")
				So(err, ShouldBeNil)
				So(get.StatusCode, ShouldEqual, http.StatusOK)

				var fit struct {
					Fit float64 `json:"fit"`
				}
				decodeBody(t, get, &fit)
				So(fit.Fit, ShouldBeBetweenOrEqual, 0, 1)
			})

			Convey("And collab suggestions answer within the roster", func() {
				get, err := http.Get(base + "/collabs?limit=5")
				So(err, ShouldBeNil)
				So(get.StatusCode, ShouldEqual, http.StatusOK)
				get.Body.Close()
			})
		})

		Convey("When generating insights without history movement", func() {
			addMember("kyara")
			resp := postJSON(t, srv.URL+"/insights/generate", map[string]any{"owner_id": "scout-7"})

			Convey("Then the call succeeds with whatever qualifies", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				resp.Body.Close()

				list, err := http.Get(srv.URL + "/insights?owner_id=scout-7")
				So(err, ShouldBeNil)
				So(list.StatusCode, ShouldEqual, http.StatusOK)
				list.Body.Close()
			})
		})

		Convey("When listing insights without an owner", func() {
			resp, err := http.Get(srv.URL + "/insights")

			Convey("Then the request is a bad request", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				resp.Body.Close()
			})
		})

		Convey("When checking operational endpoints", func() {
			health, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			So(health.StatusCode, ShouldEqual, http.StatusOK)
			health.Body.Close()

			stats, err := http.Get(srv.URL + "/stats")
			So(err, ShouldBeNil)

			var out struct {
				Candidates int `json:"candidates"`
			}
			decodeBody(t, stats, &out)

			Convey("Then stats reflect the catalog", func() {
				So(stats.StatusCode, ShouldEqual, http.StatusOK)
				So(out.Candidates, ShouldEqual, 2)
			})
		})
	})
}
