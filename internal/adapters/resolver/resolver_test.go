package resolver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/haebin/sujil/internal/adapters/resolver"
	"github.com/haebin/sujil/internal/adapters/store"
	"github.com/haebin/sujil/internal/domain/model"
	"github.com/haebin/sujil/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func f(v float64) *float64 { return &v }

// fakeFetcher scripts the remote provider.
type fakeFetcher struct {
	records []model.Measurement
	err     error
	calls   int
}

func (ff *fakeFetcher) Fetch(_ context.Context) ([]model.Measurement, error) {
	ff.calls++
	return ff.records, ff.err
}

func measurement(id string, tp, tn *float64) model.Measurement {
	return model.Measurement{
		StationID:   id,
		StationName: "station " + id,
		Address:     "Jeonnam " + id,
		Tp:          tp,
		Tn:          tn,
		Latitude:    34.8,
		Longitude:   126.4,
		SampleDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newStore(t *testing.T) (*store.CSVStore, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "water_quality.csv")
	return store.NewCSVStore(path, store.WithSnapshotDir(filepath.Join(dir, "backup"))), dir
}

func TestResolveRemoteSuccess(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given a healthy remote source", t, func() {
		cache, dir := newStore(t)
		fetcher := &fakeFetcher{records: []model.Measurement{
			measurement("a", f(0.884), f(13.824)),
			measurement("b", nil, f(0.5)),
		}}
		r := resolver.New(fetcher, cache)
		ctx := context.Background()

		Convey("When resolving", func() {
			ds, err := r.Resolve(ctx)

			Convey("Then the remote dataset is returned and tagged", func() {
				So(err, ShouldBeNil)
				So(ds.Source, ShouldEqual, model.SourceRemote)
				So(ds.Measurements, ShouldHaveLength, 2)
				So(r.State(), ShouldEqual, resolver.StateRefreshed)
			})

			Convey("And the cache is refreshed", func() {
				So(err, ShouldBeNil)
				raw, readErr := os.ReadFile(filepath.Join(dir, "water_quality.csv"))
				So(readErr, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, "station a")
			})
		})

		Convey("When resolving twice with no intervening change", func() {
			first, err1 := r.Resolve(ctx)
			second, err2 := r.Resolve(ctx)

			Convey("Then the scored content is identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second.Measurements, ShouldResemble, first.Measurements)
				So(fetcher.calls, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a remote payload with outlier records", t, func() {
		cache, _ := newStore(t)
		fetcher := &fakeFetcher{records: []model.Measurement{
			measurement("a", f(0.2), f(0.1)),
			measurement("outlier", f(5000), f(0.1)),
		}}
		r := resolver.New(fetcher, cache)

		Convey("When resolving", func() {
			ds, err := r.Resolve(context.Background())

			Convey("Then only the outlier is dropped, not the batch", func() {
				So(err, ShouldBeNil)
				So(ds.Source, ShouldEqual, model.SourceRemote)
				So(ds.Measurements, ShouldHaveLength, 1)
				So(ds.Measurements[0].StationID, ShouldEqual, "a")
			})
		})
	})
}

func TestResolveFallback(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given a failing remote and a valid cache", t, func() {
		cache, dir := newStore(t)
		ctx := context.Background()

		// Seed the cache through a store this process did not refresh, so
		// the fallback reads as genuinely stale.
		seed := store.NewCSVStore(filepath.Join(dir, "water_quality.csv"))
		So(seed.Save(ctx, &model.Dataset{
			Measurements: []model.Measurement{measurement("cached", f(0.2), f(0.1))},
			Source:       model.SourceRemote,
			RetrievedAt:  time.Now(),
		}), ShouldBeNil)

		fetcher := &fakeFetcher{err: errors.New("connect timeout")}
		r := resolver.New(fetcher, cache)

		Convey("When resolving", func() {
			ds, err := r.Resolve(ctx)

			Convey("Then the cached dataset is served as stale", func() {
				So(err, ShouldBeNil)
				So(ds.Source, ShouldEqual, model.SourceStaleCache)
				So(ds.Measurements, ShouldHaveLength, 1)
				So(ds.Measurements[0].StationID, ShouldEqual, "cached")
				So(r.State(), ShouldEqual, resolver.StateStale)
			})

			Convey("And no snapshot is created on fallback", func() {
				So(err, ShouldBeNil)
				entries, statErr := os.ReadDir(filepath.Join(dir, "backup"))
				if statErr == nil {
					So(entries, ShouldBeEmpty)
				} else {
					So(os.IsNotExist(statErr), ShouldBeTrue)
				}
			})
		})
	})

	Convey("Given a cache refreshed earlier by this process", t, func() {
		cache, _ := newStore(t)
		ctx := context.Background()
		fetcher := &fakeFetcher{records: []model.Measurement{measurement("a", f(0.2), f(0.1))}}
		r := resolver.New(fetcher, cache)

		_, err := r.Resolve(ctx)
		So(err, ShouldBeNil)

		Convey("When the remote later fails", func() {
			fetcher.records = nil
			fetcher.err = errors.New("service down")
			ds, err := r.Resolve(ctx)

			Convey("Then the fallback reads as refreshed cache", func() {
				So(err, ShouldBeNil)
				So(ds.Source, ShouldEqual, model.SourceRefreshedCache)
			})
		})
	})

	Convey("Given a remote payload that validates to nothing", t, func() {
		cache, dir := newStore(t)
		ctx := context.Background()
		seed := store.NewCSVStore(filepath.Join(dir, "water_quality.csv"))
		So(seed.Save(ctx, &model.Dataset{
			Measurements: []model.Measurement{measurement("cached", f(0.3), f(0.2))},
			Source:       model.SourceRemote,
			RetrievedAt:  time.Now(),
		}), ShouldBeNil)

		fetcher := &fakeFetcher{records: []model.Measurement{
			measurement("bad", f(-1), f(0.1)),
		}}
		r := resolver.New(fetcher, cache)

		Convey("When resolving", func() {
			ds, err := r.Resolve(ctx)

			Convey("Then zero valid records triggers fallback", func() {
				So(err, ShouldBeNil)
				So(ds.Source, ShouldEqual, model.SourceStaleCache)
				So(ds.Measurements[0].StationID, ShouldEqual, "cached")
			})
		})
	})

	Convey("Given a failing remote and no cache", t, func() {
		cache, _ := newStore(t)
		fetcher := &fakeFetcher{err: errors.New("connect timeout")}
		r := resolver.New(fetcher, cache)

		Convey("When resolving", func() {
			_, err := r.Resolve(context.Background())

			Convey("Then the run is unrecoverable", func() {
				So(errors.Is(err, resolver.ErrNoDataAvailable), ShouldBeTrue)
				So(r.State(), ShouldEqual, resolver.StateUnavailable)
			})
		})
	})

	Convey("Given a failing remote and a corrupt cache", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "water_quality.csv")
		So(os.WriteFile(path, []byte("not,a,cache\n"), 0o644), ShouldBeNil)
		cache := store.NewCSVStore(path)
		fetcher := &fakeFetcher{err: errors.New("connect timeout")}
		r := resolver.New(fetcher, cache)

		Convey("When resolving", func() {
			_, err := r.Resolve(context.Background())

			Convey("Then the corruption surfaces as a hard error", func() {
				So(errors.Is(err, store.ErrCorruptCache), ShouldBeTrue)
				So(errors.Is(err, resolver.ErrNoDataAvailable), ShouldBeFalse)
				So(r.State(), ShouldEqual, resolver.StateUnavailable)
			})
		})
	})
}
