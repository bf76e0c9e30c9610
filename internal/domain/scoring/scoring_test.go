package scoring_test

import (
	"math"
	"testing"

	"github.com/haebin/sujil/internal/domain/model"
	"github.com/haebin/sujil/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func f(v float64) *float64 { return &v }

func TestWeightedCalculator_Score(t *testing.T) {
	Convey("Given a calculator with default weights", t, func() {
		calc := scoring.NewWeightedCalculator()

		Convey("When scoring a complete Tp/Tn pair", func() {
			score, ok := calc.Score(f(0.884), f(13.824))

			Convey("Then it should apply the exact weighted sum", func() {
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 0.884*0.99+13.824*0.01)
			})
		})

		Convey("When scoring typical low-pollution values", func() {
			score, ok := calc.Score(f(0.2), f(0.1))

			Convey("Then the score should be reproducible with no rounding", func() {
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 0.2*0.99+0.1*0.01)
			})
		})

		Convey("When either indicator is absent", func() {
			Convey("Then a nil Tp is not scoreable", func() {
				_, ok := calc.Score(nil, f(1.0))
				So(ok, ShouldBeFalse)
			})

			Convey("And a nil Tn is not scoreable", func() {
				_, ok := calc.Score(f(1.0), nil)
				So(ok, ShouldBeFalse)
			})

			Convey("And both nil is not scoreable", func() {
				_, ok := calc.Score(nil, nil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When an indicator is NaN", func() {
			_, ok := calc.Score(f(math.NaN()), f(1.0))

			Convey("Then it should not be scoreable rather than propagate NaN", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given a calculator with custom weights", t, func() {
		calc := scoring.NewWeightedCalculator(scoring.WithWeights(0.5, 0.5))

		Convey("When scoring", func() {
			score, ok := calc.Score(f(2.0), f(4.0))

			Convey("Then the override should apply", func() {
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 3.0)
			})
		})

		Convey("When the override is negative", func() {
			neg := scoring.NewWeightedCalculator(scoring.WithWeights(-1, 0.5))
			score, ok := neg.Score(f(1.0), f(1.0))

			Convey("Then the defaults should be kept", func() {
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 1.0*0.99+1.0*0.01)
			})
		})
	})
}

func TestWeightedCalculator_Classify(t *testing.T) {
	Convey("Given a calculator with default thresholds", t, func() {
		calc := scoring.NewWeightedCalculator()

		Convey("When classifying interior values", func() {
			cases := map[float64]model.RiskBucket{
				0.0:    model.BucketLow,
				0.199:  model.BucketLow,
				0.499:  model.BucketLow,
				0.7:    model.BucketMedium,
				1.0134: model.BucketHigh,
				1.999:  model.BucketHigh,
				5.0:    model.BucketVeryHigh,
			}

			Convey("Then each should land in its interval", func() {
				for score, want := range cases {
					bucket, err := calc.Classify(score)
					So(err, ShouldBeNil)
					So(bucket, ShouldEqual, want)
				}
			})
		})

		Convey("When classifying boundary values", func() {
			Convey("Then each boundary belongs to the higher bucket", func() {
				bucket, err := calc.Classify(0.5)
				So(err, ShouldBeNil)
				So(bucket, ShouldEqual, model.BucketMedium)

				bucket, err = calc.Classify(1.0)
				So(err, ShouldBeNil)
				So(bucket, ShouldEqual, model.BucketHigh)

				bucket, err = calc.Classify(2.0)
				So(err, ShouldBeNil)
				So(bucket, ShouldEqual, model.BucketVeryHigh)
			})
		})

		Convey("When classifying a negative score", func() {
			_, err := calc.Classify(-0.01)

			Convey("Then it should be rejected explicitly", func() {
				So(err, ShouldNotBeNil)
				So(err, ShouldEqual, scoring.ErrInvalidInput)
			})
		})

		Convey("When classifying NaN", func() {
			_, err := calc.Classify(math.NaN())

			Convey("Then it should be rejected explicitly", func() {
				So(err, ShouldEqual, scoring.ErrInvalidInput)
			})
		})
	})

	Convey("Given a calculator with custom thresholds", t, func() {
		calc := scoring.NewWeightedCalculator(scoring.WithThresholds(1, 2, 3))

		Convey("When classifying", func() {
			bucket, err := calc.Classify(1.5)

			Convey("Then the override should apply", func() {
				So(err, ShouldBeNil)
				So(bucket, ShouldEqual, model.BucketMedium)
			})
		})

		Convey("When the override is not ascending", func() {
			bad := scoring.NewWeightedCalculator(scoring.WithThresholds(3, 2, 1))
			bucket, err := bad.Classify(0.7)

			Convey("Then the defaults should be kept", func() {
				So(err, ShouldBeNil)
				So(bucket, ShouldEqual, model.BucketMedium)
			})
		})
	})
}
