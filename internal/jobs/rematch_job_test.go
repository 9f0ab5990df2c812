// README: Rematch sweep tests with a fake sweeper.
package jobs

import (
	"context"
	"errors"
	"testing"

	"qikparcel/internal/modules/parcel"
	"qikparcel/internal/types"
)

type fakeSweeper struct {
	pending []*parcel.Parcel
	listErr error
	perErr  map[types.ID]error
	swept   []types.ID
}

func (f *fakeSweeper) ListPendingParcels(_ context.Context) ([]*parcel.Parcel, error) {
	return f.pending, f.listErr
}

func (f *fakeSweeper) CreateForParcel(_ context.Context, p *parcel.Parcel) (int, error) {
	if err := f.perErr[p.ID]; err != nil {
		return 0, err
	}
	f.swept = append(f.swept, p.ID)
	return 1, nil
}

func TestSweep_VisitsEveryPendingParcel(t *testing.T) {
	sweeper := &fakeSweeper{pending: []*parcel.Parcel{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}}
	job := NewRematchJob(sweeper)

	job.sweep()

	if len(sweeper.swept) != 3 {
		t.Fatalf("swept %v, want all three parcels", sweeper.swept)
	}
}

func TestSweep_ContinuesPastParcelFailures(t *testing.T) {
	sweeper := &fakeSweeper{
		pending: []*parcel.Parcel{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}},
		perErr:  map[types.ID]error{"p2": errors.New("store down")},
	}
	job := NewRematchJob(sweeper)

	job.sweep()

	if len(sweeper.swept) != 2 {
		t.Fatalf("swept %v, want the two healthy parcels", sweeper.swept)
	}
}

func TestSweep_ListFailureIsNonFatal(t *testing.T) {
	sweeper := &fakeSweeper{listErr: errors.New("store down")}
	job := NewRematchJob(sweeper)

	job.sweep()

	if len(sweeper.swept) != 0 {
		t.Fatalf("swept %v, want none", sweeper.swept)
	}
}
