package testutil

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ln80/domainstore/domain"
	"github.com/ln80/domainstore/json"
	"golang.org/x/sync/errgroup"
)

// ProviderTest runs the domain store acceptance suite against the given
// storage provider.
func ProviderTest(t *testing.T, ctx context.Context, p domain.Provider) {
	RegisterEvents()

	store := domain.NewStore(p, json.NewSerializer())
	aggID := "agg-" + domain.UID().String()

	// an aggregate without history loads as an empty sequence
	evts, err := store.LoadEvents(ctx, aggID)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if l := len(evts); l != 0 {
		t.Fatalf("expect empty event history, got length: %d", l)
	}

	// first save, no version expectation
	batch := GenEvts(3)
	if err := store.Save(ctx, domain.SaveRequest{
		AggregateType: "testutil.Aggregate",
		Command:       domain.NewCommand(aggID, &Command1{Val: "create"}),
		Events:        batch,
	}); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}

	evts, err = store.LoadEvents(ctx, aggID)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if l := len(evts); l != 3 {
		t.Fatalf("expect loaded events length be %d, got %d", 3, l)
	}
	for i, evt := range evts {
		if want, got := int64(i+1), evt.Version; want != got {
			t.Fatalf("expect version be %d, got %d", want, got)
		}
		if want, got := domain.TypeOf(batch[i]), evt.Type; want != got {
			t.Fatalf("expect type be %s, got %s", want, got)
		}
		if !reflect.DeepEqual(batch[i], evt.Data) {
			t.Fatalf("expect %s and %s be equal", FormatEvt(evt), batch[i])
		}
	}

	// save with a matching expectation advances the stream
	if err := store.Save(ctx, domain.SaveRequest{
		AggregateType: "testutil.Aggregate",
		Command: domain.NewCommand(aggID, &Command1{Val: "update"}).
			WithExpectedVersion(3),
		Events: GenEvts(2),
	}); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	evts, err = store.LoadEvents(ctx, aggID)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if l := len(evts); l != 5 {
		t.Fatalf("expect loaded events length be %d, got %d", 5, l)
	}
	for i, evt := range evts {
		if want, got := int64(i+1), evt.Version; want != got {
			t.Fatalf("expect contiguous versions, at %d got %d", i, got)
		}
	}

	// a stale expectation fails and leaves the stream untouched
	err = store.Save(ctx, domain.SaveRequest{
		AggregateType: "testutil.Aggregate",
		Command: domain.NewCommand(aggID, &Command1{Val: "stale"}).
			WithExpectedVersion(3),
		Events: GenEvts(1),
	})
	if !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expect err be %v, got %v", domain.ErrConcurrencyConflict, err)
	}
	evts, err = store.LoadEvents(ctx, aggID)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if l := len(evts); l != 5 {
		t.Fatalf("expect loaded events length be %d, got %d", 5, l)
	}

	// a command producing no events is still recorded, without a version check
	if err := store.Save(ctx, domain.SaveRequest{
		AggregateType: "testutil.Aggregate",
		Command: domain.NewCommand(aggID, &Command1{Val: "noop"}).
			WithExpectedVersion(5),
	}); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}

	// malformed requests are rejected before any I/O
	err = store.Save(ctx, domain.SaveRequest{
		Command: domain.NewCommand(aggID, &Command1{Val: "invalid"}),
	})
	if !errors.Is(err, domain.ErrInvalidSaveRequest) {
		t.Fatalf("expect err be %v, got %v", domain.ErrInvalidSaveRequest, err)
	}

	// a save joining an ambient scope that its owner rolls back leaves no trace
	sc, err := p.Scope(ctx)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if err := store.Save(ctx, domain.SaveRequest{
		AggregateType: "testutil.Aggregate",
		Command: domain.NewCommand(aggID, &Command1{Val: "ambient"}).
			WithExpectedVersion(5),
		Events: GenEvts(2),
	}, domain.WithScope(sc)); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if err := sc.Rollback(ctx); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	evts, err = store.LoadEvents(ctx, aggID)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if l := len(evts); l != 5 {
		t.Fatalf("expect rolled back save leave no trace, got length: %d", l)
	}

	// the same save becomes visible once the owner commits
	sc, err = p.Scope(ctx)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if err := store.Save(ctx, domain.SaveRequest{
		AggregateType: "testutil.Aggregate",
		Command: domain.NewCommand(aggID, &Command1{Val: "ambient"}).
			WithExpectedVersion(5),
		Events: GenEvts(2),
	}, domain.WithScope(sc)); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if err := sc.Commit(ctx); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	evts, err = store.LoadEvents(ctx, aggID)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if l := len(evts); l != 7 {
		t.Fatalf("expect loaded events length be %d, got %d", 7, l)
	}
}

// ProviderConcurrencyTest checks that two writers racing on the same aggregate
// version produce exactly one winner and one concurrency conflict.
func ProviderConcurrencyTest(t *testing.T, ctx context.Context, p domain.Provider) {
	RegisterEvents()

	store := domain.NewStore(p, json.NewSerializer())
	aggID := "agg-" + domain.UID().String()

	if err := store.Save(ctx, domain.SaveRequest{
		AggregateType: "testutil.Aggregate",
		Command:       domain.NewCommand(aggID, &Command1{Val: "create"}),
		Events:        GenEvts(2),
	}); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}

	errs := make([]error, 2)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 2; i++ {
		i := i
		g.Go(func() error {
			errs[i] = store.Save(gctx, domain.SaveRequest{
				AggregateType: "testutil.Aggregate",
				Command: domain.NewCommand(aggID, &Command1{Val: "race"}).
					WithExpectedVersion(2),
				Events: GenEvts(1),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}

	winners, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domain.ErrConcurrencyConflict):
			conflicts++
		default:
			t.Fatalf("expect err be nil or %v, got %v", domain.ErrConcurrencyConflict, err)
		}
	}
	if winners != 1 || conflicts != 1 {
		t.Fatalf("expect exactly one winner and one conflict, got %d and %d", winners, conflicts)
	}

	evts, err := store.LoadEvents(ctx, aggID)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if l := len(evts); l != 3 {
		t.Fatalf("expect loaded events length be %d, got %d", 3, l)
	}
	for i, evt := range evts {
		if want, got := int64(i+1), evt.Version; want != got {
			t.Fatalf("expect contiguous versions, at %d got %d", i, got)
		}
	}
}
