package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"visitq/queue-service/internal/models"
	"visitq/queue-service/internal/queue"
	"visitq/queue-service/internal/store"
	"visitq/queue-service/internal/store/memory"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

func (p *capturePublisher) Publish(event queue.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) all() []queue.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.Event(nil), p.events...)
}

type fakeStore struct {
	createFn func(ctx context.Context, input store.CreateVisitorInput) (models.Visitor, error)
	getFn    func(ctx context.Context, id string) (models.Visitor, error)
	listFn   func(ctx context.Context, since time.Time) ([]models.Visitor, error)
	updateFn func(ctx context.Context, id, fromStatus, toStatus string) (models.Visitor, error)
}

func (f fakeStore) CreateVisitor(ctx context.Context, input store.CreateVisitorInput) (models.Visitor, error) {
	if f.createFn == nil {
		return models.Visitor{}, nil
	}
	return f.createFn(ctx, input)
}

func (f fakeStore) GetVisitor(ctx context.Context, id string) (models.Visitor, error) {
	if f.getFn == nil {
		return models.Visitor{}, store.ErrVisitorNotFound
	}
	return f.getFn(ctx, id)
}

func (f fakeStore) ListCreatedSince(ctx context.Context, since time.Time) ([]models.Visitor, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, since)
}

func (f fakeStore) UpdateStatus(ctx context.Context, id, fromStatus, toStatus string) (models.Visitor, error) {
	if f.updateFn == nil {
		return models.Visitor{}, store.ErrVisitorNotFound
	}
	return f.updateFn(ctx, id, fromStatus, toStatus)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestCoordinator(t *testing.T, start time.Time) (*queue.Coordinator, *capturePublisher, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: start}
	events := &capturePublisher{}
	coordinator := queue.NewCoordinator(memory.NewStore(), events, queue.Options{
		Location: time.UTC,
		Now:      clock.Now,
	})
	return coordinator, events, clock
}

func intPtr(v int) *int { return &v }

func TestRegisterVisitorValidation(t *testing.T) {
	cases := []struct {
		name  string
		input queue.RegisterInput
		field string
	}{
		{"empty name", queue.RegisterInput{Name: "", Purpose: "checkup"}, "name"},
		{"blank name", queue.RegisterInput{Name: "   ", Purpose: "checkup"}, "name"},
		{"empty purpose", queue.RegisterInput{Name: "Alice", Purpose: ""}, "purpose"},
		{"blank purpose", queue.RegisterInput{Name: "Alice", Purpose: "\t "}, "purpose"},
		{"negative age", queue.RegisterInput{Name: "Alice", Age: intPtr(-1), Purpose: "checkup"}, "age"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			touched := false
			st := fakeStore{
				createFn: func(ctx context.Context, input store.CreateVisitorInput) (models.Visitor, error) {
					touched = true
					return models.Visitor{}, nil
				},
			}
			events := &capturePublisher{}
			coordinator := queue.NewCoordinator(st, events, queue.Options{Location: time.UTC})

			_, err := coordinator.RegisterVisitor(context.Background(), tt.input)
			var validationErr *queue.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if validationErr.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, validationErr.Field)
			}
			if touched {
				t.Fatalf("store must not be called for invalid input")
			}
			if len(events.all()) != 0 {
				t.Fatalf("no event must be published for invalid input")
			}
		})
	}
}

func TestRegisterVisitorStoreErrorEmitsNoEvent(t *testing.T) {
	storeErr := errors.New("connection refused")
	st := fakeStore{
		createFn: func(ctx context.Context, input store.CreateVisitorInput) (models.Visitor, error) {
			return models.Visitor{}, storeErr
		},
	}
	events := &capturePublisher{}
	coordinator := queue.NewCoordinator(st, events, queue.Options{Location: time.UTC})

	_, err := coordinator.RegisterVisitor(context.Background(), queue.RegisterInput{Name: "Alice", Purpose: "checkup"})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if len(events.all()) != 0 {
		t.Fatalf("no event must be published when persistence fails")
	}
}

func TestVisitorLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	coordinator, events, clock := newTestCoordinator(t, start)

	alice, err := coordinator.RegisterVisitor(ctx, queue.RegisterInput{Name: "Alice", Age: intPtr(30), Purpose: "checkup"})
	if err != nil {
		t.Fatalf("register Alice: %v", err)
	}
	if alice.TicketNumber != 1 {
		t.Fatalf("expected Alice ticket 1, got %d", alice.TicketNumber)
	}
	if alice.Status != models.StatusWaiting {
		t.Fatalf("expected Alice waiting, got %s", alice.Status)
	}

	clock.Set(start.Add(time.Minute))
	bob, err := coordinator.RegisterVisitor(ctx, queue.RegisterInput{Name: "Bob", Purpose: "follow-up"})
	if err != nil {
		t.Fatalf("register Bob: %v", err)
	}
	if bob.TicketNumber != 2 {
		t.Fatalf("expected Bob ticket 2, got %d", bob.TicketNumber)
	}
	if bob.Age != nil {
		t.Fatalf("expected Bob age unset, got %v", *bob.Age)
	}

	updated, err := coordinator.AdvanceStatus(ctx, alice.ID, models.StatusInProgress)
	if err != nil {
		t.Fatalf("advance Alice to in_progress: %v", err)
	}
	if updated.Status != models.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", updated.Status)
	}

	if _, err := coordinator.AdvanceStatus(ctx, alice.ID, models.StatusWaiting); !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition moving back to waiting, got %v", err)
	}

	if _, err := coordinator.AdvanceStatus(ctx, alice.ID, models.StatusDone); err != nil {
		t.Fatalf("advance Alice to done: %v", err)
	}

	got := events.all()
	want := []struct {
		eventType string
		status    string
	}{
		{queue.EventVisitorRegistered, models.StatusWaiting},
		{queue.EventVisitorRegistered, models.StatusWaiting},
		{queue.EventVisitorUpdated, models.StatusInProgress},
		{queue.EventVisitorUpdated, models.StatusDone},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Type != w.eventType || got[i].Visitor.Status != w.status {
			t.Fatalf("event %d: got (%s, %s), want (%s, %s)", i, got[i].Type, got[i].Visitor.Status, w.eventType, w.status)
		}
	}
}

func TestAdvanceStatusRejections(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	coordinator, events, _ := newTestCoordinator(t, start)

	visitor, err := coordinator.RegisterVisitor(ctx, queue.RegisterInput{Name: "Alice", Purpose: "checkup"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	registered := len(events.all())

	// Skipping waiting -> done is never allowed.
	if _, err := coordinator.AdvanceStatus(ctx, visitor.ID, models.StatusDone); !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for waiting->done, got %v", err)
	}

	if _, err := coordinator.AdvanceStatus(ctx, visitor.ID, models.StatusInProgress); err != nil {
		t.Fatalf("advance to in_progress: %v", err)
	}
	if _, err := coordinator.AdvanceStatus(ctx, visitor.ID, models.StatusDone); err != nil {
		t.Fatalf("advance to done: %v", err)
	}

	// done is terminal.
	for _, target := range []string{models.StatusWaiting, models.StatusInProgress, models.StatusDone} {
		if _, err := coordinator.AdvanceStatus(ctx, visitor.ID, target); !errors.Is(err, queue.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition for done->%s, got %v", target, err)
		}
	}

	if got := len(events.all()); got != registered+2 {
		t.Fatalf("expected exactly 2 update events, got %d", got-registered)
	}
}

func TestAdvanceStatusNotFound(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC))

	_, err := coordinator.AdvanceStatus(context.Background(), "missing-id", models.StatusInProgress)
	if !errors.Is(err, store.ErrVisitorNotFound) {
		t.Fatalf("expected ErrVisitorNotFound, got %v", err)
	}
}

func TestAdvanceStatusLostRaceRevalidates(t *testing.T) {
	visitor := models.Visitor{ID: "v1", TicketNumber: 1, Name: "Alice", Purpose: "checkup", Status: models.StatusWaiting}
	var updates int
	st := fakeStore{
		getFn: func(ctx context.Context, id string) (models.Visitor, error) {
			return visitor, nil
		},
		updateFn: func(ctx context.Context, id, fromStatus, toStatus string) (models.Visitor, error) {
			updates++
			// A concurrent caller already advanced the record.
			visitor.Status = models.StatusInProgress
			return models.Visitor{}, store.ErrStatusChanged
		},
	}
	events := &capturePublisher{}
	coordinator := queue.NewCoordinator(st, events, queue.Options{Location: time.UTC})

	_, err := coordinator.AdvanceStatus(context.Background(), "v1", models.StatusInProgress)
	if !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition after lost race, got %v", err)
	}
	if updates != 1 {
		t.Fatalf("expected exactly one CAS attempt, got %d", updates)
	}
	if len(events.all()) != 0 {
		t.Fatalf("no event must be published for a rejected advance")
	}
}

func TestListTodayOrdering(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	coordinator, _, clock := newTestCoordinator(t, start)

	first, _ := coordinator.RegisterVisitor(ctx, queue.RegisterInput{Name: "Alice", Purpose: "checkup"})
	clock.Set(start.Add(time.Minute))
	second, _ := coordinator.RegisterVisitor(ctx, queue.RegisterInput{Name: "Bob", Purpose: "follow-up"})
	clock.Set(start.Add(2 * time.Minute))
	third, _ := coordinator.RegisterVisitor(ctx, queue.RegisterInput{Name: "Cara", Purpose: "renewal"})

	// Ticket 1 done, ticket 2 waiting, ticket 3 in progress.
	if _, err := coordinator.AdvanceStatus(ctx, first.ID, models.StatusInProgress); err != nil {
		t.Fatalf("advance first: %v", err)
	}
	if _, err := coordinator.AdvanceStatus(ctx, first.ID, models.StatusDone); err != nil {
		t.Fatalf("complete first: %v", err)
	}
	if _, err := coordinator.AdvanceStatus(ctx, third.ID, models.StatusInProgress); err != nil {
		t.Fatalf("advance third: %v", err)
	}

	visitors, err := coordinator.ListToday(ctx)
	if err != nil {
		t.Fatalf("list today: %v", err)
	}
	if len(visitors) != 3 {
		t.Fatalf("expected 3 visitors, got %d", len(visitors))
	}
	wantOrder := []string{second.ID, third.ID, first.ID}
	for i, id := range wantOrder {
		if visitors[i].ID != id {
			t.Fatalf("position %d: got ticket %d (%s), want visitor %s", i, visitors[i].TicketNumber, visitors[i].ID, id)
		}
	}
}

func TestListTodayExcludesYesterday(t *testing.T) {
	ctx := context.Background()
	lateYesterday := time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC)
	coordinator, _, clock := newTestCoordinator(t, lateYesterday)

	if _, err := coordinator.RegisterVisitor(ctx, queue.RegisterInput{Name: "Alice", Purpose: "checkup"}); err != nil {
		t.Fatalf("register yesterday: %v", err)
	}

	// One second past midnight yesterday's record is already out of scope.
	clock.Set(time.Date(2026, 3, 9, 0, 0, 1, 0, time.UTC))
	visitors, err := coordinator.ListToday(ctx)
	if err != nil {
		t.Fatalf("list today: %v", err)
	}
	if len(visitors) != 0 {
		t.Fatalf("expected empty list after rollover, got %d", len(visitors))
	}

	// The ticket sequence restarts with the new day.
	visitor, err := coordinator.RegisterVisitor(ctx, queue.RegisterInput{Name: "Bob", Purpose: "follow-up"})
	if err != nil {
		t.Fatalf("register today: %v", err)
	}
	if visitor.TicketNumber != 1 {
		t.Fatalf("expected ticket 1 after rollover, got %d", visitor.TicketNumber)
	}
}

func TestConcurrentRegistrationTicketsAreGapFree(t *testing.T) {
	ctx := context.Background()
	const workers = 32

	events := &capturePublisher{}
	coordinator := queue.NewCoordinator(memory.NewStore(), events, queue.Options{Location: time.UTC})

	var wg sync.WaitGroup
	results := make(chan int, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			visitor, err := coordinator.RegisterVisitor(ctx, queue.RegisterInput{Name: "Visitor", Purpose: "walk-in"})
			if err != nil {
				errs <- err
				return
			}
			results <- visitor.TicketNumber
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("register: %v", err)
	}

	seen := make(map[int]bool, workers)
	for ticket := range results {
		if seen[ticket] {
			t.Fatalf("duplicate ticket number %d", ticket)
		}
		seen[ticket] = true
	}
	for ticket := 1; ticket <= workers; ticket++ {
		if !seen[ticket] {
			t.Fatalf("missing ticket number %d", ticket)
		}
	}
	if got := len(events.all()); got != workers {
		t.Fatalf("expected %d registered events, got %d", workers, got)
	}
}
