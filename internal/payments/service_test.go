package payments

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/congo-pay/payment_gateway/internal/bank"
	"github.com/congo-pay/payment_gateway/internal/notification"
)

type fakeAcquirer struct {
	result bank.Result
	err    error
	delay  time.Duration
	calls  int32

	mu   sync.Mutex
	last bank.AuthorizationRequest
}

func (f *fakeAcquirer) Authorize(ctx context.Context, req bank.AuthorizationRequest) (bank.Result, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.result, f.err
}

func (f *fakeAcquirer) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

func newTestService(t *testing.T, repo Repository, acquirer Acquirer, opts ...Option) *Service {
	t.Helper()
	if repo == nil {
		repo = NewMemoryRepository()
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	svc, err := NewService(repo, acquirer, nil, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, &fakeAcquirer{}, nil); err == nil {
		t.Fatal("expected error without repository")
	}
	if _, err := NewService(NewMemoryRepository(), nil, nil); err == nil {
		t.Fatal("expected error without acquirer")
	}
}

func TestCreateAuthorizedScenario(t *testing.T) {
	acq := &fakeAcquirer{result: bank.Result{Authorized: true, AuthorizationCode: "auth_code"}}
	svc := newTestService(t, nil, acq)

	req := PaymentRequest{
		ID:          "0f8fad5b-d9cb-469f-a165-70867728950e",
		CardNumber:  "123456781234567",
		ExpiryMonth: 12,
		ExpiryYear:  2025,
		Currency:    "USD",
		Amount:      1000,
		CVV:         "123",
	}
	resp, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	want := Response{
		ID:                 req.ID,
		Status:             StatusAuthorized,
		CardNumberLastFour: "**** **** **** 4567",
		ExpiryMonth:        12,
		ExpiryYear:         2025,
		Currency:           "USD",
		Amount:             1000,
	}
	if resp != want {
		t.Fatalf("unexpected response:\n got %+v\nwant %+v", resp, want)
	}

	sent := acq.last
	if sent.PaymentID != req.ID || sent.CardNumber != req.CardNumber || sent.ExpiryDate != "12/2025" || sent.CVV != "123" {
		t.Fatalf("unexpected bank request %+v", sent)
	}
}

func TestCreateDeclinedKeepsBankReason(t *testing.T) {
	acq := &fakeAcquirer{result: bank.Result{Authorized: false, Reason: "Insufficient funds"}}
	svc := newTestService(t, nil, acq)

	resp, err := svc.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Status != StatusDeclined || resp.Reason != "Insufficient funds" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCreateDeclinedWithoutReasonUsesDefault(t *testing.T) {
	svc := newTestService(t, nil, &fakeAcquirer{result: bank.Result{Authorized: false}})

	resp, err := svc.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Status != StatusDeclined || resp.Reason != DefaultDeclineReason {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCreateBankFailureDegradesToDecline(t *testing.T) {
	acq := &fakeAcquirer{err: &bank.Error{Kind: bank.KindTimeout, Err: context.DeadlineExceeded}}
	repo := NewMemoryRepository()
	svc := newTestService(t, repo, acq)

	req := validRequest()
	resp, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("bank failure must not surface as an error, got %v", err)
	}
	if resp.Status != StatusDeclined || resp.Reason != DefaultDeclineReason {
		t.Fatalf("unexpected response %+v", resp)
	}

	stored, err := repo.Get(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("expected failed payment to be stored: %v", err)
	}
	if stored.Status != StatusDeclined {
		t.Fatalf("stored status %s", stored.Status)
	}
}

func TestCreateNeverStoresRawCard(t *testing.T) {
	repo := NewMemoryRepository()
	svc := newTestService(t, repo, &fakeAcquirer{result: bank.Result{Authorized: true}})

	req := validRequest()
	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec, err := repo.Get(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.MaskedCard != "**** **** **** 8877" {
		t.Fatalf("unexpected masked card %q", rec.MaskedCard)
	}
	encoded, _ := json.Marshal(rec)
	if strings.Contains(string(encoded), req.CardNumber) {
		t.Fatalf("record leaks card number: %s", encoded)
	}
}

func TestCreateValidationFailureSkipsBank(t *testing.T) {
	acq := &fakeAcquirer{result: bank.Result{Authorized: true}}
	repo := NewMemoryRepository()
	svc := newTestService(t, repo, acq)

	req := validRequest()
	req.Currency = "XYZ"
	_, err := svc.Create(context.Background(), req)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Errors) != 1 || verr.Errors[0] != "Currency must be one of USD, EUR, GBP" {
		t.Fatalf("unexpected errors %q", verr.Errors)
	}
	if acq.Calls() != 0 {
		t.Fatalf("bank must not be called for rejected requests")
	}
	if _, err := repo.Get(context.Background(), req.ID); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("rejected request must not be stored, got %v", err)
	}
}

func TestCreateIsIdempotent(t *testing.T) {
	acq := &fakeAcquirer{result: bank.Result{Authorized: true, AuthorizationCode: "c"}}
	svc := newTestService(t, nil, acq)

	req := validRequest()
	first, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	// A replay with a different body still returns the stored outcome.
	acq.result = bank.Result{Authorized: false, Reason: "Insufficient funds"}
	replay := req
	replay.Amount = 999
	second, err := svc.Create(context.Background(), replay)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("replay differs:\n%s\n%s", a, b)
	}
	if acq.Calls() != 1 {
		t.Fatalf("expected one bank call, got %d", acq.Calls())
	}
}

func TestCreateConcurrentSameIDCallsBankOnce(t *testing.T) {
	acq := &fakeAcquirer{result: bank.Result{Authorized: true}, delay: 50 * time.Millisecond}
	svc := newTestService(t, nil, acq)

	const callers = 16
	req := validRequest()
	results := make([]Response, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Create(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("caller %d got %+v want %+v", i, results[i], results[0])
		}
	}
	if acq.Calls() != 1 {
		t.Fatalf("expected one bank call, got %d", acq.Calls())
	}
}

func TestCreateSurvivesCallerCancellation(t *testing.T) {
	acq := &fakeAcquirer{result: bank.Result{Authorized: true}, delay: 20 * time.Millisecond}
	repo := NewMemoryRepository()
	svc := newTestService(t, repo, acq)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := validRequest()
	if _, err := svc.Create(ctx, req); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec, err := repo.Get(context.Background(), req.ID); err != nil || rec.Status != StatusAuthorized {
		t.Fatalf("expected authorized record, got %+v %v", rec, err)
	}
}

// racingRepository simulates another writer storing the payment between
// the service's lookup and its insert.
type racingRepository struct {
	Repository
	winner Record
	once   sync.Once
}

func (r *racingRepository) Insert(ctx context.Context, rec Record) error {
	r.once.Do(func() {
		_ = r.Repository.Insert(ctx, r.winner)
	})
	return r.Repository.Insert(ctx, rec)
}

func TestCreateReturnsStoredRecordWhenInsertLosesRace(t *testing.T) {
	req := validRequest()
	repo := &racingRepository{
		Repository: NewMemoryRepository(),
		winner:     Record{ID: req.ID, Status: StatusDeclined, MaskedCard: "**** **** **** 8877", Reason: "Insufficient funds"},
	}
	svc := newTestService(t, repo, &fakeAcquirer{result: bank.Result{Authorized: true}})

	resp, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Status != StatusDeclined || resp.Reason != "Insufficient funds" {
		t.Fatalf("expected the stored record to win, got %+v", resp)
	}
}

type brokenRepository struct{}

func (brokenRepository) Insert(context.Context, Record) error { return errors.New("disk full") }
func (brokenRepository) Get(context.Context, string) (Record, error) {
	return Record{}, ErrPaymentNotFound
}

func TestCreateStoreFailureIsInternalError(t *testing.T) {
	svc := newTestService(t, brokenRepository{}, &fakeAcquirer{result: bank.Result{Authorized: true}})

	_, err := svc.Create(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		t.Fatalf("store failure must not look like a validation error")
	}
}

func TestGetRoundTrip(t *testing.T) {
	svc := newTestService(t, nil, &fakeAcquirer{result: bank.Result{Authorized: false, Reason: "Insufficient funds"}})

	req := validRequest()
	created, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.Get(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != created {
		t.Fatalf("get %+v differs from create %+v", got, created)
	}

	if _, err := svc.Get(context.Background(), "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateNotifiesDecision(t *testing.T) {
	n := &recordingNotifier{}
	svc := newTestService(t, nil, &fakeAcquirer{result: bank.Result{Authorized: true}}, WithNotifier(n))

	req := validRequest()
	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("replay: %v", err)
	}

	if len(n.messages) != 1 {
		t.Fatalf("expected one notification, got %d", len(n.messages))
	}
	msg := n.messages[0]
	if msg.Kind != notification.KindPaymentAuthorized || msg.PaymentID != req.ID {
		t.Fatalf("unexpected message %+v", msg)
	}
	if strings.Contains(msg.Body, req.CardNumber) {
		t.Fatalf("notification leaks card number: %s", msg.Body)
	}
}
