package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cabin-order-services/internal/queue"

	"go.uber.org/zap"
)

type fakeProvider struct {
	sms    []string
	emails []string
	calls  []string
	fail   bool
}

func (f *fakeProvider) SendSMS(_ context.Context, phone, firstName, template string) error {
	if f.fail {
		return errors.New("provider down")
	}
	f.sms = append(f.sms, phone+"/"+firstName+"/"+template)
	return nil
}

func (f *fakeProvider) SendEmail(_ context.Context, subject, _ string) error {
	if f.fail {
		return errors.New("provider down")
	}
	f.emails = append(f.emails, subject)
	return nil
}

func (f *fakeProvider) TriggerCall(_ context.Context, callee string) error {
	if f.fail {
		return errors.New("provider down")
	}
	f.calls = append(f.calls, callee)
	return nil
}

func jobBody(t *testing.T, job queue.Job) []byte {
	t.Helper()
	body, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}
	return body
}

func TestHandleJobDispatch(t *testing.T) {
	provider := &fakeProvider{}
	w := NewWorker(provider, zap.NewNop())
	ctx := context.Background()

	if err := w.HandleJob(ctx, jobBody(t, queue.Job{
		Kind: queue.JobSMS, Phone: "987", FirstName: "Asha", Template: "order_rejected",
	})); err != nil {
		t.Fatalf("sms job failed: %v", err)
	}
	if err := w.HandleJob(ctx, jobBody(t, queue.Job{
		Kind: queue.JobEmail, Subject: "House full",
	})); err != nil {
		t.Fatalf("email job failed: %v", err)
	}
	if err := w.HandleJob(ctx, jobBody(t, queue.Job{
		Kind: queue.JobCall, Callee: "9012345678",
	})); err != nil {
		t.Fatalf("call job failed: %v", err)
	}

	if len(provider.sms) != 1 || provider.sms[0] != "987/Asha/order_rejected" {
		t.Fatalf("unexpected sms log: %v", provider.sms)
	}
	if len(provider.emails) != 1 {
		t.Fatalf("expected one email, got %v", provider.emails)
	}
	if len(provider.calls) != 1 || provider.calls[0] != "9012345678" {
		t.Fatalf("expected one call to the active caller, got %v", provider.calls)
	}
}

func TestHandleJobUnknownKindIsDropped(t *testing.T) {
	w := NewWorker(&fakeProvider{}, zap.NewNop())
	if err := w.HandleJob(context.Background(), jobBody(t, queue.Job{Kind: "fax.send"})); err != nil {
		t.Fatalf("unknown kind must be dropped, not retried: %v", err)
	}
}

func TestHandleJobPropagatesProviderFailure(t *testing.T) {
	w := NewWorker(&fakeProvider{fail: true}, zap.NewNop())
	err := w.HandleJob(context.Background(), jobBody(t, queue.Job{Kind: queue.JobSMS, Phone: "987"}))
	if err == nil {
		t.Fatalf("provider failure must surface for retry accounting")
	}
}
