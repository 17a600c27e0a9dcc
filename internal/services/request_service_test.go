package services

import (
	"context"
	"errors"
	"testing"

	"github.com/skillswap/swap-backend/internal/domain"
)

func validCreateInput(f *fixture) CreateRequestInput {
	return CreateRequestInput{
		RecipientID:    f.teacher.ID,
		OfferedSkillID: f.offered.ID,
		Message:        "I'd love to learn the basics.",
		Format:         domain.FormatOnline,
		Duration:       60,
		MeetingLink:    "https://meet.example.com/abc",
	}
}

func TestRequestCreate_Success(t *testing.T) {
	f := newFixture(t)
	sink := &captureSink{}
	svc := NewRequestService(f.db, sink)

	req, err := svc.Create(context.Background(), f.learner.ID, validCreateInput(f))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.Status != domain.RequestPending || req.ID == "" {
		t.Fatalf("request unexpected: %+v", req)
	}

	ev := sink.last(t)
	if ev.Recipient != f.teacher.ID || ev.Type != domain.NotifySkillRequest {
		t.Fatalf("event unexpected: %+v", ev)
	}
	want := "Lena Fischer wants to learn Sourdough Baking from you."
	if ev.Message != want {
		t.Fatalf("message = %q, want %q", ev.Message, want)
	}
}

func TestRequestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.db, nil)
	ctx := context.Background()

	t.Run("self request", func(t *testing.T) {
		in := validCreateInput(f)
		in.RecipientID = f.learner.ID
		if _, err := svc.Create(ctx, f.learner.ID, in); !errors.Is(err, ErrSelfRequest) {
			t.Fatalf("want ErrSelfRequest, got %v", err)
		}
	})
	t.Run("duration too short", func(t *testing.T) {
		in := validCreateInput(f)
		in.Duration = 10
		if _, err := svc.Create(ctx, f.learner.ID, in); !errors.Is(err, ErrDurationOutOfRange) {
			t.Fatalf("want ErrDurationOutOfRange, got %v", err)
		}
	})
	t.Run("duration too long", func(t *testing.T) {
		in := validCreateInput(f)
		in.Duration = 481
		if _, err := svc.Create(ctx, f.learner.ID, in); !errors.Is(err, ErrDurationOutOfRange) {
			t.Fatalf("want ErrDurationOutOfRange, got %v", err)
		}
	})
	t.Run("online without meeting link", func(t *testing.T) {
		in := validCreateInput(f)
		in.MeetingLink = "  "
		if _, err := svc.Create(ctx, f.learner.ID, in); !errors.Is(err, ErrMeetingLinkRequired) {
			t.Fatalf("want ErrMeetingLinkRequired, got %v", err)
		}
	})
	t.Run("in person without meeting link is fine", func(t *testing.T) {
		in := validCreateInput(f)
		in.Format = domain.FormatInPerson
		in.MeetingLink = ""
		in.Location = "Central Library"
		if _, err := svc.Create(ctx, f.learner.ID, in); err != nil {
			t.Fatalf("in-person create failed: %v", err)
		}
	})
	t.Run("unknown offered skill", func(t *testing.T) {
		in := validCreateInput(f)
		in.OfferedSkillID = "00000000-0000-0000-0000-000000000000"
		if _, err := svc.Create(ctx, f.learner.ID, in); !errors.Is(err, ErrSkillNotFound) {
			t.Fatalf("want ErrSkillNotFound, got %v", err)
		}
	})
}

func TestRequestCreate_SkillUnavailable(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.db, nil)
	ctx := context.Background()

	// Deactivated listing.
	if err := f.db.Model(&f.offered).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.Create(ctx, f.learner.ID, validCreateInput(f)); !errors.Is(err, ErrSkillUnavailable) {
		t.Fatalf("want ErrSkillUnavailable for inactive listing, got %v", err)
	}

	// Listing owned by someone other than the recipient.
	if err := f.db.Model(&f.offered).Updates(map[string]any{"is_active": true, "user_id": f.learner.ID}).Error; err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if _, err := svc.Create(ctx, f.learner.ID, validCreateInput(f)); !errors.Is(err, ErrSkillUnavailable) {
		t.Fatalf("want ErrSkillUnavailable for foreign listing, got %v", err)
	}
}

func TestRequestCreate_DuplicatePending(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.db, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, f.learner.ID, validCreateInput(f)); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, f.learner.ID, validCreateInput(f)); !errors.Is(err, ErrDuplicatePending) {
		t.Fatalf("want ErrDuplicatePending, got %v", err)
	}

	// After the pending request is resolved a new one may be filed.
	svcResp := NewRequestService(f.db, nil)
	reqs, err := svc.ListSent(ctx, f.learner.ID)
	if err != nil || len(reqs) != 1 {
		t.Fatalf("ListSent unexpected: %v %v", reqs, err)
	}
	if _, err := svcResp.Respond(ctx, reqs[0].ID, f.teacher.ID, DecisionDecline, ""); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if _, err := svc.Create(ctx, f.learner.ID, validCreateInput(f)); err != nil {
		t.Fatalf("create after decline: %v", err)
	}
}

func TestRequestRespond_AcceptAndDecline(t *testing.T) {
	f := newFixture(t)
	sink := &captureSink{}
	svc := NewRequestService(f.db, sink)
	ctx := context.Background()

	r := f.pendingRequest(t)
	got, err := svc.Respond(ctx, r.ID, f.teacher.ID, DecisionAccept, "Evenings work best.")
	if err != nil {
		t.Fatalf("Respond accept: %v", err)
	}
	if got.Status != domain.RequestAccepted || got.RespondedAt == nil || got.ResponseMessage != "Evenings work best." {
		t.Fatalf("accepted request unexpected: %+v", got)
	}
	ev := sink.last(t)
	if ev.Type != domain.NotifyRequestAccepted || ev.Recipient != f.learner.ID {
		t.Fatalf("accept event unexpected: %+v", ev)
	}

	r2 := f.pendingRequest(t)
	got, err = svc.Respond(ctx, r2.ID, f.teacher.ID, DecisionDecline, "")
	if err != nil {
		t.Fatalf("Respond decline: %v", err)
	}
	if got.Status != domain.RequestDeclined {
		t.Fatalf("declined request unexpected: %+v", got)
	}
	if ev = sink.last(t); ev.Type != domain.NotifyRequestDeclined {
		t.Fatalf("decline event unexpected: %+v", ev)
	}
}

func TestRequestRespond_Guards(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.db, nil)
	ctx := context.Background()

	r := f.pendingRequest(t)
	if _, err := svc.Respond(ctx, r.ID, f.learner.ID, DecisionAccept, ""); !errors.Is(err, ErrNotRecipient) {
		t.Fatalf("requester must not respond, got %v", err)
	}
	if _, err := svc.Respond(ctx, "00000000-0000-0000-0000-000000000000", f.teacher.ID, DecisionAccept, ""); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("want ErrRequestNotFound, got %v", err)
	}

	if _, err := svc.Respond(ctx, r.ID, f.teacher.ID, DecisionAccept, ""); err != nil {
		t.Fatalf("accept: %v", err)
	}
	// Second decision on the same request is rejected.
	if _, err := svc.Respond(ctx, r.ID, f.teacher.ID, DecisionDecline, ""); !errors.Is(err, ErrRequestNotPending) {
		t.Fatalf("want ErrRequestNotPending, got %v", err)
	}
}

func TestRequestCancel(t *testing.T) {
	f := newFixture(t)
	sink := &captureSink{}
	svc := NewRequestService(f.db, sink)
	ctx := context.Background()

	r := f.pendingRequest(t)
	if _, err := svc.Cancel(ctx, r.ID, f.teacher.ID); !errors.Is(err, ErrNotRequester) {
		t.Fatalf("recipient must not cancel, got %v", err)
	}

	got, err := svc.Cancel(ctx, r.ID, f.learner.ID)
	if err != nil || got.Status != domain.RequestCancelled {
		t.Fatalf("Cancel unexpected: %v %v", got, err)
	}
	ev := sink.last(t)
	if ev.Type != domain.NotifySystem || ev.Recipient != f.teacher.ID {
		t.Fatalf("cancel event unexpected: %+v", ev)
	}

	// Cancel is pending-only.
	if _, err := svc.Cancel(ctx, r.ID, f.learner.ID); !errors.Is(err, ErrRequestNotPending) {
		t.Fatalf("want ErrRequestNotPending, got %v", err)
	}
}

func TestRequestGet_Visibility(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.db, nil)
	ctx := context.Background()

	r := f.pendingRequest(t)
	if _, err := svc.Get(ctx, r.ID, f.learner.ID); err != nil {
		t.Fatalf("requester should see the request: %v", err)
	}
	if _, err := svc.Get(ctx, r.ID, f.teacher.ID); err != nil {
		t.Fatalf("recipient should see the request: %v", err)
	}
	if _, err := svc.Get(ctx, r.ID, "someone-else"); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("third parties must not see the request, got %v", err)
	}
}
