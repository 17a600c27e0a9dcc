package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillswap/swap-backend/internal/domain"
)

func TestCreateRequest(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/requests", e.learner.ID, e.createPayload())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var out domain.SwapRequest
	decode(t, w, &out)
	if out.Status != domain.RequestPending || out.RequesterID != e.learner.ID {
		t.Fatalf("request unexpected: %+v", out)
	}

	t.Run("duplicate pending", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/requests", e.learner.ID, e.createPayload())
		wantError(t, w, http.StatusConflict, ErrCodeConflict)
	})
	t.Run("self request", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/requests", e.teacher.ID, e.createPayload())
		wantError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
	})
	t.Run("malformed recipient id", func(t *testing.T) {
		p := e.createPayload()
		p["recipient_id"] = "not-a-uuid"
		w := e.do(t, http.MethodPost, "/api/v1/requests", e.learner.ID, p)
		wantError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
	})
	t.Run("unknown offered skill", func(t *testing.T) {
		p := e.createPayload()
		p["offered_skill_id"] = "00000000-0000-0000-0000-000000000000"
		w := e.do(t, http.MethodPost, "/api/v1/requests", "someone-else", p)
		wantError(t, w, http.StatusNotFound, ErrCodeNotFound)
	})
	t.Run("invalid body", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/requests", e.learner.ID, gin.H{"proposed_format": "carrier_pigeon"})
		wantError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
	})
}

func TestListRequests_Mailboxes(t *testing.T) {
	e := newEnv(t)
	if w := e.do(t, http.MethodPost, "/api/v1/requests", e.learner.ID, e.createPayload()); w.Code != http.StatusCreated {
		t.Fatalf("seed: %d %s", w.Code, w.Body.String())
	}

	w := e.do(t, http.MethodGet, "/api/v1/requests", e.teacher.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out ListRequestsResponse
	decode(t, w, &out)
	if out.Box != "received" || len(out.Requests) != 1 {
		t.Fatalf("received box unexpected: %+v", out)
	}

	w = e.do(t, http.MethodGet, "/api/v1/requests?box=sent", e.learner.ID, nil)
	decode(t, w, &out)
	if out.Box != "sent" || len(out.Requests) != 1 {
		t.Fatalf("sent box unexpected: %+v", out)
	}

	w = e.do(t, http.MethodGet, "/api/v1/requests?box=archive", e.learner.ID, nil)
	wantError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
}

func TestGetRequest(t *testing.T) {
	e := newEnv(t)
	r := e.acceptedRequest(t)

	w := e.do(t, http.MethodGet, "/api/v1/requests/"+r.ID, e.learner.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/v1/requests/"+r.ID, "stranger", nil)
	wantError(t, w, http.StatusNotFound, ErrCodeNotFound)

	w = e.do(t, http.MethodGet, "/api/v1/requests/nope", e.learner.ID, nil)
	wantError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
}

func TestRespondRequest(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/api/v1/requests", e.learner.ID, e.createPayload())
	var r domain.SwapRequest
	decode(t, w, &r)

	t.Run("requester cannot respond", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/requests/"+r.ID+"/respond", e.learner.ID, gin.H{"decision": "accept"})
		wantError(t, w, http.StatusForbidden, ErrCodeForbidden)
	})
	t.Run("bad decision", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/requests/"+r.ID+"/respond", e.teacher.ID, gin.H{"decision": "maybe"})
		wantError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
	})
	t.Run("accept", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/requests/"+r.ID+"/respond", e.teacher.ID,
			gin.H{"decision": "accept", "message": "Evenings work best."})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		var out domain.SwapRequest
		decode(t, w, &out)
		if out.Status != domain.RequestAccepted {
			t.Fatalf("status = %q", out.Status)
		}
	})
	t.Run("already processed", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/requests/"+r.ID+"/respond", e.teacher.ID, gin.H{"decision": "decline"})
		wantError(t, w, http.StatusConflict, ErrCodeInvalidState)
	})
}

func TestCancelRequest(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/api/v1/requests", e.learner.ID, e.createPayload())
	var r domain.SwapRequest
	decode(t, w, &r)

	w = e.do(t, http.MethodPost, "/api/v1/requests/"+r.ID+"/cancel", e.teacher.ID, nil)
	wantError(t, w, http.StatusForbidden, ErrCodeForbidden)

	w = e.do(t, http.MethodPost, "/api/v1/requests/"+r.ID+"/cancel", e.learner.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var out domain.SwapRequest
	decode(t, w, &out)
	if out.Status != domain.RequestCancelled {
		t.Fatalf("status = %q", out.Status)
	}
}

func TestApproveRequest(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/api/v1/requests", e.learner.ID, e.createPayload())
	var r domain.SwapRequest
	decode(t, w, &r)

	w = e.do(t, http.MethodPost, "/api/v1/requests/"+r.ID+"/approve", e.learner.ID, nil)
	wantError(t, w, http.StatusForbidden, ErrCodeForbidden)

	w = e.do(t, http.MethodPost, "/api/v1/requests/"+r.ID+"/approve", e.teacher.ID, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var s domain.Session
	decode(t, w, &s)
	if s.Status != domain.SessionScheduled || s.TeacherID != e.teacher.ID {
		t.Fatalf("session unexpected: %+v", s)
	}

	// Approving again hits the state machine.
	w = e.do(t, http.MethodPost, "/api/v1/requests/"+r.ID+"/approve", e.teacher.ID, nil)
	wantError(t, w, http.StatusConflict, ErrCodeInvalidState)
}

func TestScheduleSession(t *testing.T) {
	e := newEnv(t)
	r := e.acceptedRequest(t)
	start := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Second)

	t.Run("bad date", func(t *testing.T) {
		p := slotPayload(start)
		p["date"] = "tomorrow-ish"
		w := e.do(t, http.MethodPost, "/api/v1/requests/"+r.ID+"/schedule", e.teacher.ID, p)
		wantError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
	})

	w := e.do(t, http.MethodPost, "/api/v1/requests/"+r.ID+"/schedule", e.teacher.ID, slotPayload(start))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var s domain.Session
	decode(t, w, &s)
	if s.RequestID != r.ID || s.Status != domain.SessionScheduled {
		t.Fatalf("session unexpected: %+v", s)
	}

	t.Run("second booking for the same request", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/requests/"+r.ID+"/schedule", e.teacher.ID, slotPayload(start.Add(time.Hour)))
		wantError(t, w, http.StatusConflict, ErrCodeInvalidState)
	})

	t.Run("colliding slot for another request", func(t *testing.T) {
		r2 := e.acceptedRequest(t)
		w := e.do(t, http.MethodPost, "/api/v1/requests/"+r2.ID+"/schedule", e.teacher.ID,
			slotPayload(start.Add(30*time.Minute)))
		wantError(t, w, http.StatusConflict, ErrCodeScheduleConflict)
	})
}
