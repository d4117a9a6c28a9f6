package trakt

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// deviceAPI answers /oauth/device/token with 400 until pending reaches
// zero and then with status.
func deviceAPI(t *testing.T, pending int32, status int) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	c, _ := newFakeAPI(t, testConfig(), func(r chi.Router) {
		r.Post("/oauth/device/token", func(w http.ResponseWriter, r *http.Request) {
			n := calls.Add(1)
			if n <= pending {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if status != http.StatusOK {
				w.WriteHeader(status)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": "device-access", "refresh_token": "device-refresh", "expires_in": 7200,
			})
		})
	})
	return c, &calls
}

func TestStartPoll_InvalidCode(t *testing.T) {
	c, err := NewClient(testConfig(), nil, WithTransport(failTransport(t)))
	if err != nil {
		t.Fatal(err)
	}
	codes := []*DeviceCode{
		nil,
		{ExpiresIn: 600, Interval: 5},
		{DeviceCode: "d", Interval: 5},
		{DeviceCode: "d", ExpiresIn: 600},
	}
	for _, dc := range codes {
		if _, err := c.StartPoll(context.Background(), dc); !errors.Is(err, ErrInvalidPoll) {
			t.Errorf("StartPoll(%+v) error = %v, want ErrInvalidPoll", dc, err)
		}
	}
}

func TestPollAccess_PendingThenAuthorized(t *testing.T) {
	if testing.Short() {
		t.Skip("polls in real time")
	}
	c, calls := deviceAPI(t, 1, http.StatusOK)

	start := time.Now()
	tr, err := c.PollAccess(context.Background(), &DeviceCode{DeviceCode: "d", UserCode: "U", ExpiresIn: 30, Interval: 1})
	if err != nil {
		t.Fatalf("PollAccess() error = %v", err)
	}
	if tr.AccessToken != "device-access" {
		t.Errorf("AccessToken = %q", tr.AccessToken)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if elapsed := time.Since(start); elapsed < 2*time.Second {
		t.Errorf("authorized after %v, want at least two intervals", elapsed)
	}

	tok := c.ExportToken()
	if tok.AccessToken != "device-access" || tok.RefreshToken != "device-refresh" {
		t.Errorf("ExportToken() = %+v", tok)
	}
	if !tok.ExpiresAt().After(time.Now().Add(time.Hour)) {
		t.Errorf("Expires = %v", tok.ExpiresAt())
	}
}

func TestPollAccess_Expires(t *testing.T) {
	if testing.Short() {
		t.Skip("polls in real time")
	}
	c, _ := deviceAPI(t, 1000, http.StatusOK)

	start := time.Now()
	_, err := c.PollAccess(context.Background(), &DeviceCode{DeviceCode: "d", ExpiresIn: 2, Interval: 1})
	if !errors.Is(err, ErrPollExpired) {
		t.Fatalf("PollAccess() error = %v, want ErrPollExpired", err)
	}
	if elapsed := time.Since(start); elapsed < 2*time.Second || elapsed > 4*time.Second {
		t.Errorf("expired after %v, want between 2s and 4s", elapsed)
	}
	if !c.ExportToken().IsZero() {
		t.Error("expired poll stored a token")
	}
}

func TestPollAccess_ExpiresByClock(t *testing.T) {
	c, calls := deviceAPI(t, 1000, http.StatusOK)
	base := time.Now()
	var ticks atomic.Int32
	c.now = func() time.Time {
		// The first reading sets the deadline; every later one is past it.
		if ticks.Add(1) == 1 {
			return base
		}
		return base.Add(time.Hour)
	}

	_, err := c.PollAccess(context.Background(), &DeviceCode{DeviceCode: "d", ExpiresIn: 600, Interval: 1})
	if !errors.Is(err, ErrPollExpired) {
		t.Fatalf("PollAccess() error = %v, want ErrPollExpired", err)
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d after deadline", calls.Load())
	}
}

func TestPollAccess_StopsOnServerError(t *testing.T) {
	c, calls := deviceAPI(t, 0, http.StatusTeapot)

	_, err := c.PollAccess(context.Background(), &DeviceCode{DeviceCode: "d", ExpiresIn: 30, Interval: 1})
	if StatusCode(err) != http.StatusTeapot {
		t.Fatalf("PollAccess() error = %v, want status 418", err)
	}
	if errors.Is(err, ErrPollExpired) || errors.Is(err, ErrPollCanceled) {
		t.Errorf("PollAccess() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestPoll_Cancel(t *testing.T) {
	c, calls := deviceAPI(t, 1000, http.StatusOK)

	p, err := c.StartPoll(context.Background(), &DeviceCode{DeviceCode: "d", ExpiresIn: 600, Interval: 5})
	if err != nil {
		t.Fatal(err)
	}
	p.Cancel()

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poll did not stop after Cancel")
	}
	if _, err := p.Wait(); !errors.Is(err, ErrPollCanceled) {
		t.Errorf("Wait() error = %v, want ErrPollCanceled", err)
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d after cancel", calls.Load())
	}
}

func TestPollAccess_ContextCanceled(t *testing.T) {
	c, _ := deviceAPI(t, 1000, http.StatusOK)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.PollAccess(ctx, &DeviceCode{DeviceCode: "d", ExpiresIn: 600, Interval: 5})
	if !errors.Is(err, ErrPollCanceled) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("PollAccess() error = %v, want canceled by deadline", err)
	}
}
