package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	return l
}

func TestClient_GetById_CachesResult(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 42, "username": "alice", "playername": "Alice"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, newTestLogger())

	u1, err := c.GetById(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetById() error = %v", err)
	}
	u2, err := c.GetById(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetById() second call error = %v", err)
	}

	if u1.PlayerName != "Alice" || u2.PlayerName != "Alice" {
		t.Fatalf("unexpected user: %+v, %+v", u1, u2)
	}
	if calls != 1 {
		t.Errorf("upstream called %d times, want 1 (second call should hit cache)", calls)
	}
}

func TestClient_GetById_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, newTestLogger())
	u, err := c.GetById(context.Background(), 99)
	if err != nil {
		t.Fatalf("GetById() error = %v", err)
	}
	if u != nil {
		t.Errorf("GetById() = %+v, want nil", u)
	}
}

func TestClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] == "wrong" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if body["username"] == "ghost" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]int64{"userId": 42})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, newTestLogger())

	if id, err := c.Login(context.Background(), "alice", "correct"); err != nil || id != 42 {
		t.Errorf("Login(alice, correct) = %d, %v, want 42, nil", id, err)
	}
	if id, err := c.Login(context.Background(), "alice", "wrong"); err != nil || id != -1 {
		t.Errorf("Login(alice, wrong) = %d, %v, want -1, nil", id, err)
	}
	if id, err := c.Login(context.Background(), "ghost", "x"); err != nil || id != 0 {
		t.Errorf("Login(ghost, x) = %d, %v, want 0, nil", id, err)
	}
}

func TestClient_SetPassword_InvalidatesCache(t *testing.T) {
	var getCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			getCalls++
			json.NewEncoder(w).Encode(map[string]interface{}{"id": 1, "username": "bob", "playername": "Bob"})
		case http.MethodPut:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, newTestLogger())

	c.GetById(context.Background(), 1)
	c.GetById(context.Background(), 1)
	if getCalls != 1 {
		t.Fatalf("getCalls = %d before SetPassword, want 1", getCalls)
	}

	if err := c.SetPassword(context.Background(), 1, "new"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}

	c.GetById(context.Background(), 1)
	if getCalls != 2 {
		t.Errorf("getCalls = %d after SetPassword, want 2 (cache should have been invalidated)", getCalls)
	}
}

func TestClient_Ping_UnreachableIsFalse(t *testing.T) {
	c := New("http://127.0.0.1:0", 200*time.Millisecond, newTestLogger())
	if c.Ping(context.Background()) {
		t.Error("Ping() against unreachable host = true, want false")
	}
}

func TestClient_GetById_ShortCircuitsWhenProbeDown(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 1, "username": "bob", "playername": "Bob"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, newTestLogger())
	c.probe.alive = false

	u, err := c.GetById(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetById() error = %v", err)
	}
	if u != nil {
		t.Errorf("GetById() = %+v, want nil while probe is down", u)
	}
	if calls != 0 {
		t.Errorf("upstream called %d times, want 0 while probe is down", calls)
	}
}

func TestClient_GetByName_ShortCircuitsWhenProbeDown(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 1, "username": "bob", "playername": "Bob"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, newTestLogger())
	c.probe.alive = false

	u, err := c.GetByName(context.Background(), "Bob")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if u != nil {
		t.Errorf("GetByName() = %+v, want nil while probe is down", u)
	}
	if calls != 0 {
		t.Errorf("upstream called %d times, want 0 while probe is down", calls)
	}
}

func TestClient_GetById_ResumesAfterProbeRecovers(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 7, "username": "carl", "playername": "Carl"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, newTestLogger())
	c.probe.alive = false

	if u, _ := c.GetById(context.Background(), 7); u != nil {
		t.Fatalf("GetById() while down = %+v, want nil", u)
	}

	c.probe.alive = true
	u, err := c.GetById(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetById() after recovery error = %v", err)
	}
	if u == nil || u.PlayerName != "Carl" {
		t.Fatalf("GetById() after recovery = %+v, want Carl", u)
	}
	if calls != 1 {
		t.Errorf("upstream called %d times, want 1", calls)
	}
}

func TestProbe_CheckNowReflectsPing(t *testing.T) {
	alive := true
	p := NewProbe(func(ctx context.Context) bool { return alive }, newTestLogger())

	if !p.CheckNow(context.Background()) {
		t.Fatal("CheckNow() = false, want true")
	}
	if !p.IsAlive() {
		t.Fatal("IsAlive() = false, want true")
	}

	alive = false
	if p.CheckNow(context.Background()) {
		t.Fatal("CheckNow() = true, want false")
	}
	if p.IsAlive() {
		t.Fatal("IsAlive() = true, want false")
	}
}
