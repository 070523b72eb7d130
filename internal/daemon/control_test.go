package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/nudge-app/nudged/internal/alerts"
	"github.com/nudge-app/nudged/internal/bus"
	"github.com/nudge-app/nudged/internal/notify"
	"github.com/nudge-app/nudged/internal/ranker"
	"github.com/nudge-app/nudged/internal/status"
	"github.com/nudge-app/nudged/internal/store"
)

type stubClient struct {
	alertID string
	added   []string
}

func (s *stubClient) SendAlert(ctx context.Context, to, message string) (string, error) {
	return s.alertID, nil
}
func (s *stubClient) SendDeliveredReceipt(ctx context.Context, from, alertID string) error {
	return nil
}
func (s *stubClient) SendReadReceipt(ctx context.Context, from, alertID string) error { return nil }
func (s *stubClient) RegisterDevice(ctx context.Context, pushToken string) error      { return nil }
func (s *stubClient) UnregisterDevice(ctx context.Context, pushToken string) error    { return nil }
func (s *stubClient) AddFriend(ctx context.Context, username string) error {
	s.added = append(s.added, username)
	return nil
}

type stubNotifier struct{}

func (stubNotifier) Show(notify.Descriptor) error { return nil }
func (stubNotifier) Cancel(int64) error           { return nil }

func testControl(t *testing.T) (*Control, *store.DB, string) {
	t.Helper()
	dir := t.TempDir()

	db, err := store.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	r, err := ranker.New(db, 0.95, 5, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	b := bus.New()
	machine := status.NewMachine(b)
	if err := machine.Transition(status.Ready); err != nil {
		t.Fatal(err)
	}
	engine := alerts.NewEngine(db, r, &stubClient{alertID: "alert-1"}, b, stubNotifier{}, machine,
		func() string { return "tok" }, zap.NewNop())

	path := filepath.Join(dir, "control.sock")
	c := NewControl(path, engine, zap.NewNop())
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Stop)
	return c, db, path
}

func roundTrip(t *testing.T, path string, req Request) Response {
	t.Helper()
	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		t.Fatal(err)
	}
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		t.Fatal(err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestControlSend(t *testing.T) {
	_, db, path := testControl(t)
	if err := db.UpsertFriend(&store.Friend{Username: "ada"}); err != nil {
		t.Fatal(err)
	}

	resp := roundTrip(t, path, Request{Op: OpSend, Friend: "ada", Message: "hi"})
	if !resp.OK {
		t.Fatalf("response = %+v", resp)
	}
	if resp.AlertID != "alert-1" {
		t.Errorf("alert_id = %q", resp.AlertID)
	}

	friend, _ := db.GetFriend("ada")
	if friend.LastMessageStatus != store.StatusSent {
		t.Errorf("status = %q, want sent", friend.LastMessageStatus)
	}
}

func TestControlSilence(t *testing.T) {
	_, db, path := testControl(t)
	if err := db.UpsertFriend(&store.Friend{Username: "ada"}); err != nil {
		t.Fatal(err)
	}

	resp := roundTrip(t, path, Request{Op: OpSilence, Friend: "ada", AlertID: "alert-1"})
	if !resp.OK {
		t.Fatalf("response = %+v", resp)
	}
}

func TestControlUnknownOp(t *testing.T) {
	_, _, path := testControl(t)

	resp := roundTrip(t, path, Request{Op: "explode"})
	if resp.OK || resp.Error == "" {
		t.Fatalf("response = %+v, want error", resp)
	}
}

func TestControlMalformedLine(t *testing.T) {
	_, _, path := testControl(t)

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("not json\n")); err != nil {
		t.Fatal(err)
	}
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		t.Fatal(err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.OK || resp.Error == "" {
		t.Fatalf("response = %+v, want malformed-request error", resp)
	}
}
