package queues

import (
	"encoding/json"
	"testing"

	"asset-stream-manager/metrics"
)

func TestSessionRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      SessionRequest
		wantErr bool
	}{
		{"start ok", SessionRequest{Action: ActionStart, GameletName: "organizations/O/projects/P/pools/Q/gamelets/a/b/c", WorkstationDirectory: "/src"}, false},
		{"start missing directory", SessionRequest{Action: ActionStart, GameletName: "g"}, true},
		{"start missing name", SessionRequest{Action: ActionStart, WorkstationDirectory: "/src"}, true},
		{"stop ok", SessionRequest{Action: ActionStop, GameletID: "a/b/c"}, false},
		{"stop missing id", SessionRequest{Action: ActionStop}, true},
		{"unknown action", SessionRequest{Action: "restart", GameletID: "a/b/c"}, true},
		{"empty action", SessionRequest{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err=%#v wantErr=%#v", err, tt.wantErr)
			}
		})
	}
}

func TestSessionRequest_JSONFieldNames(t *testing.T) {
	var req SessionRequest
	data := `{"requestId":"r1","action":"start","gameletName":"g","workstationDirectory":"/src","origin":2}`
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		t.Fatalf("unmarshal err: %#v", err)
	}
	want := SessionRequest{RequestID: "r1", Action: ActionStart, GameletName: "g", WorkstationDirectory: "/src", Origin: 2}
	if req != want {
		t.Errorf("unmarshal mismatch\n got=%#v\nwant=%#v", req, want)
	}
}

func TestEventEnvelope_JSON(t *testing.T) {
	env := EventEnvelope{
		EnvelopeVersion: "1.0",
		Type:            "developer-log-event",
		EventType:       metrics.EventSessionStart,
		Event: metrics.DeveloperLogEvent{
			ProjectID:    "P",
			SessionStart: &metrics.SessionStartData{StatusCode: "OK", Origin: metrics.OriginCLI},
		},
	}
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal err: %#v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal err: %#v", err)
	}
	if out["eventType"] != "SessionStart" {
		t.Errorf("eventType got=%#v", out["eventType"])
	}
	evt, _ := out["event"].(map[string]any)
	if _, ok := evt["session"]; ok {
		t.Errorf("nil session data must be omitted: %s", b)
	}
}
