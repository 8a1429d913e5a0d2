package display

import "testing"

func TestNewAckMessage(t *testing.T) {
	cmd := CommandMessage{ID: "cmd-1", DeviceID: "panel-hall"}
	ack := NewAckMessage(cmd, AckAccepted)

	if ack.CommandID != "cmd-1" {
		t.Errorf("CommandID = %s, want cmd-1", ack.CommandID)
	}
	if ack.DeviceID != "panel-hall" {
		t.Errorf("DeviceID = %s, want panel-hall", ack.DeviceID)
	}
	if ack.Status != AckAccepted {
		t.Errorf("Status = %s, want accepted", ack.Status)
	}
	if ack.Protocol != Protocol {
		t.Errorf("Protocol = %s, want %s", ack.Protocol, Protocol)
	}
	if ack.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
	if ack.Error != nil {
		t.Errorf("Error = %+v, want nil", ack.Error)
	}
}

func TestNewAckError(t *testing.T) {
	cmd := CommandMessage{ID: "cmd-2", DeviceID: "panel-hall"}
	ack := NewAckError(cmd, ErrCodeInvalidParameters, "bad offset")

	if ack.Status != AckFailed {
		t.Errorf("Status = %s, want failed", ack.Status)
	}
	if ack.Error == nil {
		t.Fatal("Error not set")
	}
	if ack.Error.Code != ErrCodeInvalidParameters {
		t.Errorf("Error.Code = %s, want %s", ack.Error.Code, ErrCodeInvalidParameters)
	}
	if ack.Error.Message != "bad offset" {
		t.Errorf("Error.Message = %s, want bad offset", ack.Error.Message)
	}
}

func TestNewLWTMessage(t *testing.T) {
	msg := NewLWTMessage("display")

	if msg.Bridge != "display" {
		t.Errorf("Bridge = %s, want display", msg.Bridge)
	}
	if msg.Status != HealthOffline {
		t.Errorf("Status = %s, want offline", msg.Status)
	}
	if msg.Reason == "" {
		t.Error("Reason not set")
	}
}

func TestTopicHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ack", AckTopic("panel-hall"), "graylogic/ack/display/panel-hall"},
		{"response", ResponseTopic("req-1"), "graylogic/response/display/req-1"},
		{"event", EventTopic("panel-hall"), "graylogic/event/display/panel-hall"},
		{"health", HealthTopic(), "graylogic/health/display"},
		{"command subscribe", CommandSubscribeTopic(), "graylogic/command/display/+"},
		{"request subscribe", RequestSubscribeTopic(), "graylogic/request/display/+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("topic = %s, want %s", tt.got, tt.want)
			}
		})
	}
}
