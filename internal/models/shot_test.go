package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestShotRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		record  ShotRecord
		wantErr bool
	}{
		{"valid", ShotRecord{VideoID: "00102", ShotIndex: 0, StartFrame: 0, EndFrame: 48, StartTime: 0, EndTime: 2.0}, false},
		{"empty video id", ShotRecord{ShotIndex: 0, EndFrame: 10, EndTime: 1}, true},
		{"negative shot index", ShotRecord{VideoID: "v", ShotIndex: -1, EndFrame: 10, EndTime: 1}, true},
		{"end frame before start", ShotRecord{VideoID: "v", StartFrame: 20, EndFrame: 10, EndTime: 1}, true},
		{"end time before start", ShotRecord{VideoID: "v", EndFrame: 10, StartTime: 5, EndTime: 2}, true},
		{"negative start time", ShotRecord{VideoID: "v", EndFrame: 10, StartTime: -1, EndTime: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Validate() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestShotRecord_JSONFieldNames(t *testing.T) {
	r := ShotRecord{
		VideoID:      "00102",
		ShotIndex:    3,
		StartFrame:   120,
		EndFrame:     168,
		StartTime:    4.8,
		EndTime:      6.72,
		KeyframePath: "keyframes/00102/00102_3.jpg",
	}
	data, err := json.Marshal(&r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"video_id", "shot", "start_frame", "end_frame", "start_time", "end_time", "keyframe_path"} {
		if _, ok := m[key]; !ok {
			t.Errorf("marshaled record missing key %q", key)
		}
	}
	if m["shot"].(float64) != 3 {
		t.Errorf("shot = %v, want 3", m["shot"])
	}
}

func TestShotRecord_Duration(t *testing.T) {
	r := ShotRecord{StartTime: 2.0, EndTime: 5.5}
	if d := r.Duration(); d != 3.5 {
		t.Errorf("Duration() = %v, want 3.5", d)
	}
}
