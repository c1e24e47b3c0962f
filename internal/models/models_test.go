package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLocalKeyCarriesPrefix(t *testing.T) {
	k := NewLocalKey()
	if k.Origin != KeyLocal {
		t.Errorf("got origin %v, want KeyLocal", k.Origin)
	}
	if !strings.HasPrefix(k.Value, "loc_") {
		t.Errorf("local key %q missing prefix", k.Value)
	}
	if k.Value == NewLocalKey().Value {
		t.Error("local keys must be unique")
	}
}

func TestItemKeyIsZero(t *testing.T) {
	if !(ItemKey{}).IsZero() {
		t.Error("zero value key must report zero")
	}
	if NewLocalKey().IsZero() {
		t.Error("minted local key must not report zero")
	}
	if RemoteKey("srv-1").IsZero() {
		t.Error("remote key must not report zero")
	}
}

func TestParseKeyRecoversOrigin(t *testing.T) {
	if k := ParseKey("loc_abc"); k.Origin != KeyLocal {
		t.Errorf("got origin %v for loc_ key, want KeyLocal", k.Origin)
	}
	if k := ParseKey("srv-123"); k.Origin != KeyRemote {
		t.Errorf("got origin %v for server key, want KeyRemote", k.Origin)
	}
}

func TestItemKeyJSONRoundTrip(t *testing.T) {
	local := NewLocalKey()
	data, err := json.Marshal(local)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Serialized form is the raw string, not an object.
	if want := `"` + local.Value + `"`; string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	var back ItemKey
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != local {
		t.Errorf("round trip changed key: %+v -> %+v", local, back)
	}

	var remote ItemKey
	if err := json.Unmarshal([]byte(`"srv-9"`), &remote); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if remote.Origin != KeyRemote {
		t.Error("origin not re-derived for server keys")
	}
}

func TestIsValidSubjectType(t *testing.T) {
	for _, valid := range []SubjectType{SubjectAttraction, SubjectTour, SubjectRoute} {
		if !IsValidSubjectType(valid) {
			t.Errorf("%s should be valid", valid)
		}
	}
	if IsValidSubjectType("hotel") {
		t.Error("unknown subject type accepted")
	}
}
