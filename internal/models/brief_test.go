package models

import "testing"

func TestStatusAtLeast(t *testing.T) {
	cases := []struct {
		status string
		want   string
		expect bool
	}{
		{BriefStatusPending, BriefStatusProcessing, false},
		{BriefStatusProcessing, BriefStatusProcessing, true},
		{BriefStatusContentGathered, BriefStatusScriptReady, false},
		{BriefStatusScriptReady, BriefStatusScriptReady, true},
		{BriefStatusCompleted, BriefStatusScriptReady, true},
		{BriefStatusAudioFailed, BriefStatusScriptReady, true},
		{BriefStatusFailed, BriefStatusPending, false},
		{BriefStatusPending, BriefStatusFailed, false},
		{"bogus", BriefStatusPending, false},
	}
	for _, tc := range cases {
		if got := StatusAtLeast(tc.status, tc.want); got != tc.expect {
			t.Errorf("StatusAtLeast(%q, %q) = %v, want %v", tc.status, tc.want, got, tc.expect)
		}
	}
}
