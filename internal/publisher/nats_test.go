package publisher

import "testing"

func TestSubject(t *testing.T) {
	tests := []struct {
		prefix, vessel, want string
	}{
		{"vessels.eta", "710001234", "vessels.eta.710001234"},
		{"vessels.eta.", "NAVIO AMAZONAS", "vessels.eta.NAVIO_AMAZONAS"},
		{"vessels", "a.b>*", "vessels.a_b__"},
		{"", "", "_._"},
	}
	for _, tt := range tests {
		p := &NATSPublisher{prefix: tt.prefix}
		if got := p.Subject(tt.vessel); got != tt.want {
			t.Errorf("Subject(%q, %q) = %q, want %q", tt.prefix, tt.vessel, got, tt.want)
		}
	}
}
