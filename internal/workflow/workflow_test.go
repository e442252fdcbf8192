package workflow

import "testing"

func TestDecide(t *testing.T) {
	cases := []struct {
		name   string
		status Status
		hint   string
		want   EditMode
	}{
		{name: "draft with fork hint", status: StatusDraft, hint: ModeHintFork, want: EditExisting},
		{name: "draft without hint", status: StatusDraft, hint: "", want: EditExisting},
		{name: "draft with other hint", status: StatusDraft, hint: "whatever", want: EditExisting},
		{name: "published with fork hint", status: StatusPublished, hint: ModeHintFork, want: CreateFromSource},
		{name: "published without hint", status: StatusPublished, hint: "", want: NotEditable},
		{name: "published with other hint", status: StatusPublished, hint: "edit", want: NotEditable},
		{name: "archived with fork hint", status: StatusArchived, hint: ModeHintFork, want: CreateFromSource},
		{name: "archived without hint", status: StatusArchived, hint: "", want: NotEditable},
		{name: "archived with other hint", status: StatusArchived, hint: "x", want: NotEditable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.status, tc.hint); got != tc.want {
				t.Fatalf("Decide(%q, %q) = %q, want %q", tc.status, tc.hint, got, tc.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"DRAFT", "PUBLISHED", "ARCHIVED"} {
		status, err := ParseStatus(valid)
		if err != nil {
			t.Fatalf("ParseStatus(%q) returned error: %v", valid, err)
		}
		if string(status) != valid {
			t.Fatalf("ParseStatus(%q) = %q", valid, status)
		}
	}

	for _, invalid := range []string{"", "draft", "DELETED"} {
		if _, err := ParseStatus(invalid); err == nil {
			t.Fatalf("ParseStatus(%q) should fail", invalid)
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		allow    bool
	}{
		{StatusDraft, StatusPublished, true},
		{StatusPublished, StatusArchived, true},
		{StatusDraft, StatusArchived, false},
		{StatusPublished, StatusDraft, false},
		{StatusArchived, StatusPublished, false},
		{StatusArchived, StatusDraft, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.allow {
			t.Fatalf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.allow)
		}
	}
}
