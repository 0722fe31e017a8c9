package condition

import "testing"

func TestParse_Comparisons(t *testing.T) {
	cases := []struct {
		src  string
		want Condition
	}{
		{"age >= 18", Condition{Variable: "age", Operator: ">=", Value: float64(18)}},
		{"salary>10000", Condition{Variable: "salary", Operator: ">", Value: float64(10000)}},
		{"ratio < 1.5", Condition{Variable: "ratio", Operator: "<", Value: 1.5}},
		{"delta <= -3", Condition{Variable: "delta", Operator: "<=", Value: float64(-3)}},
		{`segment == "prime"`, Condition{Variable: "segment", Operator: "=", Value: "prime"}},
		{"segment == 'prime'", Condition{Variable: "segment", Operator: "=", Value: "prime"}},
		{"vip == true", Condition{Variable: "vip", Operator: "=", Value: true}},
	}

	for _, tc := range cases {
		got, err := Parse(tc.src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.src, err)
		}
		if got != tc.want {
			t.Fatalf("Parse(%q) = %#v, want %#v", tc.src, got, tc.want)
		}
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, src := range []string{
		"",
		"age",
		"age != 18",
		"18 < age",
		"age >= other",
		"age >= 18 && score > 700",
		"len(name) > 3",
		"user.age > 3",
		"tags[0] == 'a'",
	} {
		if _, err := Parse(src); err == nil {
			t.Fatalf("expected Parse(%q) to fail", src)
		}
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	for _, c := range []Condition{
		{Variable: "age", Operator: ">=", Value: float64(18)},
		{Variable: "score", Operator: "=", Value: 0.25},
		{Variable: "tier", Operator: "=", Value: "prime plus"},
		{Variable: "flag", Operator: "=", Value: false},
	} {
		src := Format(c)
		got, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(Format(%#v)) = %v (src %q)", c, err, src)
		}
		if got != c {
			t.Fatalf("round trip of %q gave %#v, want %#v", src, got, c)
		}
	}
}

func TestParseLiteral(t *testing.T) {
	cases := map[string]any{
		"1":          float64(1),
		"-2.5":       -2.5,
		"true":       true,
		"'approved'": "approved",
		`"manual"`:   "manual",
		"rejected":   "rejected",
	}
	for src, want := range cases {
		got, err := ParseLiteral(src)
		if err != nil {
			t.Fatalf("ParseLiteral(%q): %v", src, err)
		}
		if got != want {
			t.Fatalf("ParseLiteral(%q) = %#v, want %#v", src, got, want)
		}
	}

	if _, err := ParseLiteral(""); err == nil {
		t.Fatalf("expected error for empty literal")
	}
}

func TestValidate_IgnoresQuotedText(t *testing.T) {
	if err := Validate(`note == 'a: b; {c}'`); err != nil {
		t.Fatalf("expected quoted text to be ignored, got %v", err)
	}
	if err := Validate(`note == a; b`); err == nil {
		t.Fatalf("expected error for bare ';'")
	}
	if err := Validate(`score > 1.5`); err != nil {
		t.Fatalf("expected decimal literal to pass, got %v", err)
	}
}

func TestIsVariable(t *testing.T) {
	for _, name := range []string{"age", "monthly_income", "x1", "_tmp"} {
		if !IsVariable(name) {
			t.Fatalf("expected %q to be a variable", name)
		}
	}
	for _, name := range []string{"", " age", "monthly income", "user.age", "a-b", "true", "len(x)", "1abc"} {
		if IsVariable(name) {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}
