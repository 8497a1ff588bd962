package core

import "testing"

func TestNameKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Café  Molido", "cafe molido"},
		{"cafe molido", "cafe molido"},
		{"  Tomato   Sauce ", "tomato sauce"},
		{"ÄÖÜ", "aou"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NameKey(c.in); got != c.want {
			t.Errorf("NameKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Tomato Sauce", "tomato-sauce"},
		{"Café (500g)", "cafe-500g"},
		{"---", ""},
		{"Olive Oil!", "olive-oil"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMakeSKU(t *testing.T) {
	id := "3f2a5b6c-0000-0000-0000-000000000000"

	if got := MakeSKU("Tomato Sauce", id); got != "TOMATO-SAU-3f2a" {
		t.Errorf("MakeSKU = %q, want TOMATO-SAU-3f2a", got)
	}
	if got := MakeSKU("Jam", id); got != "JAM-3f2a" {
		t.Errorf("short name: MakeSKU = %q, want JAM-3f2a", got)
	}
	if got := MakeSKU("???", id); got != "ITEM-3f2a" {
		t.Errorf("unsluggable name: MakeSKU = %q, want ITEM-3f2a", got)
	}
}

func TestDomainErrorMeta(t *testing.T) {
	err := Errf(ErrInsufficientStock, "short by %d", 3).WithMeta("requested", "5")
	derr, ok := AsDomain(err)
	if !ok {
		t.Fatal("expected a domain error")
	}
	if derr.Code != ErrInsufficientStock || derr.Meta["requested"] != "5" {
		t.Errorf("derr = %+v", derr)
	}
}
