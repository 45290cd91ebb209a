package main

import "testing"

func TestParseQuery(t *testing.T) {
	q, err := parseQuery("2010-08-01 13:00")
	if err != nil || q.Input != "2010-08-01 13:00" {
		t.Fatalf("expected date query, got %+v, %v", q, err)
	}

	q, err = parseQuery("bits 4, 2,9")
	if err != nil {
		t.Fatalf("parseQuery: %v", err)
	}
	if len(q.Bits) != 3 || q.Bits[0] != 4 || q.Bits[2] != 9 || q.Input != "" {
		t.Fatalf("unexpected bits query: %+v", q)
	}

	if _, err := parseQuery("bits 1,x"); err == nil {
		t.Fatal("expected error for non-numeric bit")
	}
}
